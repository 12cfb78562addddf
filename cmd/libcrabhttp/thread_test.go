package main

import (
	"runtime"
	"sync"
	"testing"

	"github.com/wippyai/crabhttp/errors"
)

func TestThreadKeyPerThread(t *testing.T) {
	var (
		ready sync.WaitGroup
		done  sync.WaitGroup
		keys  [2][2]uint64
	)
	ready.Add(2)
	done.Add(2)
	for i := range keys {
		go func() {
			defer done.Done()
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()

			keys[i][0] = threadKey()
			ready.Done()
			ready.Wait()
			keys[i][1] = threadKey()
		}()
	}
	done.Wait()

	if keys[0][0] != keys[0][1] || keys[1][0] != keys[1][1] {
		t.Errorf("key changed on the same thread: %v", keys)
	}
	if keys[0][0] == keys[1][0] {
		t.Errorf("two live threads share key %d", keys[0][0])
	}
}

func TestErrorChannelPerThread(t *testing.T) {
	c := errorChannel()

	var (
		ready sync.WaitGroup
		done  sync.WaitGroup
		got   [2]*errors.Kind
	)
	failures := [2]error{
		errors.NullHandle("client_get", "client"),
		errors.Status("http://x", 503),
	}
	ready.Add(2)
	done.Add(2)
	for i := range failures {
		go func() {
			defer done.Done()
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()

			c.Set(failures[i])
			ready.Done()
			ready.Wait()
			if rec := c.Take(); rec != nil {
				k := rec.Kind
				got[i] = &k
			}
		}()
	}
	done.Wait()

	want := [2]errors.Kind{errors.KindHandleNull, errors.KindHTTPStatus}
	for i := range want {
		if got[i] == nil || *got[i] != want[i] {
			t.Errorf("thread %d took %v, want %v", i, got[i], want[i])
		}
	}
}
