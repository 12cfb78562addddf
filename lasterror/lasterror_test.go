package lasterror

import (
	stderrors "errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/crabhttp/errors"
)

func TestSlot_SetTake(t *testing.T) {
	s := NewSlot()

	if rec := s.Take(); rec != nil {
		t.Fatalf("empty slot returned %+v", rec)
	}

	s.Set(errors.NullHandle("client_get", "client"))
	rec := s.Take()
	if rec == nil {
		t.Fatal("Take returned nil after Set")
	}
	if rec.Kind != errors.KindHandleNull {
		t.Errorf("Kind = %v", rec.Kind)
	}
	if rec.Message == "" {
		t.Error("Message is empty")
	}

	// Take clears
	if rec := s.Take(); rec != nil {
		t.Fatalf("second Take returned %+v", rec)
	}
}

func TestSlot_Overwrite(t *testing.T) {
	s := NewSlot()

	s.Set(errors.NullHandle("a", "client"))
	s.Set(errors.Status("http://x", 404))

	rec := s.Take()
	if rec.Kind != errors.KindHTTPStatus || rec.Code != 404 {
		t.Fatalf("record = %+v, want status 404", rec)
	}
}

func TestSlot_NilIgnored(t *testing.T) {
	s := NewSlot()
	s.Set(errors.BodyConsumed("response_text"))
	s.Set(nil)

	rec := s.Take()
	if rec == nil || rec.Kind != errors.KindBodyConsumed {
		t.Fatalf("nil Set must not clear the record, got %+v", rec)
	}
}

func TestNewRecord_Classifies(t *testing.T) {
	rec := NewRecord(fmt.Errorf("read body: %w", errors.BodyConsumed("response_bytes")))
	if rec.Kind != errors.KindBodyConsumed {
		t.Fatalf("Kind = %v", rec.Kind)
	}

	rec = NewRecord(stderrors.New("mystery"))
	if rec.Kind != errors.KindOther || rec.Message != "mystery" {
		t.Fatalf("record = %+v", rec)
	}
}

func TestThreadLocal_SameThread(t *testing.T) {
	c := NewThreadLocal()

	done := make(chan *Record)
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		c.Set(errors.NullHandle("op", "client"))
		done <- c.Take()
	}()

	rec := <-done
	if rec == nil || rec.Kind != errors.KindHandleNull {
		t.Fatalf("record = %+v", rec)
	}
}

func TestThreadLocal_Isolation(t *testing.T) {
	if runtime.GOOS != "linux" && runtime.GOOS != "windows" {
		t.Skip("no pure Go thread id on " + runtime.GOOS)
	}

	c := NewThreadLocal()

	var (
		setDone  = make(chan struct{})
		takeDone = make(chan struct{})
		wg       sync.WaitGroup
		other    *Record
		own      *Record
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		c.Set(errors.Status("http://x", 500))
		close(setDone)
		<-takeDone
		own = c.Take()
	}()
	go func() {
		defer wg.Done()
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		<-setDone
		other = c.Take()
		close(takeDone)
	}()
	wg.Wait()

	if other != nil {
		t.Fatalf("record leaked to another thread: %+v", other)
	}
	if own == nil || own.Code != 500 {
		t.Fatalf("owning thread lost its record: %+v", own)
	}
}

func TestThreadLocal_KeyFunc(t *testing.T) {
	var key atomic.Uint64
	c := NewThreadLocalFunc(key.Load)

	key.Store(1)
	c.Set(errors.NullHandle("a", "client"))
	key.Store(2)
	c.Set(errors.Status("http://x", 404))
	if rec := NewThreadLocalFunc(key.Load).Take(); rec != nil {
		t.Fatalf("fresh channel returned %+v", rec)
	}

	key.Store(1)
	if rec := c.Take(); rec == nil || rec.Kind != errors.KindHandleNull {
		t.Fatalf("key 1 record = %+v", rec)
	}
	if rec := c.Take(); rec != nil {
		t.Fatalf("key 1 second Take = %+v", rec)
	}

	key.Store(2)
	if rec := c.Take(); rec == nil || rec.Code != 404 {
		t.Fatalf("key 2 record = %+v", rec)
	}
}

func TestSet_Logs(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	cause := stderrors.New("connection refused")
	err := errors.New(errors.PhaseTransport, errors.KindConnectionRefused).
		Op("request_builder_send").
		Cause(cause).
		Build()

	NewSlot().Set(err)

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected error line and cause line, got %d entries", len(entries))
	}
	if entries[0].Level != zapcore.ErrorLevel {
		t.Errorf("first entry level = %v", entries[0].Level)
	}
	if got := entries[0].ContextMap()["kind"]; got != "connection_refused" {
		t.Errorf("kind field = %v", got)
	}
	if entries[1].Level != zapcore.WarnLevel {
		t.Errorf("cause entry level = %v", entries[1].Level)
	}
	if got := entries[1].ContextMap()["cause"]; got != "connection refused" {
		t.Errorf("cause field = %v", got)
	}
}
