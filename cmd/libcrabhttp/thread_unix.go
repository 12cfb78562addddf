//go:build unix

package main

/*
#include <pthread.h>
#include <stdint.h>

static uint64_t crab_thread_key(void) {
	return (uint64_t)(uintptr_t)pthread_self();
}
*/
import "C"

import "github.com/wippyai/crabhttp/lasterror"

// threadKey identifies the calling C thread. pthread_self is available on
// every unix, including those without a gettid syscall.
func threadKey() uint64 {
	return uint64(C.crab_thread_key())
}

func errorChannel() lasterror.Channel {
	return lasterror.NewThreadLocalFunc(threadKey)
}
