//go:build windows

package main

import (
	"golang.org/x/sys/windows"

	"github.com/wippyai/crabhttp/lasterror"
)

func threadKey() uint64 {
	return uint64(windows.GetCurrentThreadId())
}

func errorChannel() lasterror.Channel {
	return lasterror.NewThreadLocalFunc(threadKey)
}
