//go:build linux

package lasterror

import "golang.org/x/sys/unix"

// CurrentThread returns the kernel thread id of the caller.
func CurrentThread() uint64 {
	return uint64(unix.Gettid())
}
