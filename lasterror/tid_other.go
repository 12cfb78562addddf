//go:build !linux && !windows

package lasterror

// CurrentThread has no pure Go source of a thread id on this platform and
// returns 0, so every thread shares one record. Programs built with cgo
// supply pthread_self through NewThreadLocalFunc instead.
func CurrentThread() uint64 {
	return 0
}
