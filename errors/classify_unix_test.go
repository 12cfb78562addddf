//go:build unix

package errors

import (
	"net"
	"os"
	"syscall"
	"testing"
)

func TestClassify_Errno(t *testing.T) {
	tests := []struct {
		errno syscall.Errno
		want  Kind
	}{
		{syscall.ECONNREFUSED, KindConnectionRefused},
		{syscall.ECONNRESET, KindConnectionReset},
		{syscall.ECONNABORTED, KindConnectionAborted},
		{syscall.ENOTCONN, KindNotConnected},
		{syscall.EADDRINUSE, KindAddrInUse},
		{syscall.EADDRNOTAVAIL, KindAddrNotAvailable},
		{syscall.EPIPE, KindBrokenPipe},
		{syscall.EHOSTUNREACH, KindHostUnreachable},
		{syscall.ENETUNREACH, KindNetworkUnreachable},
		{syscall.ENOMEM, KindOutOfMemory},
		{syscall.EACCES, KindPermissionDenied},
		{syscall.ENOENT, KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			err := &net.OpError{
				Op:  "dial",
				Net: "tcp",
				Err: os.NewSyscallError("connect", tt.errno),
			}
			if k := Classify(err); k != tt.want {
				t.Fatalf("Classify(%v) = %v, want %v", err, k, tt.want)
			}
		})
	}
}

func TestClassify_CategoryBeatsErrno(t *testing.T) {
	err := &engineErr{cat: CategoryBody, cause: syscall.ECONNRESET}
	if k := Classify(err); k != KindHTTPBody {
		t.Fatalf("Classify = %v, want body", k)
	}
	err = &engineErr{cat: CategoryNone, cause: syscall.ECONNRESET}
	if k := Classify(err); k != KindConnectionReset {
		t.Fatalf("Classify = %v, want connection reset", k)
	}
}

func TestClassify_TimedOutErrnoIsTimeout(t *testing.T) {
	// syscall.Errno reports ETIMEDOUT as a net.Error timeout.
	err := &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ETIMEDOUT)}
	if k := Classify(err); k != KindHTTPTimeout {
		t.Fatalf("Classify = %v, want timeout", k)
	}
}
