//go:build unix

package errors

import (
	stderrors "errors"
	"syscall"
)

func errnoKind(err error) (Kind, bool) {
	var errno syscall.Errno
	if !stderrors.As(err, &errno) {
		return KindOther, false
	}

	switch errno {
	case syscall.ENOENT:
		return KindNotFound, true
	case syscall.EACCES, syscall.EPERM:
		return KindPermissionDenied, true
	case syscall.ECONNREFUSED:
		return KindConnectionRefused, true
	case syscall.ECONNRESET:
		return KindConnectionReset, true
	case syscall.EHOSTUNREACH:
		return KindHostUnreachable, true
	case syscall.ENETUNREACH:
		return KindNetworkUnreachable, true
	case syscall.ECONNABORTED:
		return KindConnectionAborted, true
	case syscall.ENOTCONN:
		return KindNotConnected, true
	case syscall.EADDRINUSE:
		return KindAddrInUse, true
	case syscall.EADDRNOTAVAIL:
		return KindAddrNotAvailable, true
	case syscall.ENETDOWN:
		return KindNetworkDown, true
	case syscall.EPIPE:
		return KindBrokenPipe, true
	case syscall.EEXIST:
		return KindAlreadyExists, true
	case syscall.EAGAIN:
		return KindWouldBlock, true
	case syscall.ENOTDIR:
		return KindNotADirectory, true
	case syscall.EISDIR:
		return KindIsADirectory, true
	case syscall.ENOTEMPTY:
		return KindDirectoryNotEmpty, true
	case syscall.EROFS:
		return KindReadOnlyFilesystem, true
	case syscall.ELOOP:
		return KindFilesystemLoop, true
	case syscall.ESTALE:
		return KindStaleNetworkFileHandle, true
	case syscall.EINVAL:
		return KindInvalidInput, true
	case syscall.ETIMEDOUT:
		return KindTimedOut, true
	case syscall.ENOSPC:
		return KindStorageFull, true
	case syscall.ESPIPE:
		return KindNotSeekable, true
	case syscall.EDQUOT:
		return KindFilesystemQuotaExceeded, true
	case syscall.EFBIG:
		return KindFileTooLarge, true
	case syscall.EBUSY:
		return KindResourceBusy, true
	case syscall.ETXTBSY:
		return KindExecutableFileBusy, true
	case syscall.EDEADLK:
		return KindDeadlock, true
	case syscall.EXDEV:
		return KindCrossesDevices, true
	case syscall.EMLINK:
		return KindTooManyLinks, true
	case syscall.ENAMETOOLONG:
		return KindInvalidFilename, true
	case syscall.E2BIG:
		return KindArgumentListTooLong, true
	case syscall.EINTR:
		return KindInterrupted, true
	case syscall.ENOSYS, syscall.EOPNOTSUPP:
		return KindUnsupported, true
	case syscall.ENOMEM:
		return KindOutOfMemory, true
	}
	return KindOther, true
}
