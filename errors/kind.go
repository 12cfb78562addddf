package errors

import "strconv"

// Kind is the closed set of failure causes reported across the boundary.
// The numbering is part of the C ABI and must never be reordered; new kinds
// are appended after KindHTTPUpgrade.
type Kind int32

const (
	KindNoError Kind = iota
	KindNotFound
	KindPermissionDenied
	KindConnectionRefused
	KindConnectionReset
	KindHostUnreachable
	KindNetworkUnreachable
	KindConnectionAborted
	KindNotConnected
	KindAddrInUse
	KindAddrNotAvailable
	KindNetworkDown
	KindBrokenPipe
	KindAlreadyExists
	KindWouldBlock
	KindNotADirectory
	KindIsADirectory
	KindDirectoryNotEmpty
	KindReadOnlyFilesystem
	KindFilesystemLoop
	KindStaleNetworkFileHandle
	KindInvalidInput
	KindInvalidData
	KindTimedOut
	KindWriteZero
	KindStorageFull
	KindNotSeekable
	KindFilesystemQuotaExceeded
	KindFileTooLarge
	KindResourceBusy
	KindExecutableFileBusy
	KindDeadlock
	KindCrossesDevices
	KindTooManyLinks
	KindInvalidFilename
	KindArgumentListTooLong
	KindInterrupted
	KindUnsupported
	KindUnexpectedEOF
	KindOutOfMemory
	KindOther
	KindUncategorized
	KindHandleNull
	KindCharConversion
	KindHTTPTimeout
	KindHTTPBuilder
	KindHTTPRequest
	KindHTTPRedirect
	KindHTTPStatus
	KindHTTPBody
	KindHTTPDecode
	KindHTTPUpgrade

	// KindHandleInvalid reports a handle that is stale (already consumed or
	// destroyed) or that refers to a different object type.
	KindHandleInvalid
	// KindBodyConsumed reports a second body materialization on one response.
	KindBodyConsumed
	// KindPanic reports a panic recovered at the boundary.
	KindPanic

	kindCount
)

var kindNames = [...]string{
	KindNoError:                 "no_error",
	KindNotFound:                "not_found",
	KindPermissionDenied:        "permission_denied",
	KindConnectionRefused:       "connection_refused",
	KindConnectionReset:         "connection_reset",
	KindHostUnreachable:         "host_unreachable",
	KindNetworkUnreachable:      "network_unreachable",
	KindConnectionAborted:       "connection_aborted",
	KindNotConnected:            "not_connected",
	KindAddrInUse:               "addr_in_use",
	KindAddrNotAvailable:        "addr_not_available",
	KindNetworkDown:             "network_down",
	KindBrokenPipe:              "broken_pipe",
	KindAlreadyExists:           "already_exists",
	KindWouldBlock:              "would_block",
	KindNotADirectory:           "not_a_directory",
	KindIsADirectory:            "is_a_directory",
	KindDirectoryNotEmpty:       "directory_not_empty",
	KindReadOnlyFilesystem:      "read_only_filesystem",
	KindFilesystemLoop:          "filesystem_loop",
	KindStaleNetworkFileHandle:  "stale_network_file_handle",
	KindInvalidInput:            "invalid_input",
	KindInvalidData:             "invalid_data",
	KindTimedOut:                "timed_out",
	KindWriteZero:               "write_zero",
	KindStorageFull:             "storage_full",
	KindNotSeekable:             "not_seekable",
	KindFilesystemQuotaExceeded: "filesystem_quota_exceeded",
	KindFileTooLarge:            "file_too_large",
	KindResourceBusy:            "resource_busy",
	KindExecutableFileBusy:      "executable_file_busy",
	KindDeadlock:                "deadlock",
	KindCrossesDevices:          "crosses_devices",
	KindTooManyLinks:            "too_many_links",
	KindInvalidFilename:         "invalid_filename",
	KindArgumentListTooLong:     "argument_list_too_long",
	KindInterrupted:             "interrupted",
	KindUnsupported:             "unsupported",
	KindUnexpectedEOF:           "unexpected_eof",
	KindOutOfMemory:             "out_of_memory",
	KindOther:                   "other",
	KindUncategorized:           "uncategorized",
	KindHandleNull:              "handle_null",
	KindCharConversion:          "char_conversion",
	KindHTTPTimeout:             "http_timeout",
	KindHTTPBuilder:             "http_builder",
	KindHTTPRequest:             "http_request",
	KindHTTPRedirect:            "http_redirect",
	KindHTTPStatus:              "http_status",
	KindHTTPBody:                "http_body",
	KindHTTPDecode:              "http_decode",
	KindHTTPUpgrade:             "http_upgrade",
	KindHandleInvalid:           "handle_invalid",
	KindBodyConsumed:            "body_consumed",
	KindPanic:                   "panic",
}

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	if k >= 0 && k < kindCount {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Valid reports whether k is a member of the taxonomy.
func (k Kind) Valid() bool {
	return k >= 0 && k < kindCount
}

// IsTransport reports whether k is a connection-level failure.
func (k Kind) IsTransport() bool {
	switch k {
	case KindConnectionRefused, KindConnectionReset, KindConnectionAborted,
		KindNotConnected, KindAddrInUse, KindAddrNotAvailable, KindBrokenPipe,
		KindHostUnreachable, KindNetworkUnreachable, KindNetworkDown:
		return true
	}
	return false
}
