// Package errors provides the failure taxonomy shared by every boundary of the
// HTTP bridge.
//
// Errors are categorized by Phase (where the error occurred) and Kind (the
// closed, ABI-stable cause enumeration). The Error type carries the boundary
// operation, a numeric sub-code (an HTTP status for status errors) and the
// cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseBuilder, errors.KindInvalidInput).
//		Op("client_builder_min_tls_version").
//		Detail("unknown TLS version %q", v).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.NullHandle("request_builder_send", "request_builder")
//	err := errors.BodyConsumed("response_bytes")
//
// Failures coming from the HTTP engine are mapped with Classify, which first
// trusts the engine's own Category and only then walks the cause chain for an
// I/O level error. All errors implement the standard error interface and
// support errors.Is/As.
package errors
