// Package ffi implements the handle based call surface shared by the C and
// WASM bindings.
//
// Every object crossing the boundary lives in a resource table and is
// referred to by an opaque Handle. Calls never return Go errors: a failure is
// classified, stored in a last-error channel and signalled by a null handle,
// false, -1 or an empty buffer. Callers fetch it with TakeLastError.
//
// Configuration calls consume their handle and return a new one:
//
//	cb := b.NewClientBuilder()
//	cb = b.ClientBuilderTimeout(cb, &ms)
//	c := b.ClientBuilderBuild(cb)
//
// When a call rejects its arguments the handle it was given stays valid, so
// the caller can retry or destroy it. Handles of a consumed value become
// stale and are reported as HandleInvalid.
//
// Text arguments are *string; nil stands for a null pointer.
package ffi
