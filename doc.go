// Package crabhttp is an HTTP client exposed through an opaque handle API
// that non-Go callers can drive over a C ABI or from WebAssembly guests.
//
// # Architecture Overview
//
//	crabhttp/            Root package, documentation only
//	├── client/          Go HTTP client: builders, requests, responses, header maps
//	├── resource/        Generation-checked handle table with borrow counts
//	├── errors/          Failure kinds, phases and classification of Go errors
//	├── lasterror/       Per-thread and single-slot last-error channels
//	├── buffer/          Owned byte sequences handed across the boundary
//	├── ffi/             The handle protocol: every boundary call over a table
//	├── wasmhost/        wazero host module exposing the protocol to guests
//	└── cmd/
//	    ├── libcrabhttp/ C shared library (go build -buildmode=c-shared)
//	    └── crabget/     Command line client built on the handle API
//
// # Handle Protocol
//
// Every object a caller holds is a 64-bit handle; 0 is null. Calls that
// configure a builder consume the handle they receive and return a new one.
// When the call fails the original handle stays valid and owned by the caller.
// Failures are signalled by a null or sentinel return and described by an
// error record the caller takes from the last-error channel:
//
//	b := ffi.New()
//	cb := b.NewClientBuilder()
//	c := b.ClientBuilderBuild(cb)
//	resp := b.RequestBuilderSend(b.ClientGet(c, ffi.Str("https://example.com")))
//	if resp == 0 {
//	    e := b.TakeLastError()
//	    fmt.Println(b.ErrorKind(e), b.ErrorMessageText(e))
//	    b.ErrorDestroy(e)
//	}
//
// Go programs that do not need handles use the client package directly; it
// returns ordinary error values.
package crabhttp
