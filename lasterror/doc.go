// Package lasterror holds the most recent failure for callers that cannot
// receive Go errors.
//
// A failing boundary call classifies its error and stores it in a Channel,
// then returns a null or sentinel value. The caller retrieves the record with
// Take, which also clears it. Successful calls never clear a record.
//
// ThreadLocal keeps one record per OS thread and suits C callers, whose calls
// run locked to the calling thread. Slot keeps one record for everyone and
// suits a single WebAssembly instance.
package lasterror
