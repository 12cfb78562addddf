// Package resource provides opaque handle management for host values handed
// across a foreign boundary.
//
// Handles are 64-bit integers. The low half indexes a slot, the high half is
// the slot's generation, which is bumped every time the slot is consumed,
// replaced or freed. A handle that outlived its value therefore resolves to
// ErrStale instead of to whatever now lives in the slot. Handle 0 is null.
//
// # Lifecycle
//
// Three kinds of calls touch a handle:
//
//	borrow  - Borrow/ReturnBorrow or Get; the handle stays valid
//	consume - Take or Replace; the handle is invalidated
//	destroy - Drop; the handle is invalidated and the value released
//
// # Handle Table
//
//	table := resource.NewTable()
//
//	h := table.Insert(resource.TypeClientBuilder, builder)
//
//	// Consume h and receive a fresh handle for the updated value
//	h, err := table.Replace(h, resource.TypeClientBuilder, next)
//
//	// Typed access
//	b, err := resource.Lookup[*client.ClientBuilder](table, h, resource.TypeClientBuilder)
//
// A Drop racing an outstanding borrow invalidates the handle immediately and
// runs the value's Dropper once the last borrow returns. Consuming a
// borrowed handle fails with ErrBusy.
//
// # Observers
//
// Observers receive every lifecycle event. Metrics is an Observer that exports
// live handle gauges and event counters to Prometheus.
package resource
