// Package wasmhost exposes the HTTP client boundary to WebAssembly guests as
// a wazero host module named "crabhttp".
//
// Guests import functions such as new_client_builder or response_text from
// the module. Handles are i64 values. Text arguments are a (pointer, length)
// pair into guest memory where a zero pointer means null. Data producing calls
// return a buffer handle whose content the guest copies into its own memory
// with buffer_copy before releasing it with buffer_destroy.
//
// Each Host has its own handle table and last-error slot:
//
//	r := wazero.NewRuntime(ctx)
//	h := wasmhost.New()
//	defer h.Close()
//	if _, err := h.Instantiate(ctx, r); err != nil {
//		return err
//	}
//	guest, err := r.Instantiate(ctx, wasmBytes)
package wasmhost
