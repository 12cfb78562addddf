package wasmhost

import (
	"context"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/crabhttp/ffi"
)

type hostFunc struct {
	name    string
	fn      api.GoModuleFunc
	params  []api.ValueType
	results []api.ValueType
}

const (
	i32 = api.ValueTypeI32
	i64 = api.ValueTypeI64
	f64 = api.ValueTypeF64
)

func types(vs ...api.ValueType) []api.ValueType { return vs }

// registry collects host functions. Each adapter lowers one Go call shape to
// its WASM signature: handles are i64, text is a (ptr, len) pair of i32 and
// optional integers use NoValue for absent. Guest memory is read only after
// the leading handle is known to be non-null, so a null handle is reported as
// such whatever the other arguments hold.
type registry struct {
	h     *Host
	funcs []hostFunc
}

func (r *registry) def(name string, params, results []api.ValueType, fn api.GoModuleFunc) {
	r.funcs = append(r.funcs, hostFunc{name: name, fn: fn, params: params, results: results})
}

func (r *registry) ctor(name string, fn func() ffi.Handle) {
	r.def(name, nil, types(i64), func(_ context.Context, _ api.Module, stack []uint64) {
		stack[0] = uint64(fn())
	})
}

func (r *registry) destroy(name string, fn func(ffi.Handle)) {
	r.def(name, types(i64), nil, func(_ context.Context, _ api.Module, stack []uint64) {
		fn(ffi.Handle(stack[0]))
	})
}

func (r *registry) handle(name string, fn func(ffi.Handle) ffi.Handle) {
	r.def(name, types(i64), types(i64), func(_ context.Context, _ api.Module, stack []uint64) {
		stack[0] = uint64(fn(ffi.Handle(stack[0])))
	})
}

func (r *registry) handleHandle(name string, fn func(ffi.Handle, ffi.Handle) ffi.Handle) {
	r.def(name, types(i64, i64), types(i64), func(_ context.Context, _ api.Module, stack []uint64) {
		stack[0] = uint64(fn(ffi.Handle(stack[0]), ffi.Handle(stack[1])))
	})
}

func (r *registry) handleBool(name string, fn func(ffi.Handle, bool) ffi.Handle) {
	r.def(name, types(i64, i32), types(i64), func(_ context.Context, _ api.Module, stack []uint64) {
		stack[0] = uint64(fn(ffi.Handle(stack[0]), uint32(stack[1]) != 0))
	})
}

func (r *registry) handleU64(name string, fn func(ffi.Handle, uint64) ffi.Handle) {
	r.def(name, types(i64, i64), types(i64), func(_ context.Context, _ api.Module, stack []uint64) {
		stack[0] = uint64(fn(ffi.Handle(stack[0]), stack[1]))
	})
}

func (r *registry) handleOptU64(name string, fn func(ffi.Handle, *uint64) ffi.Handle) {
	r.def(name, types(i64, i64), types(i64), func(_ context.Context, _ api.Module, stack []uint64) {
		stack[0] = uint64(fn(ffi.Handle(stack[0]), optU64(stack[1])))
	})
}

func (r *registry) handleOptU32(name string, fn func(ffi.Handle, *uint32) ffi.Handle) {
	r.def(name, types(i64, i64), types(i64), func(_ context.Context, _ api.Module, stack []uint64) {
		stack[0] = uint64(fn(ffi.Handle(stack[0]), optU32(stack[1])))
	})
}

func (r *registry) handleText(name string, fn func(ffi.Handle, *string) ffi.Handle) {
	r.def(name, types(i64, i32, i32), types(i64), func(_ context.Context, mod api.Module, stack []uint64) {
		if stack[0] == 0 {
			stack[0] = uint64(fn(0, nil))
			return
		}
		s, ok := r.h.text(name, mod, stack[1], stack[2])
		if !ok {
			stack[0] = 0
			return
		}
		stack[0] = uint64(fn(ffi.Handle(stack[0]), s))
	})
}

func (r *registry) handleText2(name string, fn func(ffi.Handle, *string, *string) ffi.Handle) {
	r.def(name, types(i64, i32, i32, i32, i32), types(i64), func(_ context.Context, mod api.Module, stack []uint64) {
		if stack[0] == 0 {
			stack[0] = uint64(fn(0, nil, nil))
			return
		}
		a, ok := r.h.text(name, mod, stack[1], stack[2])
		if !ok {
			stack[0] = 0
			return
		}
		b, ok := r.h.text(name, mod, stack[3], stack[4])
		if !ok {
			stack[0] = 0
			return
		}
		stack[0] = uint64(fn(ffi.Handle(stack[0]), a, b))
	})
}

func (r *registry) handlePairs(name string, fn func(ffi.Handle, []ffi.Pair) ffi.Handle) {
	r.def(name, types(i64, i32, i32), types(i64), func(_ context.Context, mod api.Module, stack []uint64) {
		if stack[0] == 0 {
			stack[0] = uint64(fn(0, nil))
			return
		}
		pairs, ok := r.h.pairs(name, mod, stack[1], stack[2])
		if !ok {
			stack[0] = 0
			return
		}
		stack[0] = uint64(fn(ffi.Handle(stack[0]), pairs))
	})
}

func (r *registry) fromText(name string, fn func(*string) ffi.Handle) {
	r.def(name, types(i32, i32), types(i64), func(_ context.Context, mod api.Module, stack []uint64) {
		s, ok := r.h.text(name, mod, stack[0], stack[1])
		if !ok {
			stack[0] = 0
			return
		}
		stack[0] = uint64(fn(s))
	})
}

func (r *registry) int32Of(name string, fn func(ffi.Handle) int32) {
	r.def(name, types(i64), types(i32), func(_ context.Context, _ api.Module, stack []uint64) {
		stack[0] = api.EncodeI32(fn(ffi.Handle(stack[0])))
	})
}

func (r *registry) int64Of(name string, fn func(ffi.Handle) int64) {
	r.def(name, types(i64), types(i64), func(_ context.Context, _ api.Module, stack []uint64) {
		stack[0] = api.EncodeI64(fn(ffi.Handle(stack[0])))
	})
}

func (r *registry) boolOf(name string, fn func(ffi.Handle) bool) {
	r.def(name, types(i64), types(i32), func(_ context.Context, _ api.Module, stack []uint64) {
		stack[0] = encodeBool(fn(ffi.Handle(stack[0])))
	})
}

func (r *registry) boolText(name string, fn func(ffi.Handle, *string) bool) {
	r.def(name, types(i64, i32, i32), types(i32), func(_ context.Context, mod api.Module, stack []uint64) {
		if stack[0] == 0 {
			stack[0] = encodeBool(fn(0, nil))
			return
		}
		s, ok := r.h.text(name, mod, stack[1], stack[2])
		if !ok {
			stack[0] = 0
			return
		}
		stack[0] = encodeBool(fn(ffi.Handle(stack[0]), s))
	})
}

func (r *registry) boolText2(name string, fn func(ffi.Handle, *string, *string) bool) {
	r.def(name, types(i64, i32, i32, i32, i32), types(i32), func(_ context.Context, mod api.Module, stack []uint64) {
		if stack[0] == 0 {
			stack[0] = encodeBool(fn(0, nil, nil))
			return
		}
		a, ok := r.h.text(name, mod, stack[1], stack[2])
		if !ok {
			stack[0] = 0
			return
		}
		b, ok := r.h.text(name, mod, stack[3], stack[4])
		if !ok {
			stack[0] = 0
			return
		}
		stack[0] = encodeBool(fn(ffi.Handle(stack[0]), a, b))
	})
}

func (r *registry) int32Text(name string, fn func(ffi.Handle, *string) int32) {
	r.def(name, types(i64, i32, i32), types(i32), func(_ context.Context, mod api.Module, stack []uint64) {
		if stack[0] == 0 {
			stack[0] = api.EncodeI32(fn(0, nil))
			return
		}
		s, ok := r.h.text(name, mod, stack[1], stack[2])
		if !ok {
			stack[0] = api.EncodeI32(-1)
			return
		}
		stack[0] = api.EncodeI32(fn(ffi.Handle(stack[0]), s))
	})
}
