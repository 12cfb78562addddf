package wasmhost

import (
	"context"
	"encoding/binary"
	"math"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/crabhttp/errors"
	"github.com/wippyai/crabhttp/ffi"
	"github.com/wippyai/crabhttp/lasterror"
)

// ModuleName is the import module guests link against.
const ModuleName = "crabhttp"

// NoValue passed for an optional integer argument stands for "absent".
const NoValue = math.MaxUint64

// Host exposes one Boundary to WASM guests. Each Host keeps its own handle
// table and last-error slot, so guests of different hosts never observe each
// other's state.
type Host struct {
	b    *ffi.Boundary
	errs *lasterror.Slot
}

// New creates a host. Options configure the underlying boundary; the error
// channel is always the host's own slot.
func New(opts ...ffi.Option) *Host {
	errs := lasterror.NewSlot()
	opts = append(opts, ffi.WithChannel(errs))
	return &Host{b: ffi.New(opts...), errs: errs}
}

// Boundary returns the boundary behind the host functions.
func (h *Host) Boundary() *ffi.Boundary { return h.b }

// Instantiate registers the host module in r.
func (h *Host) Instantiate(ctx context.Context, r wazero.Runtime) (api.Module, error) {
	builder := r.NewHostModuleBuilder(ModuleName)
	funcs := h.functions()
	for _, f := range funcs {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(f.fn, f.params, f.results).
			Export(f.name)
	}
	mod, err := builder.Instantiate(ctx)
	if err != nil {
		return nil, err
	}
	Logger().Debug("host module instantiated",
		zap.String("module", ModuleName),
		zap.Int("functions", len(funcs)))
	return mod, nil
}

// Close destroys every handle the guests still own.
func (h *Host) Close() error { return h.b.Close() }

func (h *Host) memoryFault(op string, ptr, n uint64) {
	h.errs.Set(errors.New(errors.PhaseWasm, errors.KindInvalidInput).
		Op(op).
		Detail("guest memory range [%d, +%d) out of bounds", ptr, n).
		Build())
}

// read returns a view of guest memory, valid until the guest runs again.
func (h *Host) read(op string, mod api.Module, ptr, n uint64) ([]byte, bool) {
	mem := mod.Memory()
	if mem == nil || ptr > math.MaxUint32 || n > math.MaxUint32 {
		h.memoryFault(op, ptr, n)
		return nil, false
	}
	data, ok := mem.Read(uint32(ptr), uint32(n))
	if !ok {
		h.memoryFault(op, ptr, n)
		return nil, false
	}
	return data, true
}

func (h *Host) write(op string, mod api.Module, ptr uint64, data []byte) bool {
	mem := mod.Memory()
	if mem == nil || ptr > math.MaxUint32 || !mem.Write(uint32(ptr), data) {
		h.memoryFault(op, ptr, uint64(len(data)))
		return false
	}
	return true
}

// text reads a (ptr, len) string. A zero pointer is a null argument.
func (h *Host) text(op string, mod api.Module, ptr, n uint64) (*string, bool) {
	if uint32(ptr) == 0 {
		return nil, true
	}
	data, ok := h.read(op, mod, uint64(uint32(ptr)), uint64(uint32(n)))
	if !ok {
		return nil, false
	}
	s := string(data)
	return &s, true
}

// Pairs are laid out as consecutive records of four little endian u32:
// key pointer, key length, value pointer, value length.
const pairSize = 16

func (h *Host) pairs(op string, mod api.Module, ptr, count uint64) ([]ffi.Pair, bool) {
	count = uint64(uint32(count))
	if count == 0 {
		return nil, true
	}
	raw, ok := h.read(op, mod, uint64(uint32(ptr)), count*pairSize)
	if !ok {
		return nil, false
	}
	raw = append([]byte(nil), raw...)
	out := make([]ffi.Pair, 0, count)
	for i := uint64(0); i < count; i++ {
		rec := raw[i*pairSize:]
		k, ok := h.text(op, mod, uint64(binary.LittleEndian.Uint32(rec[0:])), uint64(binary.LittleEndian.Uint32(rec[4:])))
		if !ok {
			return nil, false
		}
		v, ok := h.text(op, mod, uint64(binary.LittleEndian.Uint32(rec[8:])), uint64(binary.LittleEndian.Uint32(rec[12:])))
		if !ok {
			return nil, false
		}
		out = append(out, ffi.Pair{Key: k, Value: v})
	}
	return out, true
}

// texts reads count (pointer, length) records of two little endian u32.
func (h *Host) texts(op string, mod api.Module, ptr, count uint64) ([]*string, bool) {
	count = uint64(uint32(count))
	if count == 0 {
		return nil, true
	}
	raw, ok := h.read(op, mod, uint64(uint32(ptr)), count*8)
	if !ok {
		return nil, false
	}
	raw = append([]byte(nil), raw...)
	out := make([]*string, 0, count)
	for i := uint64(0); i < count; i++ {
		s, ok := h.text(op, mod, uint64(binary.LittleEndian.Uint32(raw[i*8:])), uint64(binary.LittleEndian.Uint32(raw[i*8+4:])))
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func optU64(v uint64) *uint64 {
	if v == NoValue {
		return nil
	}
	return &v
}

func optU32(v uint64) *uint32 {
	if v == NoValue {
		return nil
	}
	n := uint32(min(v, math.MaxUint32))
	return &n
}

func encodeBool(v bool) uint64 {
	if v {
		return 1
	}
	return 0
}
