package ffi

import (
	"unsafe"

	"github.com/wippyai/crabhttp/buffer"
	"github.com/wippyai/crabhttp/resource"
)

// Buffer accessors never record errors: a null or stale handle yields the
// zero value.

func (b *Boundary) bufferOf(h Handle) *buffer.Buffer {
	if h == 0 {
		return nil
	}
	buf, err := resource.Lookup[*buffer.Buffer](b.table, h, resource.TypeBuffer)
	if err != nil {
		return nil
	}
	return buf
}

// BufferLen returns the byte length of a buffer.
func (b *Boundary) BufferLen(h Handle) uint64 {
	return uint64(b.bufferOf(h).Len())
}

// BufferContent returns the address of the first byte, valid until the
// buffer is destroyed.
func (b *Boundary) BufferContent(h Handle) unsafe.Pointer {
	return b.bufferOf(h).Pointer()
}

// BufferIsText reports whether the buffer holds UTF-8 text.
func (b *Boundary) BufferIsText(h Handle) bool {
	return b.bufferOf(h).IsText()
}

// BufferBytes returns the content, valid until the buffer is destroyed.
func (b *Boundary) BufferBytes(h Handle) []byte {
	return b.bufferOf(h).Bytes()
}

// BufferDestroy frees a buffer.
func (b *Boundary) BufferDestroy(h Handle) {
	b.destroy("buffer_destroy", resource.TypeBuffer, h)
}
