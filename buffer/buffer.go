// Package buffer implements the owned byte sequence handed to foreign callers.
//
// Every data producing boundary call returns one Buffer. The caller reads its
// length and content pointer and frees it exactly once. Memory comes from an
// Allocator so that C callers can receive memory the Go collector never moves
// or frees.
package buffer

import (
	"strings"
	"unicode/utf8"
	"unsafe"

	"github.com/wippyai/crabhttp/errors"
)

// Allocator provides the memory backing buffers.
type Allocator interface {
	// Alloc returns a slice of exactly n bytes, or nil when memory is
	// exhausted.
	Alloc(n int) []byte
	// Free releases a slice returned by Alloc.
	Free(b []byte)
}

// GoAllocator allocates from the Go heap. Free is a no-op.
type GoAllocator struct{}

func (GoAllocator) Alloc(n int) []byte { return make([]byte, n) }
func (GoAllocator) Free([]byte)        {}

// Buffer is an owned byte sequence. Text buffers hold valid UTF-8.
type Buffer struct {
	alloc Allocator
	data  []byte
	text  bool
}

// New copies p into a buffer allocated from a. It fails with
// KindOutOfMemory when the allocator cannot provide the memory.
func New(a Allocator, p []byte) (*Buffer, error) {
	if a == nil {
		a = GoAllocator{}
	}
	var data []byte
	if len(p) > 0 {
		data = a.Alloc(len(p))
		if len(data) != len(p) {
			return nil, errors.New(errors.PhaseBoundary, errors.KindOutOfMemory).
				Detail("cannot allocate %d bytes", len(p)).
				Build()
		}
		copy(data, p)
	}
	return &Buffer{alloc: a, data: data}, nil
}

// NewText copies s into a text buffer. Invalid UTF-8 is replaced with U+FFFD
// so the text flag always holds.
func NewText(a Allocator, s string) (*Buffer, error) {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "\uFFFD")
	}
	b, err := New(a, []byte(s))
	if err != nil {
		return nil, err
	}
	b.text = true
	return b, nil
}

// Len returns the byte length.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.data)
}

// Bytes returns the content. The slice stays valid until Drop.
func (b *Buffer) Bytes() []byte {
	if b == nil {
		return nil
	}
	return b.data
}

// String returns a copy of the content as a string.
func (b *Buffer) String() string {
	return string(b.Bytes())
}

// IsText reports whether the content is guaranteed UTF-8 text.
func (b *Buffer) IsText() bool {
	return b != nil && b.text
}

// Pointer returns the address of the first byte, or nil when empty.
func (b *Buffer) Pointer() unsafe.Pointer {
	if b.Len() == 0 {
		return nil
	}
	return unsafe.Pointer(&b.data[0])
}

// Drop releases the content. It is safe to call more than once.
func (b *Buffer) Drop() {
	if b == nil || b.data == nil {
		return
	}
	b.alloc.Free(b.data)
	b.data = nil
}
