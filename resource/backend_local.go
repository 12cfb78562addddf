package resource

import (
	"errors"
	"sync"
)

var (
	ErrClosed    = errors.New("resource table closed")
	ErrNull      = errors.New("null handle")
	ErrStale     = errors.New("stale handle")
	ErrWrongType = errors.New("handle refers to a different resource type")
	ErrBusy      = errors.New("resource has outstanding borrows")
)

// LocalBackend is an in-memory, generation-indexed slot store with borrow
// tracking. All methods are safe for concurrent use.
type LocalBackend struct {
	entries  []entry
	freeList []uint32
	mu       sync.RWMutex
	live     int
	closed   bool
}

type entry struct {
	value   any
	typeID  TypeID
	gen     uint32
	borrows uint32
	live    bool
	// pending marks an entry dropped while borrowed; it is released when the
	// last borrow returns.
	pending bool
}

// NewLocalBackend creates a new in-memory backend.
func NewLocalBackend() *LocalBackend {
	return &LocalBackend{
		entries:  make([]entry, 0, 64),
		freeList: make([]uint32, 0, 16),
	}
}

// Create stores a value and returns a handle.
func (b *LocalBackend) Create(typeID TypeID, value any) (Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrClosed
	}

	var idx uint32
	if n := len(b.freeList); n > 0 {
		idx = b.freeList[n-1]
		b.freeList = b.freeList[:n-1]
	} else {
		b.entries = append(b.entries, entry{})
		idx = uint32(len(b.entries) - 1)
	}

	e := &b.entries[idx]
	e.value = value
	e.typeID = typeID
	e.borrows = 0
	e.live = true
	e.pending = false
	b.live++

	return makeHandle(idx, e.gen), nil
}

// locate resolves h to its entry. The caller must hold b.mu.
func (b *LocalBackend) locate(h Handle, typeID TypeID) (*entry, error) {
	if h == 0 {
		return nil, ErrNull
	}
	if b.closed {
		return nil, ErrClosed
	}
	idx := h.slot()
	if int(idx) >= len(b.entries) {
		return nil, ErrStale
	}
	e := &b.entries[idx]
	if !e.live || e.gen != h.generation() {
		return nil, ErrStale
	}
	if typeID != TypeInvalid && e.typeID != typeID {
		return nil, ErrWrongType
	}
	return e, nil
}

// Get retrieves a value by handle. A typeID of TypeInvalid matches any type.
func (b *LocalBackend) Get(h Handle, typeID TypeID) (any, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e, err := b.locate(h, typeID)
	if err != nil {
		return nil, err
	}
	return e.value, nil
}

// TypeOf returns the type of a live handle.
func (b *LocalBackend) TypeOf(h Handle) (TypeID, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e, err := b.locate(h, TypeInvalid)
	if err != nil {
		return TypeInvalid, false
	}
	return e.typeID, true
}

// Borrow increments the borrow count and returns the value.
func (b *LocalBackend) Borrow(h Handle, typeID TypeID) (any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, err := b.locate(h, typeID)
	if err != nil {
		return nil, err
	}
	e.borrows++
	return e.value, nil
}

// ReturnBorrow decrements the borrow count. When the entry was dropped while
// borrowed and this was the last borrow, the value is returned with
// released=true and the slot is freed.
func (b *LocalBackend) ReturnBorrow(h Handle) (value any, released bool, err error) {
	if h == 0 {
		return nil, false, ErrNull
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	idx := h.slot()
	if int(idx) >= len(b.entries) {
		return nil, false, ErrStale
	}
	e := &b.entries[idx]
	if e.gen != h.generation() || e.borrows == 0 || (!e.live && !e.pending) {
		return nil, false, ErrStale
	}

	e.borrows--
	if e.borrows == 0 && e.pending {
		return b.free(idx), true, nil
	}
	return e.value, false, nil
}

// Take removes a value without running its destructor. The handle becomes
// stale. Borrowed entries cannot be taken.
func (b *LocalBackend) Take(h Handle, typeID TypeID) (any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, err := b.locate(h, typeID)
	if err != nil {
		return nil, err
	}
	if e.borrows > 0 {
		return nil, ErrBusy
	}
	return b.free(h.slot()), nil
}

// Replace stores value in the slot of h under a new generation and returns
// the new handle. The old handle becomes stale. Borrowed entries cannot be
// replaced. The previous value is not dropped: the new value is expected to
// own whatever it held.
func (b *LocalBackend) Replace(h Handle, typeID TypeID, value any) (Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, err := b.locate(h, typeID)
	if err != nil {
		return 0, err
	}
	if e.borrows > 0 {
		return 0, ErrBusy
	}

	e.value = value
	e.gen++
	return makeHandle(h.slot(), e.gen), nil
}

// Drop invalidates h. If the entry has no borrows the value is returned with
// released=true; otherwise release is deferred until the last borrow returns.
func (b *LocalBackend) Drop(h Handle, typeID TypeID) (value any, released bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, err := b.locate(h, typeID)
	if err != nil {
		return nil, false, err
	}
	if e.borrows > 0 {
		e.live = false
		e.pending = true
		b.live--
		return nil, false, nil
	}
	return b.free(h.slot()), true, nil
}

// free releases slot idx and bumps its generation. The caller must hold b.mu.
func (b *LocalBackend) free(idx uint32) any {
	e := &b.entries[idx]
	value := e.value
	if e.live {
		b.live--
	}
	e.value = nil
	e.live = false
	e.pending = false
	e.borrows = 0
	e.gen++
	b.freeList = append(b.freeList, idx)
	return value
}

// Close releases all entries and returns the values that were live or
// pending. Further operations fail with ErrClosed.
func (b *LocalBackend) Close() []any {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	var values []any
	for i := range b.entries {
		if b.entries[i].live || b.entries[i].pending {
			values = append(values, b.entries[i].value)
		}
	}
	b.entries = nil
	b.freeList = nil
	b.live = 0
	return values
}

// Len returns the number of live handles.
func (b *LocalBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.live
}

// Each iterates over all live entries.
func (b *LocalBackend) Each(fn func(Handle, TypeID, any) bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for i, e := range b.entries {
		if e.live {
			if !fn(makeHandle(uint32(i), e.gen), e.typeID, e.value) {
				break
			}
		}
	}
}
