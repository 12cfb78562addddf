package resource

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Table maps handles to typed values, runs destructors and notifies
// observers about lifecycle events.
type Table struct {
	backend   *LocalBackend
	observers []Observer
	obsMu     sync.RWMutex
}

// NewTable creates a new table with a LocalBackend.
func NewTable() *Table {
	return &Table{
		backend: NewLocalBackend(),
	}
}

// Insert adds a value and returns its handle, or 0 once the table is closed.
func (t *Table) Insert(typeID TypeID, value any) Handle {
	h, err := t.backend.Create(typeID, value)
	if err != nil {
		return 0
	}

	t.notify(Event{
		Type:   EventCreated,
		Handle: h,
		TypeID: typeID,
		Value:  value,
	})

	return h
}

// Get retrieves a value by handle, checking its type.
func (t *Table) Get(h Handle, typeID TypeID) (any, error) {
	return t.backend.Get(h, typeID)
}

// TypeOf returns the type of a live handle.
func (t *Table) TypeOf(h Handle) (TypeID, bool) {
	return t.backend.TypeOf(h)
}

// Borrow pins a value for the duration of a call. Every successful Borrow
// must be paired with ReturnBorrow.
func (t *Table) Borrow(h Handle, typeID TypeID) (any, error) {
	v, err := t.backend.Borrow(h, typeID)
	if err != nil {
		return nil, err
	}

	t.notify(Event{
		Type:   EventBorrowed,
		Handle: h,
		TypeID: typeID,
		Value:  v,
	})

	return v, nil
}

// ReturnBorrow releases a borrow. If the handle was dropped meanwhile and
// this was the last borrow, the value's destructor runs now.
func (t *Table) ReturnBorrow(h Handle) {
	typeID := t.typeOfSlot(h)
	v, released, err := t.backend.ReturnBorrow(h)
	if err != nil {
		Logger().Debug("return of unknown borrow", zap.Uint64("handle", uint64(h)), zap.Error(err))
		return
	}

	t.notify(Event{
		Type:   EventBorrowReturned,
		Handle: h,
		TypeID: typeID,
		Value:  v,
	})

	if released {
		t.release(h, typeID, v)
	}
}

// Take removes a value and transfers its ownership to the caller. The
// destructor does not run.
func (t *Table) Take(h Handle, typeID TypeID) (any, error) {
	v, err := t.backend.Take(h, typeID)
	if err != nil {
		return nil, err
	}

	t.notify(Event{
		Type:   EventTaken,
		Handle: h,
		TypeID: typeID,
		Value:  v,
	})

	return v, nil
}

// Replace swaps the value behind h and returns a new handle for it. h is
// invalidated.
func (t *Table) Replace(h Handle, typeID TypeID, value any) (Handle, error) {
	nh, err := t.backend.Replace(h, typeID, value)
	if err != nil {
		return 0, err
	}

	t.notify(Event{
		Type:     EventReplaced,
		Handle:   nh,
		Previous: h,
		TypeID:   typeID,
		Value:    value,
	})

	return nh, nil
}

// Drop invalidates h and runs the value's destructor, immediately or when
// the last outstanding borrow returns.
func (t *Table) Drop(h Handle, typeID TypeID) error {
	v, released, err := t.backend.Drop(h, typeID)
	if err != nil {
		return err
	}
	if !released {
		Logger().Debug("drop deferred until borrows return",
			zap.Uint64("handle", uint64(h)),
			zap.Stringer("type", typeID))
		return nil
	}
	t.release(h, typeID, v)
	return nil
}

// Subscribe adds an observer for lifecycle events.
func (t *Table) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *Table) Unsubscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

// Len returns the number of live handles.
func (t *Table) Len() int {
	return t.backend.Len()
}

// Clear drops all live handles.
func (t *Table) Clear() {
	type live struct {
		h  Handle
		id TypeID
	}
	// Collect handles first to avoid holding the backend lock during Drop.
	var all []live
	t.backend.Each(func(h Handle, id TypeID, _ any) bool {
		all = append(all, live{h, id})
		return true
	})
	for _, l := range all {
		_ = t.Drop(l.h, l.id)
	}
}

// Close runs every remaining destructor and stops accepting operations.
func (t *Table) Close() error {
	for _, v := range t.backend.Close() {
		runDrop(v)
	}
	return nil
}

func (t *Table) release(h Handle, typeID TypeID, v any) {
	runDrop(v)
	t.notify(Event{
		Type:   EventDropped,
		Handle: h,
		TypeID: typeID,
		Value:  v,
	})
}

// typeOfSlot reads the type of h's slot even when the handle is pending
// release.
func (t *Table) typeOfSlot(h Handle) TypeID {
	b := t.backend
	b.mu.RLock()
	defer b.mu.RUnlock()
	if h == 0 || int(h.slot()) >= len(b.entries) {
		return TypeInvalid
	}
	return b.entries[h.slot()].typeID
}

func runDrop(v any) {
	d, ok := v.(Dropper)
	if !ok {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			Logger().Error("resource destructor panicked", zap.Any("panic", r))
		}
	}()
	d.Drop()
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnResourceEvent(e)
	}
}

// Lookup returns the value behind h as T.
func Lookup[T any](t *Table, h Handle, typeID TypeID) (T, error) {
	var zero T
	v, err := t.Get(h, typeID)
	if err != nil {
		return zero, err
	}
	tv, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s holds %T", ErrWrongType, typeID, v)
	}
	return tv, nil
}

// BorrowAs borrows h and returns its value as T. The borrow is already
// returned when an error is reported.
func BorrowAs[T any](t *Table, h Handle, typeID TypeID) (T, error) {
	var zero T
	v, err := t.Borrow(h, typeID)
	if err != nil {
		return zero, err
	}
	tv, ok := v.(T)
	if !ok {
		t.ReturnBorrow(h)
		return zero, fmt.Errorf("%w: %s holds %T", ErrWrongType, typeID, v)
	}
	return tv, nil
}

// TakeAs removes h from the table and returns its value as T. A value of
// the wrong Go type is left in place.
func TakeAs[T any](t *Table, h Handle, typeID TypeID) (T, error) {
	var zero T
	if _, err := Lookup[T](t, h, typeID); err != nil {
		return zero, err
	}
	v, err := t.Take(h, typeID)
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}
