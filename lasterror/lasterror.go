package lasterror

import (
	stderrors "errors"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/crabhttp/errors"
)

// Record is the classified failure of the most recent failing call.
type Record struct {
	Message string
	Kind    errors.Kind
	Code    int32
}

// NewRecord classifies err into a Record.
func NewRecord(err error) *Record {
	return &Record{
		Kind:    errors.Classify(err),
		Code:    errors.CodeOf(err),
		Message: err.Error(),
	}
}

// Channel stores at most one Record per key. A new failure overwrites the
// previous one; only Take clears it.
type Channel interface {
	// Set classifies err and stores it. A nil err is ignored.
	Set(err error)
	// Take returns and clears the stored record, or nil when empty.
	Take() *Record
}

// Slot is a Channel with a single record shared by all callers.
type Slot struct {
	mu  sync.Mutex
	rec *Record
}

// NewSlot creates an empty slot.
func NewSlot() *Slot {
	return &Slot{}
}

func (s *Slot) Set(err error) {
	if err == nil {
		return
	}
	rec := NewRecord(err)
	report(rec, err)

	s.mu.Lock()
	s.rec = rec
	s.mu.Unlock()
}

func (s *Slot) Take() *Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.rec
	s.rec = nil
	return rec
}

// ThreadLocal is a Channel keyed by the calling OS thread. Callers must be
// locked to their thread, as cgo callbacks are, for records to be found.
//
// A record lives until its thread takes it. A thread that fails and exits
// without calling Take leaves one record behind.
type ThreadLocal struct {
	key  func() uint64
	recs sync.Map // uint64 -> *Record
}

// NewThreadLocal creates an empty channel keyed by CurrentThread.
func NewThreadLocal() *ThreadLocal {
	return NewThreadLocalFunc(CurrentThread)
}

// NewThreadLocalFunc creates an empty channel keyed by key, which must return
// a distinct value for every live OS thread.
func NewThreadLocalFunc(key func() uint64) *ThreadLocal {
	return &ThreadLocal{key: key}
}

func (c *ThreadLocal) Set(err error) {
	if err == nil {
		return
	}
	rec := NewRecord(err)
	report(rec, err)
	c.recs.Store(c.key(), rec)
}

func (c *ThreadLocal) Take() *Record {
	v, ok := c.recs.LoadAndDelete(c.key())
	if !ok {
		return nil
	}
	return v.(*Record)
}

// report logs rec and every cause below the top-level error.
func report(rec *Record, err error) {
	l := Logger()
	l.Error(rec.Message,
		zap.Stringer("kind", rec.Kind),
		zap.Int32("code", rec.Code))

	for cause := stderrors.Unwrap(err); cause != nil; cause = stderrors.Unwrap(cause) {
		l.Warn("caused by", zap.String("cause", cause.Error()))
	}
}
