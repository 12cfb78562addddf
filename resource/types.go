package resource

import "fmt"

// Handle is an opaque reference to a value in a Table.
// The low 32 bits hold the slot index plus one, the high 32 bits the slot
// generation. Handle 0 is reserved and always null.
type Handle uint64

func makeHandle(idx, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(idx+1))
}

// slot returns the slot index encoded in h. Only meaningful when h != 0.
func (h Handle) slot() uint32 {
	return uint32(h) - 1
}

func (h Handle) generation() uint32 {
	return uint32(h >> 32)
}

// TypeID identifies the kind of value a handle refers to.
type TypeID uint32

const (
	TypeInvalid TypeID = iota
	TypeClientBuilder
	TypeClient
	TypeRequestBuilder
	TypeRequest
	TypeResponse
	TypeHeaderMap
	TypeProxy
	TypeBuffer
	TypeError
	typeCount
)

var typeNames = [...]string{
	TypeInvalid:        "invalid",
	TypeClientBuilder:  "client_builder",
	TypeClient:         "client",
	TypeRequestBuilder: "request_builder",
	TypeRequest:        "request",
	TypeResponse:       "response",
	TypeHeaderMap:      "header_map",
	TypeProxy:          "proxy",
	TypeBuffer:         "buffer",
	TypeError:          "error",
}

func (t TypeID) String() string {
	if t < typeCount {
		return typeNames[t]
	}
	return fmt.Sprintf("type(%d)", uint32(t))
}

// EventType identifies a resource lifecycle notification.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDropped
	EventBorrowed
	EventBorrowReturned
	EventTaken
	EventReplaced
)

var eventNames = [...]string{
	EventCreated:        "created",
	EventDropped:        "dropped",
	EventBorrowed:       "borrowed",
	EventBorrowReturned: "borrow_returned",
	EventTaken:          "taken",
	EventReplaced:       "replaced",
}

func (e EventType) String() string {
	if int(e) < len(eventNames) {
		return eventNames[e]
	}
	return "unknown"
}

// Event represents a resource lifecycle event.
// For EventReplaced, Handle is the new handle and Previous the invalidated one.
type Event struct {
	Value    any
	Handle   Handle
	Previous Handle
	TypeID   TypeID
	Type     EventType
}

// Observer receives notifications about resource lifecycle events.
type Observer interface {
	OnResourceEvent(Event)
}

// Dropper is optionally implemented by resource values that need cleanup.
// Drop is called once, when the last reference to the value is released by
// the table. Values removed with Take are not dropped.
type Dropper interface {
	Drop()
}
