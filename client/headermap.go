package client

import (
	"net/http"
	"slices"
	"sort"
	"strings"

	"golang.org/x/net/http/httpguts"

	"github.com/wippyai/crabhttp/errors"
)

// HeaderMap is an ordered multimap of header names to values. Names are
// case-insensitive and reported in lower case. Keys keep the order in which
// they were first inserted and values keep their insertion order per key.
type HeaderMap struct {
	keys []string
	vals map[string][]string
}

// NewHeaderMap creates an empty map.
func NewHeaderMap() *HeaderMap {
	return &HeaderMap{vals: make(map[string][]string)}
}

// HeaderMapFrom converts an http.Header. Keys are sorted since http.Header
// carries no order.
func HeaderMapFrom(h http.Header) *HeaderMap {
	m := NewHeaderMap()
	names := make([]string, 0, len(h))
	for k := range h {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		for _, v := range h[k] {
			m.add(strings.ToLower(k), v)
		}
	}
	return m
}

// ValidateHeader reports whether name is a valid field name and value a
// valid field value.
func ValidateHeader(name, value string) error {
	if !httpguts.ValidHeaderFieldName(name) {
		return errors.New(errors.PhaseHeader, errors.KindInvalidInput).
			Detail("invalid header name %q", name).
			Build()
	}
	if !httpguts.ValidHeaderFieldValue(value) {
		return errors.New(errors.PhaseHeader, errors.KindInvalidInput).
			Detail("invalid value for header %q", name).
			Build()
	}
	return nil
}

// Insert replaces every value under name with value.
func (m *HeaderMap) Insert(name, value string) error {
	if err := ValidateHeader(name, value); err != nil {
		return err
	}
	k := strings.ToLower(name)
	if _, ok := m.vals[k]; !ok {
		m.keys = append(m.keys, k)
	}
	m.vals[k] = []string{value}
	return nil
}

// Append adds value under name, keeping existing values.
func (m *HeaderMap) Append(name, value string) error {
	if err := ValidateHeader(name, value); err != nil {
		return err
	}
	m.add(strings.ToLower(name), value)
	return nil
}

func (m *HeaderMap) add(k, value string) {
	if _, ok := m.vals[k]; !ok {
		m.keys = append(m.keys, k)
	}
	m.vals[k] = append(m.vals[k], value)
}

// Remove deletes every value under name and reports whether any existed.
func (m *HeaderMap) Remove(name string) bool {
	k := strings.ToLower(name)
	if _, ok := m.vals[k]; !ok {
		return false
	}
	delete(m.vals, k)
	m.keys = slices.DeleteFunc(m.keys, func(s string) bool { return s == k })
	return true
}

// Get returns the first value under name.
func (m *HeaderMap) Get(name string) (string, bool) {
	vs := m.vals[strings.ToLower(name)]
	if len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// GetAll returns every value under name in insertion order.
func (m *HeaderMap) GetAll(name string) []string {
	return slices.Clone(m.vals[strings.ToLower(name)])
}

// ContainsKey reports whether name has at least one value.
func (m *HeaderMap) ContainsKey(name string) bool {
	_, ok := m.vals[strings.ToLower(name)]
	return ok
}

// Len returns the number of values, counting each value of a repeated key.
func (m *HeaderMap) Len() int {
	n := 0
	for _, vs := range m.vals {
		n += len(vs)
	}
	return n
}

// KeysLen returns the number of distinct keys.
func (m *HeaderMap) KeysLen() int {
	return len(m.keys)
}

// Keys returns the distinct keys in insertion order.
func (m *HeaderMap) Keys() []string {
	return slices.Clone(m.keys)
}

// Values returns every value, grouped by key in key order.
func (m *HeaderMap) Values() []string {
	out := make([]string, 0, m.Len())
	for _, k := range m.keys {
		out = append(out, m.vals[k]...)
	}
	return out
}

// Clear removes every entry and keeps the allocated capacity.
func (m *HeaderMap) Clear() {
	m.keys = m.keys[:0]
	clear(m.vals)
}

// Capacity returns how many keys the map holds before growing.
func (m *HeaderMap) Capacity() int {
	return cap(m.keys)
}

// Reserve grows the map to hold at least n more keys.
func (m *HeaderMap) Reserve(n int) {
	if n > 0 {
		m.keys = slices.Grow(m.keys, n)
	}
}

// Clone returns a deep copy.
func (m *HeaderMap) Clone() *HeaderMap {
	c := &HeaderMap{
		keys: slices.Clone(m.keys),
		vals: make(map[string][]string, len(m.vals)),
	}
	for k, vs := range m.vals {
		c.vals[k] = slices.Clone(vs)
	}
	return c
}

// Replace sets every key of src to exactly src's values, keeping other keys.
func (m *HeaderMap) Replace(src *HeaderMap) {
	for _, k := range src.keys {
		if _, ok := m.vals[k]; !ok {
			m.keys = append(m.keys, k)
		}
		m.vals[k] = slices.Clone(src.vals[k])
	}
}

// Header converts the map into an http.Header.
func (m *HeaderMap) Header() http.Header {
	h := make(http.Header, len(m.keys))
	for _, k := range m.keys {
		for _, v := range m.vals[k] {
			h.Add(k, v)
		}
	}
	return h
}
