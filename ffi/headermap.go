package ffi

import (
	"strings"

	"github.com/wippyai/crabhttp/client"
	"github.com/wippyai/crabhttp/resource"
)

const tHeaderMap = resource.TypeHeaderMap

// listSeparator joins multi-valued results into one text buffer.
const listSeparator = ";"

// NewHeaderMap creates an empty header map.
func (b *Boundary) NewHeaderMap() (ret Handle) {
	defer b.guard("new_header_map", func() { ret = 0 })
	return b.table.Insert(tHeaderMap, client.NewHeaderMap())
}

// HeaderMapDestroy releases a header map.
func (b *Boundary) HeaderMapDestroy(h Handle) {
	b.destroy("header_map_destroy", tHeaderMap, h)
}

// withHeaderMap borrows h for the extent of fn. The borrow is returned even
// when fn panics.
func (b *Boundary) withHeaderMap(op string, h Handle, fn func(*client.HeaderMap)) bool {
	m, done, ok := borrow[*client.HeaderMap](b, op, tHeaderMap, h)
	if !ok {
		return false
	}
	defer done()
	fn(m)
	return true
}

// withKey is withHeaderMap for calls taking a header name.
func (b *Boundary) withKey(op string, h Handle, key *string, fn func(*client.HeaderMap, string)) {
	b.withHeaderMap(op, h, func(m *client.HeaderMap) {
		k, err := text(op, "key", key)
		if err != nil {
			b.fail(op, err)
			return
		}
		fn(m, k)
	})
}

func (b *Boundary) setHeader(op string, h Handle, key, value *string,
	set func(*client.HeaderMap, string, string) error,
) (ret bool) {
	defer b.guard(op, func() { ret = false })

	b.withKey(op, h, key, func(m *client.HeaderMap, k string) {
		v, err := text(op, "value", value)
		if err != nil {
			b.fail(op, err)
			return
		}
		if err := set(m, k, v); err != nil {
			b.fail(op, err)
			return
		}
		ret = true
	})
	return ret
}

// HeaderMapInsert replaces every value of key with value.
func (b *Boundary) HeaderMapInsert(h Handle, key, value *string) bool {
	return b.setHeader("header_map_insert", h, key, value, (*client.HeaderMap).Insert)
}

// HeaderMapAppend adds value to key.
func (b *Boundary) HeaderMapAppend(h Handle, key, value *string) bool {
	return b.setHeader("header_map_append", h, key, value, (*client.HeaderMap).Append)
}

// HeaderMapRemove removes key. It returns false when key was absent.
func (b *Boundary) HeaderMapRemove(h Handle, key *string) (ret bool) {
	const op = "header_map_remove"
	defer b.guard(op, func() { ret = false })

	b.withKey(op, h, key, func(m *client.HeaderMap, k string) {
		ret = m.Remove(k)
	})
	return ret
}

// HeaderMapGet returns the first value of key, or 0 when absent.
func (b *Boundary) HeaderMapGet(h Handle, key *string) (ret Handle) {
	const op = "header_map_get"
	defer b.guard(op, func() { ret = 0 })

	b.withKey(op, h, key, func(m *client.HeaderMap, k string) {
		if v, ok := m.Get(k); ok {
			ret = b.insertText(op, v)
		}
	})
	return ret
}

// HeaderMapGetAll returns every value of key joined with ";".
func (b *Boundary) HeaderMapGetAll(h Handle, key *string) (ret Handle) {
	const op = "header_map_get_all"
	defer b.guard(op, func() { ret = 0 })

	b.withKey(op, h, key, func(m *client.HeaderMap, k string) {
		ret = b.insertText(op, strings.Join(m.GetAll(k), listSeparator))
	})
	return ret
}

// HeaderMapValuesLen returns the number of values of key, -1 on failure.
func (b *Boundary) HeaderMapValuesLen(h Handle, key *string) (ret int32) {
	const op = "header_map_values_len"
	defer b.guard(op, func() { ret = -1 })

	ret = -1
	b.withKey(op, h, key, func(m *client.HeaderMap, k string) {
		ret = int32(len(m.GetAll(k)))
	})
	return ret
}

// HeaderMapGetAt returns the i-th value of key, or 0 when out of range.
func (b *Boundary) HeaderMapGetAt(h Handle, key *string, i uint32) (ret Handle) {
	const op = "header_map_get_at"
	defer b.guard(op, func() { ret = 0 })

	b.withKey(op, h, key, func(m *client.HeaderMap, k string) {
		vs := m.GetAll(k)
		if uint64(i) < uint64(len(vs)) {
			ret = b.insertText(op, vs[i])
		}
	})
	return ret
}

// HeaderMapContainsKey reports whether key has a value.
func (b *Boundary) HeaderMapContainsKey(h Handle, key *string) (ret bool) {
	const op = "header_map_contains_key"
	defer b.guard(op, func() { ret = false })

	b.withKey(op, h, key, func(m *client.HeaderMap, k string) {
		ret = m.ContainsKey(k)
	})
	return ret
}

func (b *Boundary) headerCount(op string, h Handle, count func(*client.HeaderMap) int) (ret int32) {
	defer b.guard(op, func() { ret = -1 })

	ret = -1
	b.withHeaderMap(op, h, func(m *client.HeaderMap) {
		ret = int32(count(m))
	})
	return ret
}

// HeaderMapLen returns the number of values, -1 on failure.
func (b *Boundary) HeaderMapLen(h Handle) int32 {
	return b.headerCount("header_map_len", h, (*client.HeaderMap).Len)
}

// HeaderMapKeysLen returns the number of distinct keys, -1 on failure.
func (b *Boundary) HeaderMapKeysLen(h Handle) int32 {
	return b.headerCount("header_map_keys_len", h, (*client.HeaderMap).KeysLen)
}

// HeaderMapCapacity returns the reserved key capacity, -1 on failure.
func (b *Boundary) HeaderMapCapacity(h Handle) int32 {
	return b.headerCount("header_map_capacity", h, (*client.HeaderMap).Capacity)
}

func (b *Boundary) headerList(op string, h Handle, list func(*client.HeaderMap) []string) (ret Handle) {
	defer b.guard(op, func() { ret = 0 })

	b.withHeaderMap(op, h, func(m *client.HeaderMap) {
		ret = b.insertText(op, strings.Join(list(m), listSeparator))
	})
	return ret
}

// HeaderMapKeys returns the distinct keys joined with ";".
func (b *Boundary) HeaderMapKeys(h Handle) Handle {
	return b.headerList("header_map_keys", h, (*client.HeaderMap).Keys)
}

// HeaderMapValues returns every value joined with ";".
func (b *Boundary) HeaderMapValues(h Handle) Handle {
	return b.headerList("header_map_values", h, (*client.HeaderMap).Values)
}

// HeaderMapClear removes every entry.
func (b *Boundary) HeaderMapClear(h Handle) (ret bool) {
	const op = "header_map_clear"
	defer b.guard(op, func() { ret = false })
	return b.withHeaderMap(op, h, (*client.HeaderMap).Clear)
}

// HeaderMapReserve grows the map to hold n more keys.
func (b *Boundary) HeaderMapReserve(h Handle, n uint32) (ret bool) {
	const op = "header_map_reserve"
	defer b.guard(op, func() { ret = false })
	return b.withHeaderMap(op, h, func(m *client.HeaderMap) {
		m.Reserve(int(n))
	})
}
