package cqlvalue

import (
	"strconv"
	"strings"
)

// Map is a string keyed mapping that remembers insertion order. It stands
// for a CQL map with text keys, a user defined type value, or a result row,
// depending on the column type it is encoded against or decoded from.
//
// A Map is not safe for concurrent mutation.
type Map struct {
	keys   []string
	values map[string]Value
}

// NewMap returns an empty map with room for n entries.
func NewMap(n int) *Map {
	return &Map{
		keys:   make([]string, 0, n),
		values: make(map[string]Value, n),
	}
}

// MapOf builds a map from alternating key, value arguments.
func MapOf(kv ...interface{}) *Map {
	if len(kv)%2 != 0 {
		panic("cqlvalue: MapOf needs key/value pairs")
	}
	m := NewMap(len(kv) / 2)
	for i := 0; i < len(kv); i += 2 {
		var v Value
		if kv[i+1] != nil {
			v = kv[i+1].(Value)
		}
		m.Set(kv[i].(string), v)
	}
	return m
}

func (*Map) Kind() Kind { return KindMap }
func (*Map) value()     {}

// Set stores v under k. Replacing an existing key keeps its position.
func (m *Map) Set(k string, v Value) *Map {
	if m.values == nil {
		m.values = map[string]Value{}
	}
	if _, ok := m.values[k]; !ok {
		m.keys = append(m.keys, k)
	}
	m.values[k] = v
	return m
}

// Get returns the value stored under k.
func (m *Map) Get(k string) (Value, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[k]
	return v, ok
}

// Has reports whether k is present.
func (m *Map) Has(k string) bool {
	_, ok := m.Get(k)
	return ok
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

// Range calls fn for each entry in insertion order until fn returns false.
func (m *Map) Range(fn func(k string, v Value) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !fn(k, m.values[k]) {
			return
		}
	}
}

// Equal compares entries and their order.
func (m *Map) Equal(o *Map) bool {
	if m.Len() != o.Len() {
		return false
	}
	if m.Len() == 0 {
		return true
	}
	for i, k := range m.keys {
		if o.keys[i] != k || !Equal(m.values[k], o.values[k]) {
			return false
		}
	}
	return true
}

func (m *Map) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	m.Range(func(k string, v Value) bool {
		if sb.Len() > 1 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.Quote(k))
		sb.WriteString(": ")
		if v == nil {
			sb.WriteString("null")
		} else {
			sb.WriteString(v.String())
		}
		return true
	})
	sb.WriteByte('}')
	return sb.String()
}
