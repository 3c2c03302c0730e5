package keypath

import (
	"bytes"
	"encoding/json"
	"iter"
)

// FlatMap is an insertion-ordered mapping from dotted keys to string values.
type FlatMap struct {
	keys   []string
	values map[string]string
}

// NewFlatMap returns an empty FlatMap.
func NewFlatMap() *FlatMap {
	return &FlatMap{values: make(map[string]string)}
}

// Set assigns value to key and reports the previous value, if any.
// Re-assigning a key keeps its original position.
func (m *FlatMap) Set(key, value string) (prev string, existed bool) {
	prev, existed = m.values[key]
	if !existed {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
	return prev, existed
}

// Get returns the value for key.
func (m *FlatMap) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the keys in insertion order. The slice must not be modified.
func (m *FlatMap) Keys() []string {
	return m.keys
}

// Len returns the number of entries.
func (m *FlatMap) Len() int {
	return len(m.keys)
}

// All iterates entries in insertion order.
func (m *FlatMap) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, k := range m.keys {
			if !yield(k, m.values[k]) {
				return
			}
		}
	}
}

// Clone returns an independent copy.
func (m *FlatMap) Clone() *FlatMap {
	c := &FlatMap{
		keys:   make([]string, len(m.keys)),
		values: make(map[string]string, len(m.values)),
	}
	copy(c.keys, m.keys)
	for k, v := range m.values {
		c.values[k] = v
	}
	return c
}

// MarshalJSON encodes the map as a JSON object in insertion order.
func (m *FlatMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
