// Package keypath converts between flat dotted-key translation maps and
// nested translation documents.
//
// A flat key such as "component.label.0" addresses a nested position: each
// dot-separated segment is an object property, except purely numeric
// segments ("0", "12") which address array elements. Both the flat and the
// nested forms preserve insertion order so that regenerated documents keep
// the key order of the files they were read from.
package keypath

import (
	"bytes"
	"encoding/json"
)

// Object is an insertion-ordered JSON-like object.
//
// Values are one of: *Object, []any, string, json.Number, bool, float64,
// int64 or nil. Setting an existing key replaces its value in place.
type Object struct {
	keys   []string
	values map[string]any
}

// NewObject returns an empty Object.
func NewObject() *Object {
	return &Object{values: make(map[string]any)}
}

// Set assigns key. New keys are appended; existing keys keep their position.
func (o *Object) Set(key string, value any) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (any, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Keys returns the keys in insertion order. The slice must not be modified.
func (o *Object) Keys() []string {
	return o.keys
}

// Len returns the number of keys.
func (o *Object) Len() int {
	return len(o.keys)
}

// MarshalJSON encodes the object with its keys in insertion order.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(o.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
