package keypath

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Separator joins nested segments in a flat key.
const Separator = "."

var (
	// ErrNotObject is returned when a document root is not an object.
	ErrNotObject = errors.New("document root is not an object")

	// ErrKeyConflict is returned when one flat key addresses a value and
	// another addresses a child of that same value.
	ErrKeyConflict = errors.New("key conflicts with an existing entry")

	// ErrSparseIndex is returned when the indices under an array path do
	// not form a contiguous run starting at zero.
	ErrSparseIndex = errors.New("array indices are not contiguous")
)

// PathError records the flat key at which nesting failed.
type PathError struct {
	Key string
	Err error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("key %q: %v", e.Key, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// Flatten walks doc and returns one entry per leaf, keyed by the dot-joined
// chain of property names and array indices leading to it. Empty objects and
// arrays produce no entries. Non-string leaves are converted to text and nil
// becomes the empty string.
func Flatten(doc any) (*FlatMap, error) {
	root, ok := doc.(*Object)
	if !ok || root == nil {
		return nil, fmt.Errorf("flatten: %w", ErrNotObject)
	}
	out := NewFlatMap()
	flattenInto(out, "", root)
	return out, nil
}

func flattenInto(out *FlatMap, prefix string, v any) {
	switch node := v.(type) {
	case *Object:
		for _, k := range node.keys {
			flattenInto(out, join(prefix, k), node.values[k])
		}
	case []any:
		for i, item := range node {
			flattenInto(out, join(prefix, strconv.Itoa(i)), item)
		}
	default:
		out.Set(prefix, LeafString(node))
	}
}

func join(prefix, seg string) string {
	if prefix == "" {
		return seg
	}
	return prefix + Separator + seg
}

// LeafString renders a scalar document value as a translation string.
func LeafString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// arrayNode collects array elements by index until the whole map has been
// consumed and density can be checked.
type arrayNode struct {
	items map[int]any
	max   int
}

func newArrayNode() *arrayNode {
	return &arrayNode{items: make(map[int]any), max: -1}
}

// Unflatten rebuilds the nested document described by flat. Keys are split
// on Separator; a segment becomes an array index when the segment after it
// is purely numeric. Object keys keep the order of first appearance in flat.
func Unflatten(flat *FlatMap) (*Object, error) {
	root := NewObject()
	for key, value := range flat.All() {
		if err := insert(root, key, value); err != nil {
			return nil, err
		}
	}
	if _, err := finalize(root, ""); err != nil {
		return nil, err
	}
	return root, nil
}

func insert(root *Object, key, value string) error {
	segs := strings.Split(key, Separator)
	var cur any = root

	for i, seg := range segs {
		existing, ok, err := child(cur, seg)
		if err != nil {
			return &PathError{Key: key, Err: err}
		}

		if i == len(segs)-1 {
			if ok && isContainer(existing) {
				return &PathError{Key: key, Err: ErrKeyConflict}
			}
			setChild(cur, seg, value)
			return nil
		}

		if !ok {
			var next any
			if isIndex(segs[i+1]) {
				next = newArrayNode()
			} else {
				next = NewObject()
			}
			setChild(cur, seg, next)
			cur = next
			continue
		}

		if !isContainer(existing) {
			return &PathError{Key: key, Err: ErrKeyConflict}
		}
		cur = existing
	}
	return nil
}

func child(container any, seg string) (any, bool, error) {
	switch c := container.(type) {
	case *Object:
		v, ok := c.values[seg]
		return v, ok, nil
	case *arrayNode:
		idx, ok := parseIndex(seg)
		if !ok {
			return nil, false, ErrKeyConflict
		}
		v, found := c.items[idx]
		return v, found, nil
	}
	return nil, false, ErrKeyConflict
}

// setChild assumes child has already accepted seg for container.
func setChild(container any, seg string, v any) {
	switch c := container.(type) {
	case *Object:
		c.Set(seg, v)
	case *arrayNode:
		idx, _ := parseIndex(seg)
		c.items[idx] = v
		if idx > c.max {
			c.max = idx
		}
	}
}

func finalize(v any, path string) (any, error) {
	switch node := v.(type) {
	case *Object:
		for _, k := range node.keys {
			done, err := finalize(node.values[k], join(path, k))
			if err != nil {
				return nil, err
			}
			node.values[k] = done
		}
		return node, nil
	case *arrayNode:
		if len(node.items) != node.max+1 {
			return nil, &PathError{Key: path, Err: ErrSparseIndex}
		}
		out := make([]any, node.max+1)
		for i := range out {
			done, err := finalize(node.items[i], join(path, strconv.Itoa(i)))
			if err != nil {
				return nil, err
			}
			out[i] = done
		}
		return out, nil
	}
	return v, nil
}

func isContainer(v any) bool {
	switch v.(type) {
	case *Object, *arrayNode:
		return true
	}
	return false
}

func isIndex(seg string) bool {
	_, ok := parseIndex(seg)
	return ok
}

// parseIndex accepts "0" and digit runs without a leading zero.
func parseIndex(seg string) (int, bool) {
	if seg == "" || len(seg) > 9 {
		return 0, false
	}
	if len(seg) > 1 && seg[0] == '0' {
		return 0, false
	}
	n := 0
	for i := 0; i < len(seg); i++ {
		c := seg[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}
