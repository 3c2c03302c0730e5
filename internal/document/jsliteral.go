package document

import (
	"strconv"
	"time"

	"github.com/dop251/goja"
	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"

	"github.com/JonMunkholm/localesync/internal/keypath"
)

// evalTimeout bounds evaluation of a hand-edited literal.
const evalTimeout = 2 * time.Second

// decodeJSLiteral evaluates literal as a JavaScript expression. It accepts
// what JSON rejects in hand-edited modules: unquoted keys, single quotes,
// trailing commas and comments.
//
// Keys come out in source order. A JS object lists integer-like keys
// first, so the order is taken from the parsed literal rather than from
// the evaluated object.
func decodeJSLiteral(literal string) (*keypath.Object, error) {
	prog, err := parser.ParseFile(nil, "", "("+literal+")", 0)
	if err != nil {
		return nil, err
	}
	var order *keyOrder
	if len(prog.Body) == 1 {
		if stmt, ok := prog.Body[0].(*ast.ExpressionStatement); ok {
			order = orderOf(stmt.Expression)
		}
	}

	compiled, err := goja.CompileAST(prog, false)
	if err != nil {
		return nil, err
	}

	vm := goja.New()
	timer := time.AfterFunc(evalTimeout, func() {
		vm.Interrupt("evaluation timed out")
	})
	defer timer.Stop()

	value, err := vm.RunProgram(compiled)
	if err != nil {
		return nil, err
	}

	obj, ok := value.(*goja.Object)
	if !ok || obj.ClassName() == "Array" {
		return nil, keypath.ErrNotObject
	}
	return exportObject(obj, order), nil
}

// keyOrder is the source order of an object literal's keys, with the
// orders of the literals nested under each key or array index.
type keyOrder struct {
	keys   []string
	nested map[string]*keyOrder
}

func (o *keyOrder) child(key string) *keyOrder {
	if o == nil {
		return nil
	}
	return o.nested[key]
}

func orderOf(expr ast.Expression) *keyOrder {
	switch e := expr.(type) {
	case *ast.ObjectLiteral:
		o := &keyOrder{nested: make(map[string]*keyOrder)}
		seen := make(map[string]bool, len(e.Value))
		for _, prop := range e.Value {
			p, ok := prop.(*ast.PropertyKeyed)
			if !ok || p.Computed {
				continue
			}
			key, ok := propertyKey(p.Key)
			if !ok {
				continue
			}
			if !seen[key] {
				seen[key] = true
				o.keys = append(o.keys, key)
			}
			// The last duplicate supplies the value, and so the nested order.
			o.nested[key] = orderOf(p.Value)
		}
		return o
	case *ast.ArrayLiteral:
		o := &keyOrder{nested: make(map[string]*keyOrder)}
		for i, v := range e.Value {
			o.nested[strconv.Itoa(i)] = orderOf(v)
		}
		return o
	}
	return nil
}

// propertyKey returns the property name a literal key evaluates to.
func propertyKey(key ast.Expression) (string, bool) {
	switch k := key.(type) {
	case *ast.Identifier:
		return k.Name.String(), true
	case *ast.StringLiteral:
		return k.Value.String(), true
	case *ast.NumberLiteral:
		switch n := k.Value.(type) {
		case int64:
			return strconv.FormatInt(n, 10), true
		case float64:
			return strconv.FormatFloat(n, 'f', -1, 64), true
		}
	}
	return "", false
}

// exportObject converts obj without going through Export, which would lose
// property order. Keys missing from order keep the engine's order after
// the ordered ones.
func exportObject(obj *goja.Object, order *keyOrder) *keypath.Object {
	present := obj.Keys()
	pending := make(map[string]bool, len(present))
	for _, key := range present {
		pending[key] = true
	}

	out := keypath.NewObject()
	add := func(key string) {
		if pending[key] {
			delete(pending, key)
			out.Set(key, exportValue(obj.Get(key), order.child(key)))
		}
	}
	if order != nil {
		for _, key := range order.keys {
			add(key)
		}
	}
	for _, key := range present {
		add(key)
	}
	return out
}

func exportValue(v goja.Value, order *keyOrder) any {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}

	obj, ok := v.(*goja.Object)
	if !ok {
		return v.Export()
	}

	if obj.ClassName() == "Array" {
		n := int(obj.Get("length").ToInteger())
		arr := make([]any, n)
		for i := 0; i < n; i++ {
			idx := strconv.Itoa(i)
			arr[i] = exportValue(obj.Get(idx), order.child(idx))
		}
		return arr
	}
	return exportObject(obj, order)
}
