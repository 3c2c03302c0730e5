package document

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"

	"github.com/JonMunkholm/localesync/internal/keypath"
)

// tomlCatalog writes a go-i18n compatible TOML catalog. TOML tables have no
// intrinsic order, so keys are written and read back sorted.
type tomlCatalog struct{}

func (tomlCatalog) Name() string { return "toml" }

func (tomlCatalog) Encode(doc *keypath.Object) ([]byte, error) {
	return toml.Marshal(toPlain(doc))
}

func (tomlCatalog) Decode(data []byte) (*keypath.Object, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return fromPlainMap(raw), nil
}

// Verify loads data into a go-i18n bundle the way an application would.
func (tomlCatalog) Verify(locale string, data []byte) error {
	tag, err := language.Parse(locale)
	if err != nil {
		return fmt.Errorf("locale %q is not a language tag: %w", locale, err)
	}

	bundle := i18n.NewBundle(tag)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)
	if _, err := bundle.ParseMessageFileBytes(data, tag.String()+".toml"); err != nil {
		return fmt.Errorf("catalog for %s: %w", locale, err)
	}
	return nil
}

func toPlain(v any) any {
	switch node := v.(type) {
	case *keypath.Object:
		m := make(map[string]any, node.Len())
		for _, k := range node.Keys() {
			val, _ := node.Get(k)
			m[k] = toPlain(val)
		}
		return m
	case []any:
		out := make([]any, len(node))
		for i, item := range node {
			out[i] = toPlain(item)
		}
		return out
	case json.Number, nil:
		return keypath.LeafString(node)
	}
	return v
}

func fromPlainMap(m map[string]any) *keypath.Object {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	obj := keypath.NewObject()
	for _, k := range keys {
		obj.Set(k, fromPlain(m[k]))
	}
	return obj
}

func fromPlain(v any) any {
	switch node := v.(type) {
	case map[string]any:
		return fromPlainMap(node)
	case []any:
		out := make([]any, len(node))
		for i, item := range node {
			out[i] = fromPlain(item)
		}
		return out
	case string, bool, int64, float64:
		return node
	}
	return fmt.Sprint(v)
}
