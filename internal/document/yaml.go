package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/localesync/internal/keypath"
)

// yamlCatalog writes a YAML mapping. Scalars are tagged as strings so that
// values such as "yes" or "1.0" survive a round trip unchanged.
type yamlCatalog struct{}

func (yamlCatalog) Name() string { return "yaml" }

func (yamlCatalog) Encode(doc *keypath.Object) ([]byte, error) {
	node, err := toYAMLNode(doc)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(IndentWidth)
	if err := enc.Encode(node); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (yamlCatalog) Decode(data []byte) (*keypath.Object, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	// An empty file decodes to a zero node.
	if root.Kind == 0 {
		return keypath.NewObject(), nil
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) != 1 {
		return nil, keypath.ErrNotObject
	}

	v, err := fromYAMLNode(root.Content[0])
	if err != nil {
		return nil, err
	}
	obj, ok := v.(*keypath.Object)
	if !ok {
		return nil, keypath.ErrNotObject
	}
	return obj, nil
}

func toYAMLNode(v any) (*yaml.Node, error) {
	switch node := v.(type) {
	case *keypath.Object:
		m := &yaml.Node{Kind: yaml.MappingNode}
		for _, k := range node.Keys() {
			val, _ := node.Get(k)
			child, err := toYAMLNode(val)
			if err != nil {
				return nil, err
			}
			m.Content = append(m.Content, strScalar(k), child)
		}
		return m, nil
	case []any:
		s := &yaml.Node{Kind: yaml.SequenceNode}
		for _, item := range node {
			child, err := toYAMLNode(item)
			if err != nil {
				return nil, err
			}
			s.Content = append(s.Content, child)
		}
		return s, nil
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case string, json.Number, bool, int64, float64:
		return strScalar(keypath.LeafString(node)), nil
	}
	return nil, fmt.Errorf("unsupported value type %T", v)
}

func strScalar(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func fromYAMLNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.MappingNode:
		obj := keypath.NewObject()
		for i := 0; i+1 < len(n.Content); i += 2 {
			val, err := fromYAMLNode(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			obj.Set(n.Content[i].Value, val)
		}
		return obj, nil
	case yaml.SequenceNode:
		arr := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			val, err := fromYAMLNode(c)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		return arr, nil
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return nil, nil
		}
		return n.Value, nil
	case yaml.AliasNode:
		return fromYAMLNode(n.Alias)
	}
	return nil, fmt.Errorf("unsupported yaml node at line %s", strconv.Itoa(n.Line))
}
