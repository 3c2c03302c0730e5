package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/JonMunkholm/localesync/internal/keypath"
)

// IndentWidth is the number of spaces per nesting level in rendered literals.
const IndentWidth = 4

// ExtractLiteral returns the text between the first '{' and the last '}'
// of text, inclusive.
func ExtractLiteral(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return "", ErrLiteralNotFound
	}
	return text[start : end+1], nil
}

// DecodeJSON parses a JSON object keeping key order. Duplicate keys keep
// the position of their first occurrence and the value of their last.
func DecodeJSON(data []byte) (*keypath.Object, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(*keypath.Object)
	if !ok {
		return nil, keypath.ErrNotObject
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected content after literal")
	}
	return obj, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '{':
		obj := keypath.NewObject()
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := kt.(string)
			if !ok {
				return nil, fmt.Errorf("expected object key, got %v", kt)
			}
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			obj.Set(key, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil

	case '[':
		arr := []any{}
		for dec.More() {
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	}

	return nil, fmt.Errorf("unexpected delimiter %q", delim)
}

// EncodeLiteral renders doc as an indented JSON literal with keys in
// insertion order. HTML characters are not escaped.
func EncodeLiteral(doc *keypath.Object) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, doc, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeValue(buf *bytes.Buffer, v any, depth int) error {
	switch node := v.(type) {
	case *keypath.Object:
		if node.Len() == 0 {
			buf.WriteString("{}")
			return nil
		}
		buf.WriteString("{\n")
		for i, k := range node.Keys() {
			writeIndent(buf, depth+1)
			if err := writeString(buf, k); err != nil {
				return err
			}
			buf.WriteString(": ")
			val, _ := node.Get(k)
			if err := writeValue(buf, val, depth+1); err != nil {
				return err
			}
			if i < node.Len()-1 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		writeIndent(buf, depth)
		buf.WriteByte('}')

	case []any:
		if len(node) == 0 {
			buf.WriteString("[]")
			return nil
		}
		buf.WriteString("[\n")
		for i, item := range node {
			writeIndent(buf, depth+1)
			if err := writeValue(buf, item, depth+1); err != nil {
				return err
			}
			if i < len(node)-1 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		writeIndent(buf, depth)
		buf.WriteByte(']')

	case string:
		return writeString(buf, node)
	case json.Number:
		buf.WriteString(node.String())
	case bool:
		buf.WriteString(strconv.FormatBool(node))
	case nil:
		buf.WriteString("null")
	case int64:
		buf.WriteString(strconv.FormatInt(node, 10))
	case float64:
		buf.WriteString(strconv.FormatFloat(node, 'f', -1, 64))
	default:
		return fmt.Errorf("unsupported value type %T", v)
	}
	return nil
}

func writeIndent(buf *bytes.Buffer, depth int) {
	for i := 0; i < depth*IndentWidth; i++ {
		buf.WriteByte(' ')
	}
}

func writeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return nil
}
