package document

import (
	"bytes"
	"fmt"

	"github.com/JonMunkholm/localesync/internal/keypath"
)

// moduleHeader precedes the export in generated ES modules.
var moduleHeader = []string{
	"// This file is generated by localesync from the translation export.",
	"// Keys missing from the export are carried over from the previous version.",
	"// Edit the export, not this file, to change a translation.",
}

// jsModule writes `export default {...};`.
type jsModule struct{}

func (jsModule) Name() string { return "js" }

func (jsModule) Encode(doc *keypath.Object) ([]byte, error) {
	literal, err := EncodeLiteral(doc)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	for _, line := range moduleHeader {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')
	buf.WriteString("export default ")
	buf.Write(literal)
	buf.WriteString(";\n")
	return buf.Bytes(), nil
}

// Decode extracts the braced literal and parses it as JSON, falling back to
// JavaScript evaluation for literals that are not strict JSON.
func (jsModule) Decode(data []byte) (*keypath.Object, error) {
	literal, err := ExtractLiteral(string(data))
	if err != nil {
		return nil, err
	}

	doc, jsonErr := DecodeJSON([]byte(literal))
	if jsonErr == nil {
		return doc, nil
	}

	doc, jsErr := decodeJSLiteral(literal)
	if jsErr != nil {
		return nil, fmt.Errorf("invalid literal: %w (as JavaScript: %v)", jsonErr, jsErr)
	}
	return doc, nil
}

// jsonCatalog writes the bare literal.
type jsonCatalog struct{}

func (jsonCatalog) Name() string { return "json" }

func (jsonCatalog) Encode(doc *keypath.Object) ([]byte, error) {
	literal, err := EncodeLiteral(doc)
	if err != nil {
		return nil, err
	}
	return append(literal, '\n'), nil
}

func (jsonCatalog) Decode(data []byte) (*keypath.Object, error) {
	literal, err := ExtractLiteral(string(data))
	if err != nil {
		return nil, err
	}
	doc, err := DecodeJSON([]byte(literal))
	if err != nil {
		return nil, fmt.Errorf("invalid literal: %w", err)
	}
	return doc, nil
}
