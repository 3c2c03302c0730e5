// Package document encodes and decodes per-locale translation documents.
//
// Each on-disk representation is a Format registered by name. The default
// "js" format writes an ES module whose default export is the nested
// translation object; "json", "yaml" and "toml" write plain catalogs.
// Every format decodes what it encodes, so generated files can be read
// back as the baseline for the next import.
package document

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/JonMunkholm/localesync/internal/keypath"
)

// DefaultFormat is used when no format is configured.
const DefaultFormat = "js"

// ErrUnknownFormat is returned by Lookup for unregistered names.
var ErrUnknownFormat = errors.New("unknown document format")

// ErrLiteralNotFound is returned when a document carries no braced literal.
var ErrLiteralNotFound = errors.New("translation literal not found")

// Format is one on-disk representation of a translation document.
type Format interface {
	// Name is the registry key, e.g. "js".
	Name() string

	// Encode renders doc deterministically, preserving key order.
	Encode(doc *keypath.Object) ([]byte, error)

	// Decode parses data produced by Encode (or written by hand) back into
	// a nested document.
	Decode(data []byte) (*keypath.Object, error)
}

// Verifier is implemented by formats that can check a rendered catalog
// against the consumer that will load it.
type Verifier interface {
	Verify(locale string, data []byte) error
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Format)
)

// Register adds a format. It panics if the name is already registered.
func Register(f Format) {
	registryMu.Lock()
	defer registryMu.Unlock()

	name := f.Name()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("document format %q already registered", name))
	}
	registry[name] = f
}

// Lookup returns the format registered under name. An empty name selects
// DefaultFormat.
func Lookup(name string) (Format, error) {
	if name == "" {
		name = DefaultFormat
	}

	registryMu.RLock()
	defer registryMu.RUnlock()

	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
	return f, nil
}

// Names returns all registered format names, sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register(jsModule{})
	Register(jsonCatalog{})
	Register(yamlCatalog{})
	Register(tomlCatalog{})
}
