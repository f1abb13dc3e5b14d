package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
)

// embeddedJSON is the built-in demonstration catalog.
//
//go:embed data/particles.json
var embeddedJSON []byte

// Embedded returns a provider over the built-in catalog.
func Embedded() (*Memory, error) {
	m, err := Load(bytes.NewReader(embeddedJSON), FormatJSON)
	if err != nil {
		return nil, fmt.Errorf("load embedded catalog: %w", err)
	}
	return m, nil
}

// EmbeddedEntries returns the raw entries of the built-in catalog.
func EmbeddedEntries() ([]Entry, error) {
	return Decode(bytes.NewReader(embeddedJSON), FormatJSON)
}

// LoadFile reads a JSON or YAML catalog from disk.
func LoadFile(path string) (*Memory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	m, err := Load(f, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return m, nil
}
