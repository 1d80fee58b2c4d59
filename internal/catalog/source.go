package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed seed/catalog.yaml
var seedCatalog []byte

// Source loads a catalog. A failed load must return an error wrapping
// ErrSourceUnavailable rather than an empty catalog, so callers can tell
// "nothing matched" from "nothing loaded".
type Source interface {
	Load(ctx context.Context) (*Catalog, error)
}

// SourceFunc adapts a function to the Source interface
type SourceFunc func(ctx context.Context) (*Catalog, error)

// Load calls f(ctx)
func (f SourceFunc) Load(ctx context.Context) (*Catalog, error) {
	return f(ctx)
}

// StaticSource serves the catalog compiled into the binary
type StaticSource struct{}

// Load parses the embedded seed catalog
func (StaticSource) Load(ctx context.Context) (*Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load seed catalog: %w: %v", ErrSourceUnavailable, err)
	}
	return Decode(seedCatalog)
}

// FileSource reads a YAML (or JSON) catalog from disk on every load
type FileSource struct {
	Path string
}

// Load reads and parses the catalog file
func (s FileSource) Load(ctx context.Context) (*Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load %s: %w: %v", s.Path, ErrSourceUnavailable, err)
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w: %v", s.Path, ErrSourceUnavailable, err)
	}

	cat, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", s.Path, err)
	}
	return cat, nil
}

// Decode parses a YAML or JSON catalog document
func Decode(data []byte) (*Catalog, error) {
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse catalog: %w: %v", ErrSourceUnavailable, err)
	}
	return FromSnapshot(snap)
}
