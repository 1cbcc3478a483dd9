package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadFile builds a provider from one .cue, .yaml or .yml file.
func LoadFile(path string) (MetadataProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		p, err := NewCUEProvider(path, data)
		if err != nil {
			return nil, fmt.Errorf("load schema %s: %w", path, err)
		}
		return p, nil
	case ".yaml", ".yml":
		p, err := NewYAMLProvider(path, data)
		if err != nil {
			return nil, fmt.Errorf("load schema %s: %w", path, err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("load schema %s: unsupported extension %q", path, filepath.Ext(path))
	}
}

// LoadFiles builds a chain over the given files, in order.
func LoadFiles(paths ...string) (ChainProvider, error) {
	chain := make(ChainProvider, 0, len(paths))
	for _, path := range paths {
		p, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		chain = append(chain, p)
	}
	return chain, nil
}
