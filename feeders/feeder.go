// Package feeders reads configuration from YAML and TOML files and from
// affixed environment variables into tagged structs.
package feeders

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Feeder populates a pointer to a struct from one source.
type Feeder interface {
	Feed(structure any) error
}

// ForFile returns the file feeder matching the extension of path.
func ForFile(path string) (Feeder, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return NewYamlFeeder(path), nil
	case ".toml":
		return NewTomlFeeder(path), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileFormat, path)
	}
}
