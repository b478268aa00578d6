// Package manifest loads assembly manifests from YAML, TOML or HCL files
// and binds them to the types linked into the running binary.
//
// A manifest names an assembly and lists its types:
//
//	assembly: billing
//	types:
//	  - name: github.com/acme/billing.Module
//	  - name: github.com/acme/billing.Base
//	    abstract: true
//
// The same manifest in HCL:
//
//	assembly = "billing"
//	type "github.com/acme/billing.Module" {}
//	type "github.com/acme/billing.Base" {
//	  abstract = true
//	}
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported manifest format")
	ErrMissingAssemblyID = errors.New("manifest has no assembly id")
	ErrEmptyTypeName     = errors.New("manifest type has an empty name")
	ErrDuplicateType     = errors.New("manifest declares a type twice")
)

// Format identifies a manifest syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatHCL  Format = "hcl"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".hcl":
		return FormatHCL, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Manifest describes the types of one assembly.
type Manifest struct {
	Assembly string      `yaml:"assembly" toml:"assembly" hcl:"assembly"`
	Types    []TypeEntry `yaml:"types" toml:"types" hcl:"type,block"`

	// Source is the file the manifest was read from, if any.
	Source string `yaml:"-" toml:"-"`
}

// TypeEntry declares one type by symbol name.
type TypeEntry struct {
	Name      string `yaml:"name" toml:"name" hcl:"name,label"`
	Abstract  bool   `yaml:"abstract,omitempty" toml:"abstract,omitempty" hcl:"abstract,optional"`
	Generated bool   `yaml:"generated,omitempty" toml:"generated,omitempty" hcl:"generated,optional"`
}

// Load reads and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	m, err := Parse(data, format, path)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// LoadAll loads every path in order and stops at the first failure.
func LoadAll(paths ...string) ([]*Manifest, error) {
	manifests := make([]*Manifest, 0, len(paths))
	for _, path := range paths {
		m, err := Load(path)
		if err != nil {
			return nil, err
		}
		manifests = append(manifests, m)
	}
	return manifests, nil
}

// Parse decodes data in the given format. source names the input in error
// messages and HCL diagnostics.
func Parse(data []byte, format Format, source string) (*Manifest, error) {
	m := &Manifest{}
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(m); err != nil {
			return nil, fmt.Errorf("failed to parse YAML manifest %s: %w", source, err)
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), m)
		if err != nil {
			return nil, fmt.Errorf("failed to parse TOML manifest %s: %w", source, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("failed to parse TOML manifest %s: unknown keys %v", source, undecoded)
		}
	case FormatHCL:
		file, diags := hclparse.NewParser().ParseHCL(data, source)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL manifest %s: %w", source, diags)
		}
		if diags := gohcl.DecodeBody(file.Body, nil, m); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL manifest %s: %w", source, diags)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	m.Source = source
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks the assembly id and type names.
func (m *Manifest) Validate() error {
	if strings.TrimSpace(m.Assembly) == "" {
		return fmt.Errorf("%w: %s", ErrMissingAssemblyID, m.Source)
	}
	seen := make(map[string]struct{}, len(m.Types))
	for i, entry := range m.Types {
		if strings.TrimSpace(entry.Name) == "" {
			return fmt.Errorf("%w: %s entry %d", ErrEmptyTypeName, m.Assembly, i)
		}
		if _, dup := seen[entry.Name]; dup {
			return fmt.Errorf("%w: %s in %s", ErrDuplicateType, entry.Name, m.Assembly)
		}
		seen[entry.Name] = struct{}{}
	}
	return nil
}
