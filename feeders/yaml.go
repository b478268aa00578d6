package feeders

import (
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"

	"gopkg.in/yaml.v3"
)

// YamlFeeder is a feeder that reads YAML files. Unknown keys are rejected.
type YamlFeeder struct {
	Path string
}

// NewYamlFeeder creates a new YamlFeeder that reads from the specified YAML file
func NewYamlFeeder(filePath string) YamlFeeder {
	return YamlFeeder{Path: filePath}
}

// Feed decodes the file over the current values of structure.
func (y YamlFeeder) Feed(structure any) error {
	if !isStructPointer(structure) {
		return wrapStructureError(structure)
	}
	f, err := os.Open(y.Path)
	if err != nil {
		return fmt.Errorf("yaml: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(structure); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("yaml: %s: %w", y.Path, err)
	}
	return nil
}

func isStructPointer(v any) bool {
	t := reflect.TypeOf(v)
	return t != nil && t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct &&
		!reflect.ValueOf(v).IsNil()
}
