package feeders

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// TomlFeeder is a feeder that reads TOML files. Unknown keys are rejected.
type TomlFeeder struct {
	Path string
}

// NewTomlFeeder creates a new TomlFeeder that reads from the specified TOML file
func NewTomlFeeder(filePath string) TomlFeeder {
	return TomlFeeder{Path: filePath}
}

// Feed decodes the file over the current values of structure.
func (t TomlFeeder) Feed(structure any) error {
	if !isStructPointer(structure) {
		return wrapStructureError(structure)
	}
	md, err := toml.DecodeFile(t.Path, structure)
	if err != nil {
		return fmt.Errorf("toml: %s: %w", t.Path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("%w in %s: %v", ErrTomlUndecodedKeys, t.Path, undecoded)
	}
	return nil
}
