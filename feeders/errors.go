package feeders

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedFileFormat = errors.New("unsupported config file format")
	ErrInvalidStructure      = errors.New("expected pointer to struct")
	ErrTomlUndecodedKeys     = errors.New("toml: unknown keys")
)

// Environment feeder errors
var (
	ErrEnvInvalidStructure     = errors.New("env: invalid structure")
	ErrEnvEmptyPrefixAndSuffix = errors.New("env: prefix or suffix cannot be empty")
	ErrEnvFieldCannotBeSet     = errors.New("env: field cannot be set")
)

func wrapStructureError(got any) error {
	return fmt.Errorf("%w, got %T", ErrInvalidStructure, got)
}
