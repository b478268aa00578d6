package assembly

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidAssembly  = errors.New("invalid assembly")
	ErrNotInstantiable  = errors.New("type is not instantiable")
	ErrFactoryMismatch  = errors.New("factory returned a value of the wrong type")
	ErrSymbolNotFound   = errors.New("symbol not found")
	ErrDuplicateSymbol  = errors.New("symbol already registered")
	ErrUnloadableSymbol = errors.New("symbol could not be loaded")
)

// TypeLoadError reports that an assembly loaded only some of its types.
// Types keeps the declaration order with nil in place of each type that
// failed; LoaderErrors holds one error per failure.
type TypeLoadError struct {
	Assembly     string
	Types        []*TypeInfo
	LoaderErrors []error
}

func (e *TypeLoadError) Error() string {
	msgs := make([]string, 0, len(e.LoaderErrors))
	for _, err := range e.LoaderErrors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("assembly %s: %d of %d types failed to load: %s",
		e.Assembly, len(e.LoaderErrors), len(e.Types), strings.Join(msgs, "; "))
}

func (e *TypeLoadError) Unwrap() []error {
	return e.LoaderErrors
}
