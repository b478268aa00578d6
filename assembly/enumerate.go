package assembly

import (
	"errors"
	"fmt"
)

// LoadableTypes returns the types defined by a, in declaration order.
//
// A partial load failure is not an error: when DefinedTypes reports a
// *TypeLoadError, the types that did load are returned in their original
// relative order and the failed entries are dropped. LoadableTypes fails
// only when a is nil, has an empty ID, or returns any other error.
func LoadableTypes(a Assembly) ([]*TypeInfo, error) {
	if a == nil || a.ID() == "" {
		return nil, ErrInvalidAssembly
	}

	types, err := a.DefinedTypes()
	if err != nil {
		var loadErr *TypeLoadError
		if !errors.As(err, &loadErr) {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidAssembly, a.ID(), err)
		}
		types = loadErr.Types
	}

	loaded := make([]*TypeInfo, 0, len(types))
	for _, t := range types {
		if t != nil {
			loaded = append(loaded, t)
		}
	}
	return loaded, nil
}
