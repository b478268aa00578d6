package assembly

import (
	"fmt"
	"reflect"
)

// Entry produces one declared type of a Static assembly. A non-nil error
// marks the type as unloadable.
type Entry func() (*TypeInfo, error)

// Of declares the type T.
func Of[T any](opts ...TypeOption) Entry {
	return Type(reflect.TypeFor[T](), opts...)
}

// Type declares t.
func Type(t reflect.Type, opts ...TypeOption) Entry {
	return func() (*TypeInfo, error) {
		if t == nil {
			return nil, fmt.Errorf("%w: nil type", ErrUnloadableSymbol)
		}
		return NewTypeInfo(t, opts...), nil
	}
}

// Info declares an existing TypeInfo, typically one taken from a SymbolTable.
func Info(info *TypeInfo) Entry {
	return func() (*TypeInfo, error) {
		if info == nil {
			return nil, fmt.Errorf("%w: nil type info", ErrUnloadableSymbol)
		}
		return info, nil
	}
}

// Unloadable declares a type that fails to load with err.
func Unloadable(name string, err error) Entry {
	return func() (*TypeInfo, error) {
		if err == nil {
			err = ErrUnloadableSymbol
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
}

// Static is an assembly whose types are declared in code.
type Static struct {
	id      string
	entries []Entry
}

// New returns a Static assembly with the given identity and types.
func New(id string, entries ...Entry) *Static {
	return &Static{id: id, entries: entries}
}

// ID implements Assembly. A nil *Static has an empty ID and is therefore
// rejected as invalid.
func (s *Static) ID() string {
	if s == nil {
		return ""
	}
	return s.id
}

// DefinedTypes implements Assembly.
func (s *Static) DefinedTypes() ([]*TypeInfo, error) {
	if s == nil {
		return nil, ErrInvalidAssembly
	}
	types := make([]*TypeInfo, len(s.entries))
	var errs []error
	for i, entry := range s.entries {
		info, err := entry()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		types[i] = info
	}
	if len(errs) > 0 {
		return types, &TypeLoadError{Assembly: s.id, Types: types, LoaderErrors: errs}
	}
	return types, nil
}
