// Package assembly describes compiled units that expose plugin candidate
// types and enumerates those types, tolerating partial load failures.
//
// Go cannot list the types compiled into a package at runtime, so every
// assembly publishes its types explicitly: either in code with New and Of,
// or through a manifest bound against a SymbolTable (see package manifest).
package assembly

import (
	"fmt"
	"reflect"
	"strings"
)

// Assembly is a loaded compiled unit. Its identity is ID(), which must be
// stable and non-empty for the lifetime of the process.
type Assembly interface {
	// ID returns the assembly identity used as the scan cache key.
	ID() string

	// DefinedTypes returns every type the assembly defines, in declaration
	// order. When some types cannot be loaded it returns a *TypeLoadError
	// whose Types slice holds nil in place of the failed entries.
	DefinedTypes() ([]*TypeInfo, error)
}

// Factory constructs one instance of a type.
type Factory func() (any, error)

// Synthesized marks a struct as generated code. Embed it to keep the type
// out of plugin scans:
//
//	type wiringShim struct {
//		assembly.Synthesized
//	}
type Synthesized struct{}

var synthesizedType = reflect.TypeFor[Synthesized]()

// TypeInfo describes one type defined in an assembly.
type TypeInfo struct {
	name      string
	typ       reflect.Type
	factory   Factory
	abstract  bool
	generated bool
}

// TypeOption customizes a TypeInfo.
type TypeOption func(*TypeInfo)

// WithFactory sets the constructor used by Instantiate.
func WithFactory(f Factory) TypeOption {
	return func(t *TypeInfo) {
		t.factory = f
	}
}

// WithName overrides the symbol name derived from the Go type.
func WithName(name string) TypeOption {
	return func(t *TypeInfo) {
		t.name = name
	}
}

// Abstract flags the type as a base that must never be instantiated.
func Abstract() TypeOption {
	return func(t *TypeInfo) {
		t.abstract = true
	}
}

// Generated flags the type as produced by a code generator.
func Generated() TypeOption {
	return func(t *TypeInfo) {
		t.generated = true
	}
}

// NewTypeInfo describes t. It panics if t is nil.
func NewTypeInfo(t reflect.Type, opts ...TypeOption) *TypeInfo {
	if t == nil {
		panic("assembly: NewTypeInfo called with nil type")
	}
	info := &TypeInfo{name: TypeName(t), typ: t}
	for _, opt := range opts {
		opt(info)
	}
	return info
}

// Name returns the symbol name, "<pkgpath>.<Name>" unless overridden.
func (t *TypeInfo) Name() string { return t.name }

// Type returns the underlying Go type.
func (t *TypeInfo) Type() reflect.Type { return t.typ }

// String implements fmt.Stringer.
func (t *TypeInfo) String() string { return t.name }

// Annotate returns a copy with the abstract and generated flags OR-ed with
// the given values. Manifests use it to add flags to a shared symbol.
func (t *TypeInfo) Annotate(abstract, generated bool) *TypeInfo {
	if (!abstract || t.abstract) && (!generated || t.generated) {
		return t
	}
	cp := *t
	cp.abstract = cp.abstract || abstract
	cp.generated = cp.generated || generated
	return &cp
}

// IsClass reports whether the type is a struct or a pointer to a struct.
func (t *TypeInfo) IsClass() bool {
	k := t.typ.Kind()
	if k == reflect.Pointer {
		return t.typ.Elem().Kind() == reflect.Struct
	}
	return k == reflect.Struct
}

// IsAbstract reports whether the type is an interface or flagged abstract.
func (t *TypeInfo) IsAbstract() bool {
	return t.abstract || t.typ.Kind() == reflect.Interface
}

// IsDelegate reports whether the type is a function type.
func (t *TypeInfo) IsDelegate() bool {
	return t.typ.Kind() == reflect.Func
}

// IsSynthesized reports whether the type is generated code: flagged as
// generated, anonymous, or embedding Synthesized. It walks struct fields,
// so callers should run it after the cheaper checks.
func (t *TypeInfo) IsSynthesized() bool {
	if t.generated {
		return true
	}
	base := t.typ
	for base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	if base.Name() == "" || strings.ContainsAny(base.Name(), "·$") {
		return true
	}
	if base.Kind() != reflect.Struct {
		return false
	}
	for i := range base.NumField() {
		f := base.Field(i)
		if f.Anonymous && f.Type == synthesizedType {
			return true
		}
	}
	return false
}

// AssignableTo reports whether values of the type satisfy contract:
// Implements for interface contracts, AssignableTo otherwise.
func (t *TypeInfo) AssignableTo(contract reflect.Type) bool {
	if contract == nil {
		return false
	}
	if contract.Kind() == reflect.Interface {
		return t.typ.Implements(contract)
	}
	return t.typ.AssignableTo(contract)
}

// Instantiate builds a new value of the type. It uses the factory when one
// is set; otherwise it returns a zero value, allocated with new for pointer
// to struct types. Panics raised by a factory are not recovered.
func (t *TypeInfo) Instantiate() (any, error) {
	if t.factory != nil {
		v, err := t.factory()
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, fmt.Errorf("%w: factory for %s returned nil", ErrNotInstantiable, t.name)
		}
		if !reflect.TypeOf(v).AssignableTo(t.typ) {
			return nil, fmt.Errorf("%w: factory for %s returned %T", ErrFactoryMismatch, t.name, v)
		}
		return v, nil
	}

	switch {
	case t.typ.Kind() == reflect.Pointer && t.typ.Elem().Kind() == reflect.Struct:
		return reflect.New(t.typ.Elem()).Interface(), nil
	case t.typ.Kind() == reflect.Struct:
		return reflect.New(t.typ).Elem().Interface(), nil
	default:
		return nil, fmt.Errorf("%w: %s has kind %s", ErrNotInstantiable, t.name, t.typ.Kind())
	}
}

// TypeName derives the symbol name of t: pointers are unwrapped and the
// result is "<pkgpath>.<Name>". Unnamed types fall back to t.String().
func TypeName(t reflect.Type) string {
	base := t
	for base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	if base.Name() == "" {
		return t.String()
	}
	if p := base.PkgPath(); p != "" {
		return p + "." + base.Name()
	}
	return base.Name()
}
