// Package modscan discovers plugin modules in assemblies and registers them
// into a component registry, subject to predicates evaluated once at build
// time.
//
// Basic usage:
//
//	b, err := modscan.NewBuilder(modscan.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	modscan.RegisterAssemblyModulesOf[modscan.Module](b, assemblies...).
//		IfNotRegistered(reflect.TypeFor[Cache]())
//	container, err := b.Build(ctx)
package modscan

import (
	"reflect"

	"github.com/GoCodeAlone/modscan/assembly"
)

// Module contributes registrations to a builder. Load runs during Build,
// only if every predicate on the module's registration holds, and receives
// a child builder whose pending registrations are applied right after Load
// returns.
type Module interface {
	Load(b *Builder) error
}

// NamedModule is an optional interface for modules that name themselves in
// reports and logs.
type NamedModule interface {
	Module
	Name() string
}

// ModuleFunc adapts a function to Module.
type ModuleFunc func(b *Builder) error

// Load implements Module.
func (f ModuleFunc) Load(b *Builder) error { return f(b) }

// ModuleName returns the name of m: Name() for a NamedModule, otherwise
// its type name.
func ModuleName(m Module) string {
	if n, ok := m.(NamedModule); ok {
		return n.Name()
	}
	return assembly.TypeName(reflect.TypeOf(m))
}

var moduleType = reflect.TypeFor[Module]()

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
