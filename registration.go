package modscan

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/GoCodeAlone/modscan/assembly"
	"github.com/GoCodeAlone/modscan/registry"
)

// Kinds of pending registration, as shown in a Report.
const (
	KindModule          = "module"
	KindAssemblyModules = "assembly-modules"
	KindService         = "service"
	KindCallback        = "callback"
)

type runFunc func(ctx context.Context, reg ComponentRegistry, report *Report) error

type pending struct {
	kind        string
	description string
	run         runFunc
	guards      []guard
}

// declinedBy returns the index of the first guard that does not hold, or
// -1 when all hold. Later guards are not evaluated.
func (p *pending) declinedBy(reg ComponentRegistry) int {
	for i, g := range p.guards {
		if !g.test(reg) {
			return i
		}
	}
	return -1
}

// RegisterModule appends a registration that loads m during Build.
func (b *Builder) RegisterModule(m Module) *Registration {
	if b == nil {
		return b.fail(errNilBuilder())
	}
	if isNil(m) {
		return b.fail(fmt.Errorf("%w: nil module", ErrArgument))
	}
	return b.add(KindModule, ModuleName(m), b.loadModules([]Module{m}))
}

// RegisterModuleOf constructs a T and registers it with RegisterModule. A
// pointer-to-struct T is allocated with new; any other T is its zero value.
func RegisterModuleOf[T Module](b *Builder) *Registration {
	if b == nil {
		return b.fail(errNilBuilder())
	}
	t := reflect.TypeFor[T]()
	switch {
	case t.Kind() == reflect.Interface:
		return b.fail(fmt.Errorf("%w: cannot construct interface type %s", ErrArgument, t))
	case t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct:
		return b.RegisterModule(reflect.New(t.Elem()).Interface().(T))
	case t.Kind() == reflect.Pointer:
		return b.fail(fmt.Errorf("%w: cannot construct %s", ErrArgument, t))
	default:
		var zero T
		return b.RegisterModule(zero)
	}
}

// RegisterAssemblyModules discovers, now, every eligible type in
// assemblies assignable to contract and appends one registration that loads
// all of them in discovery order. Predicates on the returned handle gate the
// whole set. Every discovered type must implement Module.
func (b *Builder) RegisterAssemblyModules(contract reflect.Type, assemblies ...assembly.Assembly) *Registration {
	if b == nil {
		return b.fail(errNilBuilder())
	}
	if b.built {
		return b.fail(fmt.Errorf("%w: cannot register assembly modules", ErrAlreadyBuilt))
	}
	instances, err := b.discoverer.Discover(contract, assemblies)
	if err != nil {
		return b.fail(fmt.Errorf("register assembly modules: %w", err))
	}

	modules := make([]Module, 0, len(instances))
	for _, v := range instances {
		m, ok := v.(Module)
		if !ok {
			return b.fail(fmt.Errorf("%w: %T does not implement %s", ErrContract, v, moduleType))
		}
		modules = append(modules, m)
	}

	ids := make([]string, 0, len(assemblies))
	for _, a := range assemblies {
		ids = append(ids, a.ID())
	}
	for _, m := range modules {
		b.emit(b.buildContext(), EventTypeModuleDiscovered, map[string]any{
			"module": ModuleName(m), "contract": contract.String(), "owner": b.owner,
		})
	}
	b.logger.Debug("Discovered modules", "contract", contract.String(), "assemblies", ids, "count", len(modules))

	description := fmt.Sprintf("%s modules from [%s]", contract, strings.Join(ids, ", "))
	return b.add(KindAssemblyModules, description, b.loadModules(modules))
}

// RegisterAssemblyModulesOf is RegisterAssemblyModules with the contract T.
func RegisterAssemblyModulesOf[T any](b *Builder, assemblies ...assembly.Assembly) *Registration {
	if b == nil {
		return b.fail(errNilBuilder())
	}
	return b.RegisterAssemblyModules(reflect.TypeFor[T](), assemblies...)
}

// RegisterInstance appends a registration of instance under name, exposed
// as its own type and each of as. An empty name defaults to the type name.
func (b *Builder) RegisterInstance(name string, instance any, as ...reflect.Type) *Registration {
	if b == nil {
		return b.fail(errNilBuilder())
	}
	if isNil(instance) {
		return b.fail(fmt.Errorf("%w: nil instance for %q", ErrArgument, name))
	}
	return b.RegisterService(&registry.ServiceRegistration{
		Name:           name,
		Service:        instance,
		InterfaceTypes: as,
	})
}

// RegisterAs registers instance exposed as T.
func RegisterAs[T any](b *Builder, name string, instance T) *Registration {
	if b == nil {
		return b.fail(errNilBuilder())
	}
	return b.RegisterInstance(name, instance, reflect.TypeFor[T]())
}

// RegisterService appends a registration of reg. RegisteredBy defaults to
// the module that owns the builder.
func (b *Builder) RegisterService(reg *registry.ServiceRegistration) *Registration {
	if b == nil {
		return b.fail(errNilBuilder())
	}
	if reg == nil || isNil(reg.Service) {
		return b.fail(fmt.Errorf("%w: nil service registration", ErrArgument))
	}
	cp := *reg
	cp.InterfaceTypes = slices.Clone(reg.InterfaceTypes)
	cp.Tags = slices.Clone(reg.Tags)
	cp.Metadata = maps.Clone(reg.Metadata)
	if cp.RegisteredBy == "" {
		cp.RegisteredBy = b.owner
	}

	name := cp.Name
	if name == "" {
		name = reflect.TypeOf(cp.Service).String()
	}
	return b.add(KindService, "service "+name, func(ctx context.Context, r ComponentRegistry, _ *Report) error {
		return r.Register(ctx, &cp)
	})
}

// RegisterCallback appends a registration that calls fn with the registry.
func (b *Builder) RegisterCallback(description string, fn func(ctx context.Context, r ComponentRegistry) error) *Registration {
	if b == nil {
		return b.fail(errNilBuilder())
	}
	if fn == nil {
		return b.fail(fmt.Errorf("%w: nil callback %q", ErrArgument, description))
	}
	return b.add(KindCallback, description, func(ctx context.Context, r ComponentRegistry, _ *Report) error {
		return fn(ctx, r)
	})
}
