package modscan

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/GoCodeAlone/modscan/registry"
)

// Predicate decides, at build time, whether a registration runs. It sees
// the registry as left by every registration applied before it.
type Predicate func(r ComponentRegistry) bool

type guard struct {
	label string
	test  Predicate
}

// Registration is the handle for one pending registration. Its methods
// chain; a handle returned by a failed registration call is detached and
// ignores them.
type Registration struct {
	b   *Builder
	p   *pending
	err error
}

// Detached reports whether the call that returned r failed.
func (r *Registration) Detached() bool { return r.p == nil }

// Err returns the errors recorded by the call that returned r and by the
// predicates chained on it. They are also recorded on the builder, except
// when the builder is nil.
func (r *Registration) Err() error { return r.err }

// Description names the registration in reports.
func (r *Registration) Description() string {
	if r.p == nil {
		return ""
	}
	return r.p.description
}

// OnlyIf adds p; the registration runs only if every predicate holds.
func (r *Registration) OnlyIf(p Predicate) *Registration {
	return r.addGuard(guard{label: "only-if", test: p})
}

// IfNotRegistered skips the registration when a service exposed as
// service is already registered.
func (r *Registration) IfNotRegistered(service reflect.Type) *Registration {
	if r.p == nil {
		return r
	}
	g, err := notRegistered(registry.TypeService(service))
	if err != nil {
		return r.reject(err)
	}
	return r.addGuard(g)
}

// IfNotRegisteredNamed skips the registration when a service named name
// is already registered.
func (r *Registration) IfNotRegisteredNamed(name string) *Registration {
	if r.p == nil {
		return r
	}
	g, err := notRegistered(registry.NamedService(name))
	if err != nil {
		return r.reject(err)
	}
	return r.addGuard(g)
}

func (r *Registration) addGuard(g guard) *Registration {
	if r.p == nil {
		return r
	}
	if err := r.b.attach(r.p, g); err != nil {
		return r.reject(err)
	}
	return r
}

func (r *Registration) reject(err error) *Registration {
	r.err = errors.Join(r.err, err)
	r.b.fail(err)
	return r
}

func (b *Builder) attach(p *pending, g guard) error {
	if g.test == nil {
		return fmt.Errorf("%w: nil predicate", ErrArgument)
	}
	if b.built {
		return fmt.Errorf("%w: cannot add a predicate to %s", ErrAlreadyBuilt, p.description)
	}
	p.guards = append(p.guards, g)
	return nil
}

func notRegistered(key registry.Service) (guard, error) {
	if key.Type == nil && key.Name == "" {
		return guard{}, fmt.Errorf("%w: empty service key", ErrArgument)
	}
	return guard{
		label: "not-registered: " + key.String(),
		test:  func(r ComponentRegistry) bool { return !r.IsRegistered(key) },
	}, nil
}

// OnlyIf adds p to the most recently added pending registration on b.
func OnlyIf(b *Builder, p Predicate) error {
	return attachLast(b, guard{label: "only-if", test: p})
}

// IfNotRegistered makes the most recently added pending registration on b
// conditional on no service being exposed as service.
func IfNotRegistered(b *Builder, service reflect.Type) error {
	g, err := notRegistered(registry.TypeService(service))
	if err != nil {
		return err
	}
	return attachLast(b, g)
}

// IfNotRegisteredNamed makes the most recently added pending registration
// on b conditional on no service being named name.
func IfNotRegisteredNamed(b *Builder, name string) error {
	g, err := notRegistered(registry.NamedService(name))
	if err != nil {
		return err
	}
	return attachLast(b, g)
}

func attachLast(b *Builder, g guard) error {
	if b == nil {
		return fmt.Errorf("%w: nil builder", ErrArgument)
	}
	if g.test == nil {
		return fmt.Errorf("%w: nil predicate", ErrArgument)
	}
	if b.built {
		return ErrAlreadyBuilt
	}
	if len(b.pending) == 0 {
		return ErrNoPendingRegistration
	}
	return b.attach(b.pending[len(b.pending)-1], g)
}
