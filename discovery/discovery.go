// Package discovery finds and instantiates plugin types that satisfy a
// contract across a list of assemblies.
package discovery

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/GoCodeAlone/modscan/assembly"
	"github.com/GoCodeAlone/modscan/scan"
)

var (
	ErrContract = errors.New("invalid discovery contract")
	ErrArgument = errors.New("invalid argument")
)

// Logger is the subset of the framework logger the discoverer writes to.
type Logger interface {
	Debug(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}

// Option configures a Discoverer.
type Option func(*Discoverer)

// WithLogger sets the logger used for per-assembly counts.
func WithLogger(l Logger) Option {
	return func(d *Discoverer) {
		if l != nil {
			d.logger = l
		}
	}
}

// Discoverer scans assemblies through a scan.Cache.
type Discoverer struct {
	cache  *scan.Cache
	logger Logger
}

// New returns a Discoverer backed by cache, or by scan.Shared when cache
// is nil.
func New(cache *scan.Cache, opts ...Option) *Discoverer {
	if cache == nil {
		cache = scan.Shared()
	}
	d := &Discoverer{cache: cache, logger: nopLogger{}}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Cache returns the scan cache the discoverer reads from.
func (d *Discoverer) Cache() *scan.Cache { return d.cache }

// ValidateContract reports whether contract can be discovered: an
// interface, a named struct or a pointer to a struct.
func ValidateContract(contract reflect.Type) error {
	if contract == nil {
		return fmt.Errorf("%w: contract is nil", ErrContract)
	}
	switch contract.Kind() {
	case reflect.Interface:
		return nil
	case reflect.Struct:
		if contract.Name() == "" {
			return fmt.Errorf("%w: %s is an unnamed struct", ErrContract, contract)
		}
		return nil
	case reflect.Pointer:
		if contract.Elem().Kind() == reflect.Struct {
			return nil
		}
	}
	return fmt.Errorf("%w: %s has kind %s", ErrContract, contract, contract.Kind())
}

// DiscoverTypes returns the eligible types assignable to contract, in
// assembly order and then declaration order. Nothing is instantiated.
func (d *Discoverer) DiscoverTypes(contract reflect.Type, assemblies []assembly.Assembly) ([]*assembly.TypeInfo, error) {
	if err := ValidateContract(contract); err != nil {
		return nil, err
	}
	for i, a := range assemblies {
		if a == nil || a.ID() == "" {
			return nil, fmt.Errorf("%w: assembly at index %d: %w", ErrArgument, i, assembly.ErrInvalidAssembly)
		}
	}

	var matched []*assembly.TypeInfo
	for _, a := range assemblies {
		eligible, err := d.cache.EligibleTypes(a)
		if err != nil {
			return nil, fmt.Errorf("discover %s in %s: %w", contract, a.ID(), err)
		}
		before := len(matched)
		for _, t := range eligible {
			if t.AssignableTo(contract) {
				matched = append(matched, t)
			}
		}
		d.logger.Debug("Scanned assembly", "assembly", a.ID(), "contract", contract.String(),
			"eligible", len(eligible), "matched", len(matched)-before)
	}
	return matched, nil
}

// Discover instantiates every type DiscoverTypes returns. An instantiation
// error aborts discovery; panics raised by constructors propagate.
func (d *Discoverer) Discover(contract reflect.Type, assemblies []assembly.Assembly) ([]any, error) {
	types, err := d.DiscoverTypes(contract, assemblies)
	if err != nil {
		return nil, err
	}
	instances := make([]any, 0, len(types))
	for _, t := range types {
		v, err := t.Instantiate()
		if err != nil {
			return nil, fmt.Errorf("instantiate %s: %w", t.Name(), err)
		}
		instances = append(instances, v)
	}
	return instances, nil
}

// DiscoverOf discovers instances of T.
func DiscoverOf[T any](d *Discoverer, assemblies ...assembly.Assembly) ([]T, error) {
	instances, err := d.Discover(reflect.TypeFor[T](), assemblies)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(instances))
	for _, v := range instances {
		t, ok := v.(T)
		if !ok {
			return nil, fmt.Errorf("%w: %T does not satisfy %s", ErrContract, v, reflect.TypeFor[T]())
		}
		out = append(out, t)
	}
	return out, nil
}
