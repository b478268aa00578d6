package modscan

import (
	"context"
	"errors"
	"fmt"

	"github.com/GoCodeAlone/modscan/config"
	"github.com/GoCodeAlone/modscan/discovery"
	"github.com/GoCodeAlone/modscan/registry"
	"github.com/GoCodeAlone/modscan/scan"
)

// ComponentRegistry is the registry a builder registers into.
// *registry.Registry implements it.
type ComponentRegistry interface {
	Register(ctx context.Context, registration *registry.ServiceRegistration) error
	IsRegistered(key registry.Service) bool
}

// Option represents a functional option for configuring builders
type Option func(*Builder) error

// Builder collects pending registrations and applies them, in order, in a
// single Build pass. Registration methods never return errors: invalid
// input is recorded on the builder, reported by Err and returned by Build
// before any registration runs.
//
// A Builder is not safe for concurrent use.
type Builder struct {
	logger     Logger
	cache      *scan.Cache
	discoverer *discovery.Discoverer
	registry   ComponentRegistry
	config     *config.Config
	observers  []ObserverFunc

	// Set on the child builders handed to Module.Load. ctx is the context
	// of the Build that loads the module.
	parent *Builder
	owner  string
	depth  int
	ctx    context.Context

	pending []*pending
	err     error
	built   bool
}

// NewBuilder creates a builder. Without options it logs nothing, scans
// through scan.Shared and builds into a fresh registry.Registry that fails
// on duplicate names.
func NewBuilder(opts ...Option) (*Builder, error) {
	b := &Builder{logger: nopLogger{}}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}

	if b.config == nil {
		b.config = config.Default()
	}
	if b.cache == nil {
		if b.config.PrivateCache {
			b.cache = scan.NewCache()
		} else {
			b.cache = scan.Shared()
		}
	}
	if b.registry == nil {
		b.registry = registry.NewRegistry(b.config.RegistryConfig())
	}
	b.discoverer = discovery.New(b.cache, discovery.WithLogger(b.logger))
	return b, nil
}

// WithLogger sets the logger for the builder and its module builders
func WithLogger(logger Logger) Option {
	return func(b *Builder) error {
		if logger == nil {
			return ErrLoggerNotSet
		}
		b.logger = logger
		return nil
	}
}

// WithScanCache sets the scan cache used for assembly discovery
func WithScanCache(cache *scan.Cache) Option {
	return func(b *Builder) error {
		if cache == nil {
			return fmt.Errorf("%w: nil scan cache", ErrArgument)
		}
		b.cache = cache
		return nil
	}
}

// WithRegistry sets the registry Build registers into
func WithRegistry(r ComponentRegistry) Option {
	return func(b *Builder) error {
		if isNil(r) {
			return fmt.Errorf("%w: nil registry", ErrArgument)
		}
		b.registry = r
		return nil
	}
}

// WithObserver adds observer functions for builder events
func WithObserver(observers ...ObserverFunc) Option {
	return func(b *Builder) error {
		for _, o := range observers {
			if o == nil {
				return fmt.Errorf("%w: nil observer", ErrArgument)
			}
		}
		b.observers = append(b.observers, observers...)
		return nil
	}
}

// WithConfig applies cfg: the conflict strategy of the default registry
// and whether the builder scans through a private cache.
func WithConfig(cfg *config.Config) Option {
	return func(b *Builder) error {
		if cfg == nil {
			return fmt.Errorf("%w: nil config", ErrArgument)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		b.config = cfg
		return nil
	}
}

// Logger returns the builder's logger.
func (b *Builder) Logger() Logger { return b.logger }

// Cache returns the scan cache used for discovery.
func (b *Builder) Cache() *scan.Cache { return b.cache }

// Owner returns the name of the module a child builder was created for,
// or "" for a root builder.
func (b *Builder) Owner() string { return b.owner }

// Err returns every error recorded by registration calls so far.
func (b *Builder) Err() error { return b.err }

// Pending returns the number of registrations waiting for Build.
func (b *Builder) Pending() int { return len(b.pending) }

// fail records err on b and returns a detached handle carrying it. A nil b
// only gets the handle.
func (b *Builder) fail(err error) *Registration {
	if b == nil {
		return &Registration{err: err}
	}
	b.err = errors.Join(b.err, err)
	b.logger.Warn("Registration rejected", "owner", b.owner, "error", err)
	return &Registration{b: b, err: err}
}

// buildContext returns the context of the Build loading b's module, or
// context.Background before Build.
func (b *Builder) buildContext() context.Context {
	if b.ctx == nil {
		return context.Background()
	}
	return b.ctx
}

func errNilBuilder() error {
	return fmt.Errorf("%w: nil builder", ErrArgument)
}

func (b *Builder) add(kind, description string, run runFunc) *Registration {
	if b.built {
		return b.fail(fmt.Errorf("%w: cannot add %s", ErrAlreadyBuilt, description))
	}
	p := &pending{kind: kind, description: description, run: run}
	b.pending = append(b.pending, p)
	return &Registration{b: b, p: p}
}

// Build applies every pending registration, in order, to the registry and
// returns the resulting container. Each registration's predicates are
// evaluated once, left to right, immediately before it would run; the
// first that returns false skips it. A callback error stops the build.
//
// Build consumes the builder: a second call returns ErrAlreadyBuilt.
func (b *Builder) Build(ctx context.Context) (*Container, error) {
	if b.parent != nil {
		return nil, ErrNestedBuild
	}
	if b.built {
		return nil, ErrAlreadyBuilt
	}
	b.built = true
	if b.err != nil {
		return nil, b.err
	}

	report := &Report{}
	if err := b.apply(ctx, b.registry, report); err != nil {
		b.logger.Error("Build failed", "error", err)
		return nil, err
	}

	fired, skipped := report.Counts()
	b.logger.Info("Container built", "fired", fired, "skipped", skipped)
	b.emit(ctx, EventTypeContainerBuilt, map[string]any{"fired": fired, "skipped": skipped})
	return &Container{registry: b.registry, report: *report}, nil
}

func (b *Builder) apply(ctx context.Context, reg ComponentRegistry, report *Report) error {
	work := b.pending
	b.pending = nil

	for _, p := range work {
		if err := ctx.Err(); err != nil {
			return err
		}
		entry := ReportEntry{
			Kind:        p.kind,
			Description: p.description,
			Owner:       b.owner,
			Depth:       b.depth,
			Predicates:  len(p.guards),
			DeclinedBy:  -1,
		}

		if i := p.declinedBy(reg); i >= 0 {
			entry.DeclinedBy = i
			entry.Reason = p.guards[i].label
			report.Entries = append(report.Entries, entry)
			b.logger.Debug("Registration skipped", "registration", p.description, "owner", b.owner, "reason", entry.Reason)
			b.emit(ctx, EventTypeRegistrationSkipped, map[string]any{
				"registration": p.description, "kind": p.kind, "owner": b.owner, "reason": entry.Reason,
			})
			continue
		}

		entry.Fired = true
		at := len(report.Entries)
		report.Entries = append(report.Entries, entry)
		if err := p.run(ctx, reg, report); err != nil {
			if p.kind != KindService || !errors.Is(err, registry.ErrRegistrationDropped) {
				return fmt.Errorf("%w: %s: %w", ErrRegistrationFailed, p.description, err)
			}
			report.Entries[at].Dropped = true
			report.Entries[at].Reason = err.Error()
			b.logger.Debug("Registration dropped", "registration", p.description, "owner", b.owner, "reason", err.Error())
			b.emit(ctx, EventTypeRegistrationDropped, map[string]any{
				"registration": p.description, "kind": p.kind, "owner": b.owner, "reason": err.Error(),
			})
			continue
		}
		b.logger.Debug("Registration applied", "registration", p.description, "owner", b.owner)
		b.emit(ctx, EventTypeRegistrationApplied, map[string]any{
			"registration": p.description, "kind": p.kind, "owner": b.owner,
		})
	}
	return nil
}

// child returns the builder handed to m.Load.
func (b *Builder) child(ctx context.Context, name string, reg ComponentRegistry) *Builder {
	return &Builder{
		ctx:        ctx,
		logger:     b.logger,
		cache:      b.cache,
		discoverer: b.discoverer,
		registry:   reg,
		config:     b.config,
		observers:  b.observers,
		parent:     b,
		owner:      name,
		depth:      b.depth + 1,
	}
}

func (b *Builder) loadModules(modules []Module) runFunc {
	return func(ctx context.Context, reg ComponentRegistry, report *Report) error {
		for _, m := range modules {
			if err := b.loadModule(ctx, m, reg, report); err != nil {
				return err
			}
		}
		return nil
	}
}

func (b *Builder) loadModule(ctx context.Context, m Module, reg ComponentRegistry, report *Report) error {
	name := ModuleName(m)
	child := b.child(ctx, name, reg)
	defer func() { child.built = true }()

	if err := m.Load(child); err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}
	if child.err != nil {
		return fmt.Errorf("load %s: %w", name, child.err)
	}
	return child.apply(ctx, reg, report)
}
