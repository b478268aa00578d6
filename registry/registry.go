package registry

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"sync"
	"time"
)

// Static errors for registry package
var (
	ErrInvalidRegistration         = errors.New("invalid service registration")
	ErrServiceTypeMismatch         = errors.New("service does not implement registered type")
	ErrServiceAlreadyRegistered    = errors.New("service registration conflict: service name already exists")
	ErrUnknownConflictResolution   = errors.New("unknown conflict resolution strategy")
	ErrServiceNotFound             = errors.New("service not found")
	ErrNoServicesFoundForInterface = errors.New("no services found implementing interface")

	// ErrRegistrationDropped is returned when the priority or ignore
	// strategy keeps the existing service. Nothing is stored.
	ErrRegistrationDropped = errors.New("registration dropped by conflict resolution")
)

// Registry implements ServiceRegistry with map-based storage. Every
// service is indexed by name, by its concrete type and by each of its
// interface types.
type Registry struct {
	mu       sync.RWMutex
	services map[string]*ServiceEntry
	byType   map[reflect.Type][]*ServiceEntry
	config   *RegistryConfig
	sequence uint64
}

var _ ServiceRegistry = (*Registry)(nil)

// NewRegistry creates a new service registry. A nil config fails on name
// conflicts.
func NewRegistry(config *RegistryConfig) *Registry {
	if config == nil {
		config = &RegistryConfig{ConflictResolution: ConflictResolutionError}
	}
	return &Registry{
		services: make(map[string]*ServiceEntry),
		byType:   make(map[reflect.Type][]*ServiceEntry),
		config:   config,
	}
}

// Config returns the registry configuration.
func (r *Registry) Config() RegistryConfig {
	return *r.config
}

// Register registers a service with the registry. An empty name defaults
// to the service's type. When the name is taken the configured conflict
// strategy decides; on rename registration.Name is updated to the name
// actually used.
func (r *Registry) Register(ctx context.Context, registration *ServiceRegistration) error {
	if err := validate(registration); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if registration.RegisteredAt.IsZero() {
		registration.RegisteredAt = now
	}

	entry := &ServiceEntry{
		Registration: registration,
		ActualName:   registration.Name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if existing, exists := r.services[registration.Name]; exists {
		switch r.config.ConflictResolution {
		case ConflictResolutionError, "":
			return fmt.Errorf("%w: %s", ErrServiceAlreadyRegistered, registration.Name)
		case ConflictResolutionOverwrite:
			r.remove(existing)
		case ConflictResolutionRename:
			requested := registration.Name
			registration.Name = r.findAvailableName(requested)
			entry.ActualName = registration.Name
			entry.ConflictedNames = []string{requested}
		case ConflictResolutionPriority:
			// Higher priority wins; the existing service keeps its place on a tie.
			if registration.Priority <= existing.Registration.Priority {
				return fmt.Errorf("%w: %s kept at priority %d", ErrRegistrationDropped,
					registration.Name, existing.Registration.Priority)
			}
			r.remove(existing)
		case ConflictResolutionIgnore:
			return fmt.Errorf("%w: %s already registered", ErrRegistrationDropped, registration.Name)
		default:
			return fmt.Errorf("%w: %q", ErrUnknownConflictResolution, r.config.ConflictResolution)
		}
	}

	r.sequence++
	entry.Sequence = r.sequence
	r.services[entry.ActualName] = entry
	for _, t := range uniqueTypes(entry.Types()) {
		r.byType[t] = append(r.byType[t], entry)
	}
	return nil
}

func validate(registration *ServiceRegistration) error {
	if registration == nil {
		return fmt.Errorf("%w: nil registration", ErrInvalidRegistration)
	}
	if registration.Service == nil {
		return fmt.Errorf("%w: %q has no service instance", ErrInvalidRegistration, registration.Name)
	}
	concrete := reflect.TypeOf(registration.Service)
	if registration.Name == "" {
		registration.Name = concrete.String()
	}
	for _, t := range registration.InterfaceTypes {
		if t == nil {
			return fmt.Errorf("%w: %s lists a nil type", ErrInvalidRegistration, registration.Name)
		}
		ok := concrete.AssignableTo(t)
		if t.Kind() == reflect.Interface {
			ok = concrete.Implements(t)
		}
		if !ok {
			return fmt.Errorf("%w: %s (%s) as %s", ErrServiceTypeMismatch, registration.Name, concrete, t)
		}
	}
	return nil
}

func uniqueTypes(types []reflect.Type) []reflect.Type {
	out := make([]reflect.Type, 0, len(types))
	for _, t := range types {
		if !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}

// Unregister removes a service from the registry
func (r *Registry) Unregister(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.services[name]
	if !exists {
		return fmt.Errorf("%w: %s", ErrServiceNotFound, name)
	}
	r.remove(entry)
	return nil
}

func (r *Registry) remove(entry *ServiceEntry) {
	delete(r.services, entry.ActualName)
	for _, t := range uniqueTypes(entry.Types()) {
		entries := slices.DeleteFunc(r.byType[t], func(e *ServiceEntry) bool { return e == entry })
		if len(entries) == 0 {
			delete(r.byType, t)
			continue
		}
		r.byType[t] = entries
	}
}

// IsRegistered reports whether a service matching key is present. A key
// with both a name and a type matches only a service of that name exposed
// as that type. The zero key matches nothing.
func (r *Registry) IsRegistered(key Service) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	switch {
	case key.Name != "":
		entry, ok := r.services[key.Name]
		if !ok {
			return false
		}
		return key.Type == nil || slices.Contains(entry.Types(), key.Type)
	case key.Type != nil:
		return len(r.byType[key.Type]) > 0
	default:
		return false
	}
}

// ResolveByName resolves a service by its registered name
func (r *Registry) ResolveByName(ctx context.Context, name string) (any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.services[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, name)
	}
	return entry.Registration.Service, nil
}

// ResolveByInterface resolves the service exposed as t. When several are,
// the highest priority wins and the earliest registration breaks ties.
func (r *Registry) ResolveByInterface(ctx context.Context, t reflect.Type) (any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := r.byType[t]
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoServicesFoundForInterface, t)
	}
	preferred := entries[0]
	for _, e := range entries[1:] {
		if e.Registration.Priority > preferred.Registration.Priority {
			preferred = e
		}
	}
	return preferred.Registration.Service, nil
}

// ResolveAllByInterface resolves all services exposed as t in
// registration order.
func (r *Registry) ResolveAllByInterface(ctx context.Context, t reflect.Type) ([]any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := r.byType[t]
	services := make([]any, len(entries))
	for i, entry := range entries {
		services[i] = entry.Registration.Service
	}
	return services, nil
}

// List returns all registered services in registration order.
func (r *Registry) List(ctx context.Context) ([]*ServiceEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]*ServiceEntry, 0, len(r.services))
	for _, entry := range r.services {
		entries = append(entries, entry)
	}
	slices.SortFunc(entries, func(a, b *ServiceEntry) int {
		return cmp.Compare(a.Sequence, b.Sequence)
	})
	return entries, nil
}

// Exists checks if a service with the given name exists
func (r *Registry) Exists(ctx context.Context, name string) (bool, error) {
	return r.IsRegistered(NamedService(name)), nil
}

// Len returns the number of registered services.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.services)
}

// findAvailableName finds an available name by appending a suffix
func (r *Registry) findAvailableName(baseName string) string {
	for i := 1; ; i++ {
		candidate := baseName + "-" + strconv.Itoa(i)
		if _, exists := r.services[candidate]; !exists {
			return candidate
		}
	}
}
