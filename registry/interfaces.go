// Package registry is the component registry that conditional module
// registrations are built into.
package registry

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"
)

// ServiceRegistry defines service registration and lookup.
type ServiceRegistry interface {
	// Register adds a service, applying the configured conflict strategy
	// when its name is already taken. A service the strategy discards
	// yields ErrRegistrationDropped.
	Register(ctx context.Context, registration *ServiceRegistration) error

	// Unregister removes a service by its registered name.
	Unregister(ctx context.Context, name string) error

	// IsRegistered reports whether a service matching key is present.
	IsRegistered(key Service) bool

	// ResolveByName resolves a service by its registered name.
	ResolveByName(ctx context.Context, name string) (any, error)

	// ResolveByInterface resolves the preferred service exposed as t.
	ResolveByInterface(ctx context.Context, t reflect.Type) (any, error)

	// ResolveAllByInterface resolves every service exposed as t, in
	// registration order.
	ResolveAllByInterface(ctx context.Context, t reflect.Type) ([]any, error)

	// List returns all registered services in registration order.
	List(ctx context.Context) ([]*ServiceEntry, error)

	// Exists checks if a service with the given name exists.
	Exists(ctx context.Context, name string) (bool, error)
}

// ServiceRegistration represents a service registration request.
type ServiceRegistration struct {
	Name           string         `json:"name"`
	Service        any            `json:"-"`
	InterfaceTypes []reflect.Type `json:"-"` // Additional types the service is exposed as
	Priority       int            `json:"priority"`
	Tags           []string       `json:"tags,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`

	RegisteredBy string    `json:"registered_by"` // Module that registered this service
	RegisteredAt time.Time `json:"registered_at"`
}

// ServiceEntry represents a registered service.
type ServiceEntry struct {
	Registration *ServiceRegistration `json:"registration"`

	// ActualName is the name after conflict resolution; ConflictedNames
	// holds the name that was requested when it differs.
	ActualName      string   `json:"actual_name"`
	ConflictedNames []string `json:"conflicted_names,omitempty"`

	// Sequence orders entries by registration.
	Sequence  uint64    `json:"sequence"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Types returns the concrete type of the service followed by its
// interface types.
func (e *ServiceEntry) Types() []reflect.Type {
	types := make([]reflect.Type, 0, 1+len(e.Registration.InterfaceTypes))
	if e.Registration.Service != nil {
		types = append(types, reflect.TypeOf(e.Registration.Service))
	}
	return append(types, e.Registration.InterfaceTypes...)
}

// Service identifies a registered service by name, by type, or by both.
type Service struct {
	Name string
	Type reflect.Type
}

// TypeService keys a service by the type it is exposed as.
func TypeService(t reflect.Type) Service { return Service{Type: t} }

// NamedService keys a service by its registered name.
func NamedService(name string) Service { return Service{Name: name} }

// ServiceOf keys a service by the type T.
func ServiceOf[T any]() Service { return TypeService(reflect.TypeFor[T]()) }

func (s Service) String() string {
	switch {
	case s.Name != "" && s.Type != nil:
		return s.Name + " (" + s.Type.String() + ")"
	case s.Type != nil:
		return s.Type.String()
	default:
		return s.Name
	}
}

// ConflictResolution defines how service name conflicts are resolved.
type ConflictResolution string

const (
	ConflictResolutionError     ConflictResolution = "error"     // Fail the registration
	ConflictResolutionOverwrite ConflictResolution = "overwrite" // Replace existing service
	ConflictResolutionRename    ConflictResolution = "rename"    // Auto-rename the new service
	ConflictResolutionPriority  ConflictResolution = "priority"  // Use priority to decide
	ConflictResolutionIgnore    ConflictResolution = "ignore"    // Ignore the new registration
)

var conflictResolutions = []ConflictResolution{
	ConflictResolutionError,
	ConflictResolutionOverwrite,
	ConflictResolutionRename,
	ConflictResolutionPriority,
	ConflictResolutionIgnore,
}

// ParseConflictResolution parses a strategy name, case-insensitively.
// The empty string selects ConflictResolutionError.
func ParseConflictResolution(s string) (ConflictResolution, error) {
	if s == "" {
		return ConflictResolutionError, nil
	}
	for _, c := range conflictResolutions {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownConflictResolution, s)
}

// RegistryConfig represents configuration for the service registry.
type RegistryConfig struct {
	ConflictResolution ConflictResolution `json:"conflict_resolution"`
}
