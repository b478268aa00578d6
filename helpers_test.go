package modscan

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"testing"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/stretchr/testify/require"

	"github.com/GoCodeAlone/modscan/registry"
	"github.com/GoCodeAlone/modscan/scan"
)

type cacheService interface {
	Get(key string) (any, bool)
}

type memCache struct{ owner string }

func (c *memCache) Get(string) (any, bool) { return c.owner, true }

var cacheType = reflect.TypeFor[cacheService]()

// alphaModule, betaModule and gammaModule register a service named after
// themselves so tests can observe load order through the registry.
type alphaModule struct{}

func (*alphaModule) Load(b *Builder) error {
	b.RegisterInstance("alpha", &memCache{owner: "alpha"})
	return nil
}

type betaModule struct{}

func (*betaModule) Load(b *Builder) error {
	b.RegisterInstance("beta", &memCache{owner: "beta"})
	return nil
}

type gammaModule struct{}

func (*gammaModule) Name() string { return "gamma" }

func (*gammaModule) Load(b *Builder) error {
	b.RegisterInstance("gamma", &memCache{owner: "gamma"})
	return nil
}

// fallbackCacheModule provides a cache only when nothing else has.
type fallbackCacheModule struct{}

func (*fallbackCacheModule) Name() string { return "fallback-cache" }

func (*fallbackCacheModule) Load(b *Builder) error {
	RegisterAs[cacheService](b, "fallback-cache", &memCache{owner: "fallback"})
	return IfNotRegistered(b, cacheType)
}

type valueModule struct{}

func (valueModule) Load(b *Builder) error {
	b.RegisterInstance("value", &memCache{owner: "value"})
	return nil
}

type notAModule struct{}

func (*notAModule) Get(string) (any, bool) { return nil, false }

type recordingLogger struct {
	mu      sync.Mutex
	entries []string
}

func (l *recordingLogger) record(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, level+": "+msg)
}

func (l *recordingLogger) Info(msg string, _ ...any)  { l.record("INFO", msg) }
func (l *recordingLogger) Error(msg string, _ ...any) { l.record("ERROR", msg) }
func (l *recordingLogger) Warn(msg string, _ ...any)  { l.record("WARN", msg) }
func (l *recordingLogger) Debug(msg string, _ ...any) { l.record("DEBUG", msg) }

func (l *recordingLogger) has(entry string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e == entry {
			return true
		}
	}
	return false
}

type eventRecorder struct {
	mu     sync.Mutex
	events []cloudevents.Event
}

func (r *eventRecorder) observe(_ context.Context, e cloudevents.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *eventRecorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type())
	}
	return out
}

// newTestBuilder returns a builder with a private scan cache and registry.
func newTestBuilder(t *testing.T, opts ...Option) (*Builder, *registry.Registry) {
	t.Helper()
	reg := registry.NewRegistry(nil)
	opts = append([]Option{WithScanCache(scan.NewCache()), WithRegistry(reg)}, opts...)
	b, err := NewBuilder(opts...)
	require.NoError(t, err)
	return b, reg
}

func serviceNames(t *testing.T, reg *registry.Registry) []string {
	t.Helper()
	entries, err := reg.List(context.Background())
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.ActualName)
	}
	return names
}

func counting(calls *int, result bool) Predicate {
	return func(ComponentRegistry) bool {
		*calls++
		return result
	}
}

func describe(entries []ReportEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, fmt.Sprintf("%d:%s:%t", e.Depth, e.Description, e.Fired))
	}
	return out
}
