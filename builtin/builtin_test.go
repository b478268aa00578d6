package builtin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoCodeAlone/modscan"
	"github.com/GoCodeAlone/modscan/assembly"
	"github.com/GoCodeAlone/modscan/registry"
	"github.com/GoCodeAlone/modscan/scan"
)

func newBuilder(t *testing.T) (*modscan.Builder, *registry.Registry) {
	t.Helper()
	reg := registry.NewRegistry(nil)
	b, err := modscan.NewBuilder(modscan.WithRegistry(reg), modscan.WithScanCache(scan.NewCache()))
	require.NoError(t, err)
	return b, reg
}

func TestSymbolsAreLinked(t *testing.T) {
	for _, name := range []string{SymbolLoggerModule, SymbolMemoryCacheModule, SymbolCache, SymbolModuleBase} {
		_, ok := assembly.Symbols.Lookup(name)
		assert.True(t, ok, name)
	}
}

func TestAssemblyEligibleTypes(t *testing.T) {
	types, err := scan.NewCache().EligibleTypes(Assembly())
	require.NoError(t, err)
	names := make([]string, 0, len(types))
	for _, ti := range types {
		names = append(names, ti.Name())
	}
	assert.Equal(t, []string{SymbolLoggerModule, SymbolMemoryCacheModule}, names)
}

func TestBuiltinModulesRegisterDefaults(t *testing.T) {
	b, reg := newBuilder(t)
	modscan.RegisterAssemblyModulesOf[modscan.Module](b, Assembly())

	c, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.True(t, c.IsRegistered(registry.TypeService(LoggerType)))
	assert.True(t, c.IsRegistered(registry.TypeService(CacheType)))

	svc, err := reg.ResolveByName(context.Background(), "cache")
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, svc)

	entries, err := reg.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "builtin.logger", entries[0].Registration.RegisteredBy)
	assert.Equal(t, "builtin.memory-cache", entries[1].Registration.RegisteredBy)
}

func TestBuiltinCacheYieldsToApplicationCache(t *testing.T) {
	b, reg := newBuilder(t)
	own := NewMemoryCache(time.Minute, 0)
	modscan.RegisterAs[Cache](b, "app-cache", own)
	modscan.RegisterModuleOf[*MemoryCacheModule](b)

	c, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.False(t, c.IsRegistered(registry.NamedService("cache")))

	svc, err := reg.ResolveByInterface(context.Background(), CacheType)
	require.NoError(t, err)
	assert.Same(t, own, svc)

	skipped := c.Report().Skipped()
	require.Len(t, skipped, 1)
	assert.Equal(t, "builtin.memory-cache", skipped[0].Owner)
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Hour, 0)

	c.Set(ctx, "a", 1, 0)
	c.Set(ctx, "b", "two", time.Minute)
	c.Set(ctx, "gone", true, time.Nanosecond)
	time.Sleep(time.Millisecond)

	v, ok := c.Get(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	_, ok = c.Get(ctx, "gone")
	assert.False(t, ok, "expired items are not returned")

	require.NoError(t, c.Delete(ctx, "a", "missing"))
	_, ok = c.Get(ctx, "a")
	assert.False(t, ok)

	require.NoError(t, c.Flush(ctx))
	assert.Zero(t, c.Len())
}
