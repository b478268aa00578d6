// Package builtin provides plugin modules that ship with modscan: a logger
// and an in-memory cache, each registered only when the application has not
// provided its own.
package builtin

import (
	"log/slog"
	"reflect"
	"time"

	"github.com/GoCodeAlone/modscan"
	"github.com/GoCodeAlone/modscan/assembly"
)

// AssemblyID identifies the built-in assembly.
const AssemblyID = "builtin"

// Symbol names under which the built-in types are linked.
const (
	SymbolLoggerModule      = "builtin.LoggerModule"
	SymbolMemoryCacheModule = "builtin.MemoryCacheModule"
	SymbolCache             = "builtin.Cache"
	SymbolModuleBase        = "builtin.moduleBase"
)

var (
	CacheType  = reflect.TypeFor[Cache]()
	LoggerType = reflect.TypeFor[modscan.Logger]()
)

func init() {
	assembly.Register[*LoggerModule](assembly.Symbols, assembly.WithName(SymbolLoggerModule))
	assembly.Register[*MemoryCacheModule](assembly.Symbols, assembly.WithName(SymbolMemoryCacheModule))
	assembly.Register[Cache](assembly.Symbols, assembly.WithName(SymbolCache))
	assembly.Register[moduleBase](assembly.Symbols, assembly.WithName(SymbolModuleBase), assembly.Abstract())
}

// Assembly returns the built-in assembly, declared from the process symbol
// table.
func Assembly() assembly.Assembly {
	names := []string{SymbolModuleBase, SymbolCache, SymbolLoggerModule, SymbolMemoryCacheModule}
	entries := make([]assembly.Entry, 0, len(names))
	for _, name := range names {
		info, ok := assembly.Symbols.Lookup(name)
		if !ok {
			entries = append(entries, assembly.Unloadable(name, assembly.ErrSymbolNotFound))
			continue
		}
		entries = append(entries, assembly.Info(info))
	}
	return assembly.New(AssemblyID, entries...)
}

// moduleBase is embedded by the built-in modules. It is declared abstract
// so scans never instantiate it.
type moduleBase struct{}

func (moduleBase) Load(*modscan.Builder) error { return nil }

// LoggerModule registers a slog-backed modscan.Logger named "logger"
// unless one is already registered.
type LoggerModule struct {
	moduleBase
}

func (*LoggerModule) Name() string { return "builtin.logger" }

func (*LoggerModule) Load(b *modscan.Builder) error {
	modscan.RegisterAs(b, "logger", modscan.NewSlogLogger(slog.Default())).
		IfNotRegistered(LoggerType)
	return nil
}

// MemoryCacheModule registers a MemoryCache as Cache, named "cache",
// unless a Cache is already registered. Zero durations select the package
// defaults.
type MemoryCacheModule struct {
	moduleBase
	Expiration      time.Duration
	CleanupInterval time.Duration
}

func (*MemoryCacheModule) Name() string { return "builtin.memory-cache" }

func (m *MemoryCacheModule) Load(b *modscan.Builder) error {
	expiration, cleanup := m.Expiration, m.CleanupInterval
	if expiration == 0 {
		expiration = DefaultExpiration
	}
	if cleanup == 0 {
		cleanup = DefaultCleanupInterval
	}
	b.Logger().Debug("Providing memory cache", "expiration", expiration, "cleanup", cleanup)
	modscan.RegisterAs[Cache](b, "cache", NewMemoryCache(expiration, cleanup)).
		IfNotRegistered(CacheType)
	return nil
}
