package assembly

import (
	"fmt"
	"reflect"
	"slices"
	"sync"
)

// SymbolTable maps symbol names to the types linked into the running
// binary. Manifests name types; binding a manifest looks each name up here.
type SymbolTable struct {
	mu      sync.RWMutex
	symbols map[string]*TypeInfo
}

// NewSymbolTable returns an empty table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{symbols: make(map[string]*TypeInfo)}
}

// Symbols is the process-wide table that packages populate from init().
var Symbols = NewSymbolTable()

// Add registers info under its name.
func (s *SymbolTable) Add(info *TypeInfo) error {
	if info == nil {
		return fmt.Errorf("%w: nil type info", ErrUnloadableSymbol)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.symbols[info.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateSymbol, info.Name())
	}
	s.symbols[info.Name()] = info
	return nil
}

// Lookup returns the type registered under name.
func (s *SymbolTable) Lookup(name string) (*TypeInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.symbols[name]
	return info, ok
}

// Names returns the registered names in sorted order.
func (s *SymbolTable) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.symbols))
	for name := range s.symbols {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Len returns the number of registered symbols.
func (s *SymbolTable) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.symbols)
}

// Register adds T to table and panics on a duplicate name. It is meant for
// init() blocks, where a duplicate is a programming error.
func Register[T any](table *SymbolTable, opts ...TypeOption) *TypeInfo {
	info := NewTypeInfo(reflect.TypeFor[T](), opts...)
	if err := table.Add(info); err != nil {
		panic(err)
	}
	return info
}
