package manifest

import (
	"fmt"

	"github.com/GoCodeAlone/modscan/assembly"
)

// Assembly is a manifest bound to a symbol table. It implements
// assembly.Assembly; entries whose symbol is not linked into the binary are
// reported as a partial load failure.
type Assembly struct {
	manifest *Manifest
	symbols  *assembly.SymbolTable
}

var _ assembly.Assembly = (*Assembly)(nil)

// Bind resolves the manifest against symbols. A nil table means
// assembly.Symbols.
func (m *Manifest) Bind(symbols *assembly.SymbolTable) *Assembly {
	if symbols == nil {
		symbols = assembly.Symbols
	}
	return &Assembly{manifest: m, symbols: symbols}
}

// BindAll binds every manifest against the same table.
func BindAll(symbols *assembly.SymbolTable, manifests ...*Manifest) []assembly.Assembly {
	bound := make([]assembly.Assembly, 0, len(manifests))
	for _, m := range manifests {
		bound = append(bound, m.Bind(symbols))
	}
	return bound
}

// ID implements assembly.Assembly.
func (a *Assembly) ID() string {
	if a == nil || a.manifest == nil {
		return ""
	}
	return a.manifest.Assembly
}

// Manifest returns the manifest the assembly was bound from.
func (a *Assembly) Manifest() *Manifest { return a.manifest }

// DefinedTypes implements assembly.Assembly.
func (a *Assembly) DefinedTypes() ([]*assembly.TypeInfo, error) {
	if a == nil || a.manifest == nil {
		return nil, assembly.ErrInvalidAssembly
	}
	types := make([]*assembly.TypeInfo, len(a.manifest.Types))
	var errs []error
	for i, entry := range a.manifest.Types {
		info, ok := a.symbols.Lookup(entry.Name)
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s", assembly.ErrSymbolNotFound, entry.Name))
			continue
		}
		types[i] = info.Annotate(entry.Abstract, entry.Generated)
	}
	if len(errs) > 0 {
		return types, &assembly.TypeLoadError{
			Assembly:     a.manifest.Assembly,
			Types:        types,
			LoaderErrors: errs,
		}
	}
	return types, nil
}
