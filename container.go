package modscan

import (
	"slices"

	"github.com/GoCodeAlone/modscan/registry"
)

// ReportEntry records what Build did with one pending registration.
// Entries of registrations made by a module follow the module's own entry
// with Depth one higher.
type ReportEntry struct {
	Kind        string `json:"kind"`
	Description string `json:"description"`
	Owner       string `json:"owner,omitempty"`
	Depth       int    `json:"depth"`
	Predicates  int    `json:"predicates"`
	Fired       bool   `json:"fired"`
	DeclinedBy  int    `json:"declined_by"`       // Index of the predicate that declined, -1 when fired
	Dropped     bool   `json:"dropped,omitempty"` // Fired, but the registry's conflict strategy discarded the service
	Reason      string `json:"reason,omitempty"`
}

// Report lists every registration a build considered, in the order it
// considered them.
type Report struct {
	Entries []ReportEntry `json:"entries"`
}

// Fired returns the entries whose registration ran.
func (r Report) Fired() []ReportEntry {
	return slices.DeleteFunc(slices.Clone(r.Entries), func(e ReportEntry) bool { return !e.Fired })
}

// Skipped returns the entries a predicate declined.
func (r Report) Skipped() []ReportEntry {
	return slices.DeleteFunc(slices.Clone(r.Entries), func(e ReportEntry) bool { return e.Fired })
}

// Dropped returns the fired entries whose service the registry discarded.
func (r Report) Dropped() []ReportEntry {
	return slices.DeleteFunc(slices.Clone(r.Entries), func(e ReportEntry) bool { return !e.Dropped })
}

// Counts returns the number of fired and skipped entries.
func (r Report) Counts() (fired, skipped int) {
	for _, e := range r.Entries {
		if e.Fired {
			fired++
		} else {
			skipped++
		}
	}
	return fired, skipped
}

// Container is the result of a build.
type Container struct {
	registry ComponentRegistry
	report   Report
}

// Registry returns the registry the build registered into.
func (c *Container) Registry() ComponentRegistry { return c.registry }

// IsRegistered reports whether the registry holds a service matching key.
func (c *Container) IsRegistered(key registry.Service) bool {
	return c.registry.IsRegistered(key)
}

// Report returns what the build did.
func (c *Container) Report() Report {
	return Report{Entries: slices.Clone(c.report.Entries)}
}
