// Package scan memoizes, per assembly, the types eligible for plugin
// scanning.
package scan

import "github.com/GoCodeAlone/modscan/assembly"

// Check is one eligibility rule. Keep reports whether a type passes;
// Reason names the rule in diagnostics when it does not.
type Check struct {
	Reason string
	Keep   func(*assembly.TypeInfo) bool
}

// DefaultChecks is the eligibility filter, cheapest rule first so the
// field walk behind IsSynthesized only runs for concrete candidates.
var DefaultChecks = []Check{
	{Reason: "not-class", Keep: (*assembly.TypeInfo).IsClass},
	{Reason: "abstract", Keep: func(t *assembly.TypeInfo) bool { return !t.IsAbstract() }},
	{Reason: "delegate", Keep: func(t *assembly.TypeInfo) bool { return !t.IsDelegate() }},
	{Reason: "synthesized", Keep: func(t *assembly.TypeInfo) bool { return !t.IsSynthesized() }},
}

// Verdict applies checks in order and returns the reason of the first one
// that rejects t, or "" when t is eligible.
func Verdict(checks []Check, t *assembly.TypeInfo) string {
	for _, c := range checks {
		if !c.Keep(t) {
			return c.Reason
		}
	}
	return ""
}

// Eligible returns the types of ts that pass every check, in order.
func Eligible(checks []Check, ts []*assembly.TypeInfo) []*assembly.TypeInfo {
	out := make([]*assembly.TypeInfo, 0, len(ts))
	for _, t := range ts {
		if Verdict(checks, t) == "" {
			out = append(out, t)
		}
	}
	return out
}
