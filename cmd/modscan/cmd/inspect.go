package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/GoCodeAlone/modscan"
	"github.com/GoCodeAlone/modscan/assembly"
	"github.com/GoCodeAlone/modscan/manifest"
	"github.com/GoCodeAlone/modscan/scan"
)

// Verdicts reported by inspect, besides "filtered:<reason>".
const (
	VerdictUnresolved = "unresolved"
	VerdictEligible   = "eligible"
	VerdictModule     = "module"
)

var moduleType = reflect.TypeFor[modscan.Module]()

// TypeVerdict is the outcome of scanning one declared type.
type TypeVerdict struct {
	Assembly string `json:"assembly"`
	Source   string `json:"source"`
	Name     string `json:"name"`
	Verdict  string `json:"verdict"`
}

// NewInspectCommand creates the inspect command
func NewInspectCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [manifest...]",
		Short: "Show how each declared type is scanned",
		Long: `Inspect binds each manifest to the linked symbols and reports, for every
declared type, whether it is unresolved, filtered out of scans (and why),
eligible, or an eligible plugin module.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(v, args)
			if err != nil {
				return err
			}
			verdicts, err := Inspect(s.manifests...)
			if err != nil {
				return err
			}
			return writeVerdicts(cmd.OutOrStdout(), s.format, verdicts)
		},
	}
}

// Inspect classifies every type declared by the manifests, in declaration
// order, against the process symbol table and the default scan filter.
func Inspect(manifests ...*manifest.Manifest) ([]TypeVerdict, error) {
	var verdicts []TypeVerdict
	for _, m := range manifests {
		// Partial loads are expected here: unresolved entries are nil.
		types, err := m.Bind(assembly.Symbols).DefinedTypes()
		if types == nil && err != nil {
			return nil, err
		}
		for i, entry := range m.Types {
			verdicts = append(verdicts, TypeVerdict{
				Assembly: m.Assembly,
				Source:   m.Source,
				Name:     entry.Name,
				Verdict:  verdictOf(types[i]),
			})
		}
	}
	return verdicts, nil
}

func verdictOf(t *assembly.TypeInfo) string {
	if t == nil {
		return VerdictUnresolved
	}
	if reason := scan.Verdict(scan.DefaultChecks, t); reason != "" {
		return "filtered:" + reason
	}
	if t.AssignableTo(moduleType) {
		return VerdictModule
	}
	return VerdictEligible
}

func writeVerdicts(w io.Writer, format string, verdicts []TypeVerdict) error {
	if format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(verdicts)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ASSEMBLY\tTYPE\tVERDICT")
	for _, v := range verdicts {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", v.Assembly, v.Name, v.Verdict)
	}
	return tw.Flush()
}
