package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/GoCodeAlone/modscan"
	"github.com/GoCodeAlone/modscan/builtin"
	"github.com/GoCodeAlone/modscan/manifest"
	"github.com/GoCodeAlone/modscan/registry"
)

// ServiceSummary describes one registered service.
type ServiceSummary struct {
	Name         string   `json:"name"`
	Requested    string   `json:"requested,omitempty"`
	Types        []string `json:"types"`
	RegisteredBy string   `json:"registered_by,omitempty"`
}

// BuildResult is the output of the build command.
type BuildResult struct {
	Report   modscan.Report   `json:"report"`
	Services []ServiceSummary `json:"services"`
}

// NewBuildCommand creates the build command
func NewBuildCommand(v *viper.Viper) *cobra.Command {
	var withBuiltin bool
	cmd := &cobra.Command{
		Use:   "build [manifest...]",
		Short: "Build the modules of the given assemblies",
		Long: `Build registers every plugin module found in the manifests' assemblies,
builds them into a fresh registry and prints the build report followed by
the registered services.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(v, args)
			if err != nil {
				return err
			}
			result, err := build(cmd.Context(), s.logger(cmd.ErrOrStderr()), s, withBuiltin)
			if err != nil {
				return err
			}
			return writeBuildResult(cmd.OutOrStdout(), s.format, result)
		},
	}
	cmd.Flags().BoolVar(&withBuiltin, "builtin", false, "also scan the built-in assembly, after the manifests")
	return cmd
}

// build scans the settings' manifests, and optionally the built-in
// assembly, for modscan.Module implementations and builds them.
func build(ctx context.Context, logger *slog.Logger, s *settings, withBuiltin bool) (*BuildResult, error) {
	reg := registry.NewRegistry(s.cfg.RegistryConfig())
	b, err := modscan.NewBuilder(
		modscan.WithLogger(modscan.NewSlogLogger(logger)),
		modscan.WithConfig(s.cfg),
		modscan.WithRegistry(reg),
	)
	if err != nil {
		return nil, err
	}

	assemblies := manifest.BindAll(nil, s.manifests...)
	if withBuiltin {
		assemblies = append(assemblies, builtin.Assembly())
	}
	modscan.RegisterAssemblyModulesOf[modscan.Module](b, assemblies...)

	container, err := b.Build(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := reg.List(ctx)
	if err != nil {
		return nil, err
	}
	result := &BuildResult{Report: container.Report(), Services: make([]ServiceSummary, 0, len(entries))}
	for _, e := range entries {
		summary := ServiceSummary{
			Name:         e.ActualName,
			RegisteredBy: e.Registration.RegisteredBy,
		}
		if e.ActualName != e.Registration.Name {
			summary.Requested = e.Registration.Name
		}
		for _, t := range e.Types() {
			summary.Types = append(summary.Types, t.String())
		}
		result.Services = append(result.Services, summary)
	}
	return result, nil
}

func writeBuildResult(w io.Writer, format string, result *BuildResult) error {
	if format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "REGISTRATION\tKIND\tOWNER\tRESULT")
	for _, e := range result.Report.Entries {
		outcome := "fired"
		switch {
		case !e.Fired:
			outcome = "skipped: " + e.Reason
		case e.Dropped:
			outcome = "dropped: " + e.Reason
		}
		fmt.Fprintf(tw, "%s%s\t%s\t%s\t%s\n", strings.Repeat("  ", e.Depth), e.Description, e.Kind, e.Owner, outcome)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "SERVICE\tTYPES\tREGISTERED BY")
	for _, svc := range result.Services {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", svc.Name, strings.Join(svc.Types, ", "), svc.RegisteredBy)
	}
	return tw.Flush()
}
