package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/GoCodeAlone/modscan/config"
	"github.com/GoCodeAlone/modscan/manifest"
)

// Version information
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

var (
	ErrUnknownFormat = errors.New("unknown output format")
	ErrNoManifests   = errors.New("no manifests given")
)

// NewRootCommand creates the root command for the modscan application
func NewRootCommand() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "modscan",
		Short: "Modscan - Inspect and build plugin assemblies",
		Long: `Modscan discovers plugin modules declared in assembly manifests and
builds them into a component registry, honoring their registration guards.`,
		Version:       PrintVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringP("config", "c", "", "config file (.yaml or .toml)")
	flags.StringP("format", "f", FormatText, "output format: text or json")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String("conflict-resolution", "", "strategy for duplicate service names")
	for _, name := range []string{"config", "format", "log-level", "conflict-resolution"} {
		_ = v.BindPFlag(name, flags.Lookup(name))
	}

	cmd.AddCommand(NewInspectCommand(v))
	cmd.AddCommand(NewBuildCommand(v))
	return cmd
}

// PrintVersion prints version information
func PrintVersion() string {
	return fmt.Sprintf("v%s (commit: %s, built on: %s)", Version, Commit, Date)
}

// settings is what a subcommand runs with after flags, environment and the
// config file have been merged.
type settings struct {
	cfg       *config.Config
	format    string
	manifests []*manifest.Manifest
}

// loadSettings merges the config file and MODSCAN_* environment with the
// flags, which win, and loads every manifest named on the command line or
// in the config.
func loadSettings(v *viper.Viper, args []string) (*settings, error) {
	format := strings.ToLower(v.GetString("format"))
	if format != FormatText && format != FormatJSON {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	var files []string
	if path := v.GetString("config"); path != "" {
		files = append(files, path)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return nil, err
	}
	if level := v.GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	if strategy := v.GetString("conflict-resolution"); strategy != "" {
		cfg.ConflictResolution = strategy
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	paths := append(append([]string{}, args...), cfg.Manifests...)
	if len(paths) == 0 {
		return nil, ErrNoManifests
	}
	manifests, err := manifest.LoadAll(paths...)
	if err != nil {
		return nil, err
	}
	return &settings{cfg: cfg, format: format, manifests: manifests}, nil
}

func (s *settings) logger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: s.cfg.SlogLevel()}))
}
