package cli

import (
	"fmt"
	"slices"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/roach88/querybuilder/internal/config"
	"github.com/roach88/querybuilder/internal/logger"
	"github.com/roach88/querybuilder/internal/querytree"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "text" | "json" | "yaml"
	ConfigFile string

	// Settings and Logger are resolved before any subcommand runs.
	// Commands built on their own fall back to config.Defaults and a
	// disabled logger.
	Settings *config.Settings
	Logger   zerolog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// NewRootCommand creates the root command for the qb CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{Logger: zerolog.Nop()}

	cmd := &cobra.Command{
		Use:   "qb",
		Short: "qb - nested AND/OR query builder",
		Long: `Build, edit, render and validate nested AND/OR query trees.

A query is a root of conditions and groups joined by AND or OR.
Conditions pick a field, operator and value from a field catalog.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return opts.resolve(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default ./qb.yaml)")

	// Settings flags, resolved through config.Load over QB_* env and the config file
	cmd.PersistentFlags().String("catalog", "", "field catalog file (.cue, .yaml); empty selects the built-in catalog")
	cmd.PersistentFlags().String("log-level", logger.LogLevelWarn, "log level (debug|info|warn|error|disabled)")
	cmd.PersistentFlags().String("log-format", logger.ConsoleLoggingFormat, "log format (console|json)")
	cmd.PersistentFlags().String("ids", config.IDsUUID, "id strategy for new nodes (uuid|sequence)")
	cmd.PersistentFlags().String("id-prefix", querytree.DefaultSequencePrefix, "prefix for sequence ids")

	// Add subcommands
	cmd.AddCommand(NewNewCommand(opts))
	cmd.AddCommand(NewCatalogCommand(opts))
	cmd.AddCommand(NewApplyCommand(opts))
	cmd.AddCommand(NewRenderCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// resolve loads settings and builds the logger. Verbose mode forces debug
// logging.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	settings, err := config.Load(config.Options{File: o.ConfigFile, Flags: cmd.Flags()})
	if err != nil {
		return WrapExitError(ExitCommandError, ErrCodeConfig+": failed to load settings", err)
	}
	if o.Verbose {
		settings.LogLevel = logger.LogLevelDebug
	}

	o.Settings = settings
	o.Logger = logger.New(settings.LogLevel, settings.LogFormat, cmd.ErrOrStderr())
	o.Logger.Debug().
		Str("catalog", settings.Catalog).
		Str("ids", settings.IDs).
		Str("command", cmd.Name()).
		Msg("settings resolved")
	return nil
}

func (o *RootOptions) settings() *config.Settings {
	if o.Settings == nil {
		d := config.Defaults()
		return &d
	}
	return o.Settings
}

// newModel builds a model over the configured catalog and id strategy.
func (o *RootOptions) newModel() (*querytree.Model, error) {
	s := o.settings()
	cat, err := s.LoadCatalog()
	if err != nil {
		return nil, err
	}
	return querytree.NewModel(cat,
		querytree.WithIDGenerator(s.NewIDGenerator()),
		querytree.WithLogger(o.Logger),
	), nil
}

// formatter returns an OutputFormatter writing to the command's streams.
// Verbose logs go to stderr to avoid corrupting structured output.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
