// Package cli provides the docstacker command-line interface.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/georgepadayatti/docstacker/assembly"
	"github.com/georgepadayatti/docstacker/config"
	"github.com/georgepadayatti/docstacker/logger"
	"github.com/georgepadayatti/docstacker/pdf/bridge"
	"github.com/georgepadayatti/docstacker/store"
)

// Version information
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// app carries the state shared by every command.
type app struct {
	configPath string
	logLevel   string
	logMode    string

	cfg *config.Config
	log *logger.Logger
}

// NewRootCommand builds the docstacker command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "docstacker",
		Short: "Assemble, letterhead, sign and finalize PDF documents",
		Long: `docstacker stitches PDF parts into one document, lays a letterhead under
every page, places signature and stamp images on saved fields and flattens
the result.

Run "docstacker serve" for the HTTP API, or use the other commands to work
on local files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				a.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to a YAML configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	root.PersistentFlags().StringVar(&a.logMode, "log-mode", "", "Log mode: dev or prod (overrides config)")

	root.AddCommand(
		newServeCommand(a),
		newStackCommand(a),
		newSignCommand(a),
		newFinalizeCommand(a),
		newInfoCommand(a),
		newRenderCommand(a),
		newVersionCommand(),
	)
	return root
}

// Run executes the CLI with the given arguments and returns the process
// exit code.
func Run(ctx context.Context, args []string) int {
	root := NewRootCommand()
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func (a *app) load() error {
	cfg := config.Default()
	if a.configPath != "" {
		loaded, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.logMode != "" {
		cfg.Logging.Mode = a.logMode
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(cfg.Logging.Mode, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	a.cfg = cfg
	a.log = log
	return nil
}

// pipeline wires the compositing engine to repo using the loaded
// configuration.
func (a *app) pipeline(repo *store.Repository) *assembly.Pipeline {
	opts := &assembly.Options{
		Letterhead: a.cfg.LetterheadOptions(),
		Layout:     a.cfg.Layout(),
		PreviewDPI: a.cfg.Render.DPI,
	}
	return assembly.New(
		repo,
		bridge.NewPDFCPU(),
		bridge.NewPoppler(a.cfg.PopplerOptions()),
		bridge.NewFPDF(),
		opts,
		a.log,
	)
}

// offline returns a pipeline for commands that work on local files.
func (a *app) offline() *assembly.Pipeline {
	return a.pipeline(store.NewRepository(store.NewMemory()))
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "docstacker version %s\n", Version)
			fmt.Fprintf(cmd.OutOrStdout(), "Build time: %s\n", BuildTime)
		},
	}
}
