// Package cmd implements the orchestra command line interface.
package cmd

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/opsforge/orchestra/pkg/exec"
	"github.com/opsforge/orchestra/pkg/modules"
	"github.com/opsforge/orchestra/pkg/orchestration"
)

var (
	rootVerbose bool
	rootNoColor bool
)

// NewRootCmd builds the orchestra root command with every subcommand wired.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orchestra",
		Short: "Phase-based operations orchestrator",
		Long: `Orchestra runs declarative operations: ordered phases of modules with
dependency resolution, parallel group execution, and rollback on failure.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&rootVerbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVar(&rootNoColor, "no-color", false, "Disable colored output")

	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewValidateCmd())
	cmd.AddCommand(NewGraphCmd())
	cmd.AddCommand(NewModulesCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// newLogger builds the CLI logger, honoring --verbose.
func newLogger() orchestration.Logger {
	base := logrus.New()
	base.SetOutput(os.Stderr)
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if rootVerbose {
		base.SetLevel(logrus.DebugLevel)
	}
	return orchestration.NewLogrusLogger(logrus.NewEntry(base))
}

// newRegistry assembles the builtin module registry.
func newRegistry() (*orchestration.Registry, error) {
	reg := orchestration.NewRegistry()
	if err := modules.RegisterBuiltins(reg, &exec.SystemRunner{}); err != nil {
		return nil, err
	}
	return reg, nil
}

// colorEnabled reports whether output styling should be applied.
func colorEnabled() bool {
	if rootNoColor {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}
