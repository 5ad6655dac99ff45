package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opsforge/orchestra/pkg/history"
	"github.com/opsforge/orchestra/pkg/orchestration"
)

// NewRunCmd builds the run subcommand.
func NewRunCmd() *cobra.Command {
	var (
		dryRun      bool
		workers     int
		contextKVs  []string
		jsonOutput  bool
		historyPath string
	)

	cmd := &cobra.Command{
		Use:   "run <operation-file>",
		Short: "Execute an operation file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := newRegistry()
			if err != nil {
				return err
			}

			op, err := orchestration.LoadOperation(args[0], registry)
			if err != nil {
				return err
			}

			callerCtx, err := parseContextFlags(contextKVs)
			if err != nil {
				return err
			}

			mode := orchestration.ModeLive
			if dryRun {
				mode = orchestration.ModeDryRun
			}

			orch, err := orchestration.NewOrchestrator(op, &orchestration.OrchestratorConfig{
				MaxParallelWorkers: workers,
				Logger:             newLogger(),
			})
			if err != nil {
				return err
			}

			report := orch.ExecuteOperation(cmd.Context(), callerCtx, mode)

			if historyPath != "" {
				if err := saveHistory(historyPath, report); err != nil {
					fmt.Fprintf(os.Stderr, "warning: could not save run history: %v\n", err)
				}
			}

			if jsonOutput {
				encoded, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return fmt.Errorf("encoding report: %w", err)
				}
				fmt.Println(string(encoded))
			} else {
				fmt.Print(renderReport(report, colorEnabled()))
			}

			if !report.Success {
				return fmt.Errorf("operation %s failed", report.OperationID)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report intended actions without performing them")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Max parallel workers per group (0 uses the operation's setting)")
	cmd.Flags().StringArrayVar(&contextKVs, "context", nil, "Context values as key=value (repeatable)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the full report as JSON")
	cmd.Flags().StringVar(&historyPath, "history", defaultHistoryPath(), "Run history database path (empty disables)")

	return cmd
}

// parseContextFlags converts repeated key=value flags into a caller context.
func parseContextFlags(kvs []string) (orchestration.Context, error) {
	ctx := orchestration.Context{}
	for _, kv := range kvs {
		key, value, found := strings.Cut(kv, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid context value %q, expected key=value", kv)
		}
		ctx[key] = value
	}
	return ctx, nil
}

func saveHistory(path string, report *orchestration.ExecutionReport) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Save(report)
}

// defaultHistoryPath resolves the per-user history database location.
func defaultHistoryPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "orchestra", "history.db")
}
