package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opsforge/orchestra/pkg/orchestration"
)

// NewValidateCmd builds the validate subcommand. It loads the operation,
// resolves every module, and schedules the plan without executing anything.
func NewValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <operation-file>",
		Short: "Check an operation file without running it",
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

			// Constructing the orchestrator runs the same input validation an
			// execution would.
			if _, err := orchestration.NewOrchestrator(op, &orchestration.OrchestratorConfig{
				Logger: newLogger(),
			}); err != nil {
				return err
			}

			fmt.Printf("operation %s is valid: %d modules\n", op.ID, len(op.Modules))
			return nil
		},
	}
}
