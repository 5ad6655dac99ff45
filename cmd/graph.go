package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opsforge/orchestra/pkg/orchestration"
)

// NewGraphCmd builds the graph subcommand, rendering an operation's module
// dependency graph as Mermaid.
func NewGraphCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "graph <operation-file>",
		Short: "Render the module dependency graph as Mermaid",
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

			diagram := orchestration.ToMermaid(op.Modules)
			if output == "" {
				fmt.Println(diagram)
				return nil
			}
			if err := os.WriteFile(output, []byte(diagram), 0o644); err != nil {
				return fmt.Errorf("writing graph: %w", err)
			}
			fmt.Printf("graph written to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (stdout if not set)")

	return cmd
}
