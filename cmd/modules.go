package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewModulesCmd builds the modules subcommand, listing the registered
// builtin modules with their phase and description.
func NewModulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "modules",
		Short: "List available modules",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := newRegistry()
			if err != nil {
				return err
			}

			for _, id := range registry.IDs() {
				m, err := registry.Resolve(id, nil)
				if err != nil {
					// Modules whose factories require configuration still get
					// listed, just without metadata.
					fmt.Printf("%-20s (requires configuration)\n", id)
					continue
				}
				meta := m.Metadata()
				optional := ""
				if meta.Optional {
					optional = " [optional]"
				}
				fmt.Printf("%-20s %-14s %s%s\n", meta.ID, meta.Phase, meta.Description, optional)
			}
			return nil
		},
	}
}
