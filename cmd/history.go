package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/opsforge/orchestra/pkg/history"
)

// NewHistoryCmd builds the history subcommand group.
func NewHistoryCmd() *cobra.Command {
	var (
		dbPath string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := history.Open(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("no runs recorded")
				return nil
			}

			for _, e := range entries {
				verdict := "ok"
				if !e.Success {
					verdict = "failed"
				}
				if colorEnabled() {
					if e.Success {
						verdict = color.GreenString(verdict)
					} else {
						verdict = color.RedString(verdict)
					}
				}
				fmt.Printf("%s  %-24s %-8s %-7s %6.2fs  %s\n",
					e.FinishedAt.Local().Format(time.DateTime),
					e.OperationID,
					e.Mode,
					verdict,
					e.Duration,
					e.RunID)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&dbPath, "db", defaultHistoryPath(), "History database path")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Max runs to list (0 for all)")

	cmd.AddCommand(&cobra.Command{
		Use:   "show <run-id>",
		Short: "Print the full report of one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := history.Open(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			report, err := store.Get(args[0])
			if err != nil {
				return err
			}
			encoded, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(encoded))
			return nil
		},
	})

	return cmd
}
