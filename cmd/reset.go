package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all goals, skill trees, conversations and videos",
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		events, _ := cmd.Flags().GetBool("events")
		if !confirm(cmd, "Delete all learning data? Settings are kept.") {
			fmt.Println("Aborted.")
			return nil
		}
		if err := a.store.Reset(cmd.Context(), events); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
		a.log.Info("data reset", "events", events)
		fmt.Println("All learning data deleted.")
		return nil
	}),
}

func init() {
	resetCmd.Flags().BoolP("yes", "y", false, "Skip confirmation")
	resetCmd.Flags().Bool("events", false, "Also clear the LLM event log")
}
