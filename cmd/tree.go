package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/skilltrail/internal/ui/theme"
	"github.com/abhisek/skilltrail/internal/ui/treeview"
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Inspect a goal's skill tree",
}

var treeShowCmd = &cobra.Command{
	Use:   "show [goal-id]",
	Short: "Render the skill tree (defaults to the active goal)",
	Args:  cobra.MaximumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		goalID, err := goalArg(cmd, a, args)
		if err != nil {
			return err
		}
		view, err := a.goals.Tree(cmd.Context(), goalID)
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(view)
		}
		fmt.Println(theme.Title.Render(view.Goal.Title))
		fmt.Println(treeview.Tree(view.Roots))
		return nil
	}),
}

var treeStatsCmd = &cobra.Command{
	Use:   "stats [goal-id]",
	Short: "Show status counts and coverage (defaults to the active goal)",
	Args:  cobra.MaximumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		goalID, err := goalArg(cmd, a, args)
		if err != nil {
			return err
		}
		view, err := a.goals.Tree(cmd.Context(), goalID)
		if err != nil {
			return err
		}
		fmt.Println(treeview.Stats(view.Counts, view.Summary))
		return nil
	}),
}

var gapCmd = &cobra.Command{
	Use:   "gap [goal-id]",
	Short: "List skills no video covers yet (defaults to the active goal)",
	Args:  cobra.MaximumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		goalID, err := goalArg(cmd, a, args)
		if err != nil {
			return err
		}
		view, err := a.goals.Gaps(cmd.Context(), goalID)
		if err != nil {
			return err
		}
		fmt.Println(treeview.Gaps(view.Gaps))
		return nil
	}),
}

// goalArg returns the explicit goal id or the active goal's.
func goalArg(cmd *cobra.Command, a *app, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	g, err := a.goals.Active(cmd.Context())
	if err != nil {
		return "", fmt.Errorf("no goal given and no active goal: %w", err)
	}
	return g.ID, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	treeShowCmd.Flags().Bool("json", false, "Print the tree as JSON")

	treeCmd.AddCommand(treeShowCmd)
	treeCmd.AddCommand(treeStatsCmd)
}
