package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/skilltrail/internal/goalchat"
	"github.com/abhisek/skilltrail/internal/skilltree"
	"github.com/abhisek/skilltrail/internal/ui/theme"
)

var goalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Manage learning goals",
}

var goalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List goals, newest first",
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		if status != "" && !skilltree.GoalStatus(status).Valid() {
			return fmt.Errorf("invalid status %q", status)
		}
		list, err := a.goals.List(cmd.Context(), skilltree.GoalStatus(status))
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("No goals yet. Start one with: skilltrail goal chat \"I want to learn ...\"")
			return nil
		}

		fmt.Printf("%-36s  %-8s  %-10s  %s\n", "ID", "Status", "Created", "Title")
		fmt.Println(strings.Repeat("─", 90))
		for _, g := range list {
			fmt.Printf("%-36s  %-8s  %-10s  %s\n",
				g.ID, g.Status, g.CreatedAt.Local().Format("2006-01-02"), g.Title)
		}
		return nil
	}),
}

var goalShowCmd = &cobra.Command{
	Use:   "show <goal-id>",
	Short: "Show a goal and its conversation",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		ctx := cmd.Context()
		g, err := a.goals.Get(ctx, args[0])
		if err != nil {
			return err
		}
		convs, err := a.goals.Conversations(ctx, g.ID)
		if err != nil {
			return err
		}

		fmt.Println(theme.Title.Render(g.Title))
		fmt.Printf("ID:      %s\n", g.ID)
		fmt.Printf("Status:  %s\n", g.Status)
		fmt.Printf("Created: %s\n", g.CreatedAt.Local().Format("2006-01-02 15:04"))
		if g.Description != "" {
			fmt.Printf("\n%s\n", g.Description)
		}
		if len(convs) == 0 {
			return nil
		}
		fmt.Println()
		for _, c := range convs {
			fmt.Printf("%s %s\n", theme.Hint.Render(string(c.Role)+":"), c.Content)
		}
		return nil
	}),
}

var goalChatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Talk to the assistant about a goal; starts a new goal without --goal",
	Args:  cobra.MinimumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		goalID, _ := cmd.Flags().GetString("goal")
		title, _ := cmd.Flags().GetString("title")

		return a.chat.Converse(cmd.Context(), goalchat.Request{
			GoalID:    goalID,
			GoalTitle: title,
			Message:   strings.Join(args, " "),
		}, func(e goalchat.Event) {
			switch e.Type {
			case goalchat.EventGoalCreated:
				fmt.Println(theme.Hint.Render("Created goal " + e.GoalID))
			case goalchat.EventChatMessage:
				fmt.Println(e.Message)
			case goalchat.EventTreeGenerated:
				if e.Message != "" {
					fmt.Println(e.Message)
				}
				fmt.Println(theme.Body.Foreground(theme.Success).Render(
					fmt.Sprintf("Added %d nodes to the skill tree. See: skilltrail tree show %s", *e.NodeCount, e.GoalID)))
			}
		})
	}),
}

var goalActivateCmd = &cobra.Command{
	Use:   "activate <goal-id>",
	Short: "Make a goal the active one, archiving the others",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		g, err := a.goals.SetStatus(cmd.Context(), args[0], skilltree.GoalActive)
		if err != nil {
			return err
		}
		fmt.Printf("Active goal: %s\n", g.Title)
		return nil
	}),
}

var goalArchiveCmd = &cobra.Command{
	Use:   "archive <goal-id>",
	Short: "Archive a goal",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		g, err := a.goals.SetStatus(cmd.Context(), args[0], skilltree.GoalArchived)
		if err != nil {
			return err
		}
		fmt.Printf("Archived: %s\n", g.Title)
		return nil
	}),
}

var goalDeleteCmd = &cobra.Command{
	Use:   "delete <goal-id>",
	Short: "Delete a goal with its tree, conversation and video mappings",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		ctx := cmd.Context()
		g, err := a.goals.Get(ctx, args[0])
		if err != nil {
			return err
		}
		if !confirm(cmd, fmt.Sprintf("Delete goal %q and its skill tree?", g.Title)) {
			fmt.Println("Aborted.")
			return nil
		}
		if err := a.goals.Delete(ctx, g.ID); err != nil {
			return err
		}
		fmt.Println("Deleted.")
		return nil
	}),
}

// confirm asks a yes/no question on stdin unless --yes was given.
func confirm(cmd *cobra.Command, question string) bool {
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		return true
	}
	fmt.Printf("%s [y/N] ", question)
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func init() {
	goalListCmd.Flags().String("status", "", "Filter by status (active, archived)")
	goalChatCmd.Flags().StringP("goal", "g", "", "Continue the conversation of an existing goal")
	goalChatCmd.Flags().StringP("title", "t", "", "Title for a new goal")
	goalDeleteCmd.Flags().BoolP("yes", "y", false, "Skip confirmation")

	goalCmd.AddCommand(goalListCmd)
	goalCmd.AddCommand(goalShowCmd)
	goalCmd.AddCommand(goalChatCmd)
	goalCmd.AddCommand(goalActivateCmd)
	goalCmd.AddCommand(goalArchiveCmd)
	goalCmd.AddCommand(goalDeleteCmd)
}
