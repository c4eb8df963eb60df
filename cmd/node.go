package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/skilltrail/internal/knowledge"
	"github.com/abhisek/skilltrail/internal/skilltree"
	"github.com/abhisek/skilltrail/internal/ui/theme"
)

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Update skill nodes and generate their study notes",
}

var nodeStatusCmd = &cobra.Command{
	Use:   "status <node-id> <status>",
	Short: "Set a node's learning status (locked, available, in_progress, learned, mastered)",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		n, err := a.goals.SetNodeStatus(cmd.Context(), args[0], skilltree.NodeStatus(args[1]))
		if err != nil {
			return err
		}
		style := theme.StatusStyle(n.Status)
		fmt.Printf("%s %s → %s\n", style.Render(theme.StatusGlyph(n.Status)), n.Label, style.Render(string(n.Status)))
		return nil
	}),
}

var nodeGenerateCmd = &cobra.Command{
	Use:   "generate <node-id>",
	Short: "Generate detailed study notes for a node",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		text, err := a.knowledge.GenerateDetailed(cmd.Context(), args[0], tasteFlags(cmd))
		if err != nil {
			return err
		}
		fmt.Println(text)
		return nil
	}),
}

var nodeSummarizeCmd = &cobra.Command{
	Use:   "summarize <node-id>",
	Short: "Generate the short overview of a node",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		text, err := a.knowledge.GenerateSummary(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Println(text)
		return nil
	}),
}

var nodeGenerateAllCmd = &cobra.Command{
	Use:   "generate-all [goal-id]",
	Short: "Generate detailed notes for every node of a goal, parents first",
	Args:  cobra.MaximumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		goalID, err := goalArg(cmd, a, args)
		if err != nil {
			return err
		}
		force, _ := cmd.Flags().GetBool("force")

		p, err := a.knowledge.GenerateAll(cmd.Context(), goalID, tasteFlags(cmd), knowledge.BulkOptions{
			Force: force,
			OnProgress: func(p knowledge.Progress) {
				fmt.Printf("\rdepth %d  %d/%d done  %d failed", p.CurrentDepth, p.Completed, p.Total, p.Failed)
			},
		})
		fmt.Println()
		if err != nil {
			return err
		}
		if p.Total == 0 {
			fmt.Println("Every node already has notes. Use --force to regenerate.")
			return nil
		}
		fmt.Printf("Generated %d of %d nodes", p.Completed, p.Total)
		if p.Failed > 0 {
			fmt.Printf(" (%d failed, see logs)", p.Failed)
		}
		fmt.Println()
		return nil
	}),
}

func addTasteFlags(cmd *cobra.Command) {
	d := knowledge.DefaultTaste()
	cmd.Flags().String("formality", string(d.Formality), "formal, normal or friendly")
	cmd.Flags().String("length", string(d.Length), "short, normal or detailed")
	cmd.Flags().String("depth", string(d.Depth), "intro, standard or deep")
}

func tasteFlags(cmd *cobra.Command) knowledge.Taste {
	f, _ := cmd.Flags().GetString("formality")
	l, _ := cmd.Flags().GetString("length")
	d, _ := cmd.Flags().GetString("depth")
	return knowledge.Taste{
		Formality: knowledge.Formality(f),
		Length:    knowledge.Length(l),
		Depth:     knowledge.Depth(d),
	}.Normalize()
}

func init() {
	addTasteFlags(nodeGenerateCmd)
	addTasteFlags(nodeGenerateAllCmd)
	nodeGenerateAllCmd.Flags().Bool("force", false, "Regenerate nodes that already have notes")

	nodeCmd.AddCommand(nodeStatusCmd)
	nodeCmd.AddCommand(nodeGenerateCmd)
	nodeCmd.AddCommand(nodeSummarizeCmd)
	nodeCmd.AddCommand(nodeGenerateAllCmd)
}
