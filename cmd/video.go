package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/skilltrail/internal/store"
	"github.com/abhisek/skilltrail/internal/ui/theme"
	"github.com/abhisek/skilltrail/internal/videos"
)

var videoCmd = &cobra.Command{
	Use:   "video",
	Short: "Register and analyze video transcripts",
}

var videoAddCmd = &cobra.Command{
	Use:   "add <transcript-file>",
	Short: "Register a video transcript (use - for stdin) and analyze it",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		transcript, err := readInput(args[0])
		if err != nil {
			return fmt.Errorf("read transcript: %w", err)
		}
		title, _ := cmd.Flags().GetString("title")
		url, _ := cmd.Flags().GetString("url")
		channel, _ := cmd.Flags().GetString("channel")
		duration, _ := cmd.Flags().GetString("duration")

		v, err := a.videos.Register(cmd.Context(), videos.Input{
			Title:       title,
			URL:         url,
			ChannelName: channel,
			Duration:    duration,
			Transcript:  transcript,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Registered %s (%s)\n", v.Title, v.ID)

		if skip, _ := cmd.Flags().GetBool("no-analyze"); skip {
			return nil
		}
		return analyzeAndReport(cmd, a, v.ID)
	}),
}

var videoAnalyzeCmd = &cobra.Command{
	Use:   "analyze <video-id>",
	Short: "Map a video onto the active goal's skill tree",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		return analyzeAndReport(cmd, a, args[0])
	}),
}

func analyzeAndReport(cmd *cobra.Command, a *app, id string) error {
	fmt.Println(theme.Hint.Render("Analyzing..."))
	res, err := a.videos.Analyze(cmd.Context(), id)
	if err != nil {
		return err
	}
	if res.Video.Summary != "" {
		fmt.Printf("\n%s\n", res.Video.Summary)
	}
	if len(res.Video.KeyPoints) > 0 {
		fmt.Println()
		for _, kp := range res.Video.KeyPoints {
			ts := ""
			if kp.Timestamp != nil {
				ts = theme.Hint.Render(" [" + *kp.Timestamp + "]")
			}
			fmt.Printf("• %s%s: %s\n", kp.Topic, ts, kp.Description)
		}
	}

	fmt.Printf("\nMapped to %d skill nodes", len(res.Mappings))
	if res.Overlaps > 0 {
		fmt.Printf(", %d new overlaps", res.Overlaps)
	}
	fmt.Println()
	for _, m := range res.Mappings {
		label := m.NodeID
		if n, err := a.store.Nodes().Get(cmd.Context(), m.NodeID); err == nil {
			label = n.Label
		}
		fmt.Printf("  %3d  %s\n", m.RelevanceScore, label)
	}
	return nil
}

var videoListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered videos, newest first",
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		list, err := a.videos.List(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("No videos registered.")
			return nil
		}
		fmt.Printf("%-36s  %-9s  %-10s  %s\n", "ID", "Status", "Added", "Title")
		fmt.Println(strings.Repeat("─", 90))
		for _, v := range list {
			fmt.Printf("%-36s  %-9s  %-10s  %s\n",
				v.ID, v.AnalysisStatus, v.CreatedAt.Local().Format("2006-01-02"), truncate(v.Title, 40))
		}
		return nil
	}),
}

var videoDeleteCmd = &cobra.Command{
	Use:   "delete <video-id>",
	Short: "Delete a video and recompute the coverage it contributed",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		if err := a.videos.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("Deleted.")
		return nil
	}),
}

var videoOverlapsCmd = &cobra.Command{
	Use:   "overlaps",
	Short: "List detected overlaps between videos",
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		list, err := a.videos.Overlaps(cmd.Context())
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("No overlaps detected.")
			return nil
		}
		for _, o := range list {
			fmt.Printf("%s  %s ↔ %s\n",
				theme.Title.Render(fmt.Sprintf("%3d%%", o.OverlapScore)), o.VideoATitle, o.VideoBTitle)
			for _, t := range o.OverlappingTopics {
				fmt.Printf("      - %s%s\n", t.Topic, sections(t))
			}
			if o.Recommendation != "" {
				fmt.Println("     ", theme.Hint.Render(o.Recommendation))
			}
		}
		return nil
	}),
}

func sections(t store.OverlapTopic) string {
	if t.VideoASection == nil && t.VideoBSection == nil {
		return ""
	}
	val := func(p *string) string {
		if p == nil {
			return "?"
		}
		return *p
	}
	return theme.Hint.Render(fmt.Sprintf(" (%s / %s)", val(t.VideoASection), val(t.VideoBSection)))
}

// readInput reads a file, or stdin for "-".
func readInput(path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(os.Stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	return string(b), err
}

func init() {
	videoAddCmd.Flags().String("title", "", "Video title (required)")
	videoAddCmd.Flags().String("url", "", "Video URL")
	videoAddCmd.Flags().String("channel", "", "Channel name")
	videoAddCmd.Flags().String("duration", "", "Duration, e.g. 12:34")
	videoAddCmd.Flags().Bool("no-analyze", false, "Register without analyzing")
	_ = videoAddCmd.MarkFlagRequired("title")
	videoListCmd.Flags().IntP("limit", "n", 50, "Number of videos to show")

	videoCmd.AddCommand(videoAddCmd)
	videoCmd.AddCommand(videoAnalyzeCmd)
	videoCmd.AddCommand(videoListCmd)
	videoCmd.AddCommand(videoDeleteCmd)
	videoCmd.AddCommand(videoOverlapsCmd)
}
