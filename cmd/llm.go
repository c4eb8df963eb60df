package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/skilltrail/internal/llm"
	"github.com/abhisek/skilltrail/internal/store"
	"github.com/abhisek/skilltrail/internal/ui/theme"
)

const rule = "─"

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect recorded AI requests, token usage and cost",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent AI requests, newest first",
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		opts := store.QueryOpts{}
		opts.Limit, _ = cmd.Flags().GetInt("limit")
		opts.Purpose, _ = cmd.Flags().GetString("purpose")
		if since, _ := cmd.Flags().GetDuration("since"); since > 0 {
			opts.From = time.Now().Add(-since)
		}

		events, err := a.store.Events().QueryLLMEvents(cmd.Context(), opts)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Println("No AI requests recorded.")
			return nil
		}

		fmt.Printf("%-5s  %-16s  %-18s  %-24s  %3s  %6s  %6s  %7s  %s\n",
			"ID", "Time", "Purpose", "Model", "Try", "In", "Out", "Ms", "")
		fmt.Println(strings.Repeat(rule, 104))
		for _, e := range events {
			mark := theme.Body.Foreground(theme.Success).Render("✓")
			if !e.Success {
				mark = theme.Body.Foreground(theme.Error).Render("✗ " + truncate(e.ErrorMessage, 40))
			}
			fmt.Printf("%-5d  %-16s  %-18s  %-24s  %3d  %6d  %6d  %7d  %s\n",
				e.ID, e.Timestamp.Local().Format("01-02 15:04:05"), e.Purpose, truncate(e.Model, 24),
				e.Attempt, e.InputTokens, e.OutputTokens, e.LatencyMs, mark)
		}
		return nil
	}),
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the full request and response of one AI request",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid id %q", args[0])
		}
		e, err := a.store.Events().GetLLMEvent(cmd.Context(), id)
		if err != nil {
			return err
		}
		if e == nil {
			return fmt.Errorf("event %d not found", id)
		}

		for _, kv := range [][2]string{
			{"Time", e.Timestamp.Local().Format("2006-01-02 15:04:05")},
			{"Provider", e.Provider},
			{"Model", e.Model},
			{"Purpose", e.Purpose},
			{"Attempt", strconv.Itoa(e.Attempt)},
			{"Tokens", fmt.Sprintf("%d in / %d out", e.InputTokens, e.OutputTokens)},
			{"Latency", fmt.Sprintf("%dms", e.LatencyMs)},
			{"Success", strconv.FormatBool(e.Success)},
		} {
			fmt.Printf("%-9s %s\n", kv[0]+":", kv[1])
		}
		if e.ErrorMessage != "" {
			fmt.Printf("%-9s %s\n", "Error:", e.ErrorMessage)
		}
		section("REQUEST", e.RequestBody)
		section("RESPONSE", e.ResponseBody)
		return nil
	}),
}

func section(title, body string) {
	fmt.Println()
	fmt.Println(theme.Title.Render(title))
	fmt.Println(strings.Repeat(rule, 60))
	if body == "" {
		fmt.Println(theme.Hint.Render("(not captured)"))
		return
	}
	var pretty bytes.Buffer
	if json.Indent(&pretty, []byte(body), "", "  ") == nil {
		body = pretty.String()
	}
	fmt.Println(body)
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show token usage per purpose and estimated cost per model",
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		ctx := cmd.Context()
		byPurpose, err := a.store.Events().LLMUsageByPurpose(ctx)
		if err != nil {
			return err
		}
		if len(byPurpose) == 0 {
			fmt.Println("No AI usage recorded yet.")
			return nil
		}

		fmt.Println(theme.Title.Render("Usage by purpose"))
		fmt.Printf("%-18s  %6s  %6s  %10s  %10s  %8s\n", "Purpose", "Calls", "Failed", "Input", "Output", "Avg ms")
		fmt.Println(strings.Repeat(rule, 68))
		var calls, failed, in, out int
		for _, u := range byPurpose {
			fmt.Printf("%-18s  %6d  %6d  %10d  %10d  %8d\n",
				u.Purpose, u.Calls, u.Failures, u.InputTokens, u.OutputTokens, u.AvgLatencyMs)
			calls += u.Calls
			failed += u.Failures
			in += u.InputTokens
			out += u.OutputTokens
		}
		fmt.Println(strings.Repeat(rule, 68))
		fmt.Printf("%-18s  %6d  %6d  %10d  %10d\n", "total", calls, failed, in, out)

		byModel, err := a.store.Events().LLMUsageByModel(ctx)
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Println(theme.Title.Render("Estimated cost (USD)"))
		fmt.Printf("%-32s  %6s  %10s  %10s  %10s\n", "Model", "Calls", "Input", "Output", "Cost")
		fmt.Println(strings.Repeat(rule, 76))

		var total float64
		var unpriced []string
		for _, u := range byModel {
			cost := "?"
			if c := llm.LookupCost(u.Model); c != nil {
				usd := c.Cost(u.InputTokens, u.OutputTokens)
				total += usd
				cost = formatCost(usd)
			} else {
				unpriced = append(unpriced, u.Model)
			}
			fmt.Printf("%-32s  %6d  %10d  %10d  %10s\n", truncate(u.Model, 32), u.Calls, u.InputTokens, u.OutputTokens, cost)
		}
		fmt.Println(strings.Repeat(rule, 76))
		label := "total"
		if len(unpriced) > 0 {
			label = "total (partial)"
		}
		fmt.Printf("%-32s  %6s  %10s  %10s  %10s\n", label, "", "", "", formatCost(total))
		if len(unpriced) > 0 {
			fmt.Println(theme.Hint.Render("No pricing for: " + strings.Join(unpriced, ", ")))
		}
		return nil
	}),
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of requests to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Filter by purpose (goal-chat, video-analysis, video-overlap, knowledge-summary, knowledge-detailed)")
	llmListCmd.Flags().Duration("since", 0, "Only show requests newer than this, e.g. 24h")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
}
