// Package treeview renders skill trees, status counts and gap lists for
// the terminal.
package treeview

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/skilltrail/internal/skilltree"
	"github.com/abhisek/skilltrail/internal/ui/theme"
)

const barWidth = 10

// CoverageBar draws a fixed-width bar for a 0-100 coverage score followed
// by the percentage.
func CoverageBar(score, width int) string {
	if width < 4 {
		width = 4
	}
	score = min(max(score, 0), 100)
	filled := width * score / 100
	return theme.ProgressFilled.Render(strings.Repeat(" ", filled)) +
		theme.ProgressEmpty.Render(strings.Repeat(" ", width-filled)) +
		theme.Hint.Render(fmt.Sprintf(" %3d%%", score))
}

// Tree renders the forest with box-drawing connectors, one node per line:
// status glyph, label and coverage bar.
func Tree(roots []*skilltree.TreeNode) string {
	if len(roots) == 0 {
		return theme.Hint.Render("No skill tree yet.")
	}
	var b strings.Builder
	for i, r := range roots {
		writeNode(&b, r, "", i == len(roots)-1, true)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeNode(b *strings.Builder, n *skilltree.TreeNode, prefix string, last, root bool) {
	connector, childPrefix := "├── ", prefix+"│   "
	if last {
		connector, childPrefix = "└── ", prefix+"    "
	}
	if root {
		connector, childPrefix = "", ""
	}

	style := theme.StatusStyle(n.Status)
	fmt.Fprintf(b, "%s%s %s  %s\n",
		theme.Connector.Render(prefix+connector),
		style.Render(theme.StatusGlyph(n.Status)),
		style.Render(n.Label),
		CoverageBar(n.CoverageScore, barWidth))

	for i, c := range n.Children {
		writeNode(b, c, childPrefix, i == len(n.Children)-1, false)
	}
}

// Stats renders leaf status counts and the coverage summary.
func Stats(counts skilltree.StatusCounts, summary skilltree.Summary) string {
	rows := []string{theme.Title.Render("Progress")}
	for _, s := range skilltree.AllStatuses {
		rows = append(rows, fmt.Sprintf("%s %-12s %3d",
			theme.StatusStyle(s).Render(theme.StatusGlyph(s)), s, counts.Counts[s]))
	}
	rows = append(rows,
		fmt.Sprintf("  %-12s %3d", "leaves", counts.Total),
		"",
		theme.Title.Render("Coverage"),
		fmt.Sprintf("  covered %d / %d nodes", summary.CoveredCount, summary.NodeCount),
		"  "+CoverageBar(summary.CoverageRate, 20),
	)
	return theme.Card.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// Gaps renders uncovered nodes, marking the ones ready to study.
func Gaps(g skilltree.Gaps) string {
	if len(g.Uncovered) == 0 {
		return theme.Body.Foreground(theme.Success).Render("Every node is covered by at least one video.")
	}
	ready := make(map[string]bool, len(g.Ready))
	for _, n := range g.Ready {
		ready[n.ID] = true
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", theme.Title.Render(fmt.Sprintf("%d uncovered, %d ready to study", len(g.Uncovered), len(g.Ready))))
	for _, n := range g.Uncovered {
		marker := " "
		if ready[n.ID] {
			marker = theme.StatusStyle(skilltree.StatusAvailable).Render("→")
		}
		fmt.Fprintf(&b, "%s %s%s %s\n", marker, strings.Repeat("  ", n.Depth),
			theme.StatusStyle(n.Status).Render(theme.StatusGlyph(n.Status)), n.Label)
	}
	return strings.TrimRight(b.String(), "\n")
}
