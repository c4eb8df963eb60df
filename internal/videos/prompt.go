package videos

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/abhisek/skilltrail/internal/skilltree"
	"github.com/abhisek/skilltrail/internal/store"
)

const analysisSystemPrompt = `You analyze learning videos from their transcripts. Summarize the video, extract its key points, and judge how well it covers each node of the learner's skill tree.

Scoring relevance_score:
- 90-100: the video teaches the node thoroughly.
- 60-89: the node is a major part of the video.
- 30-59: the node is explained in passing.
- Below 30: do not include a mapping.

Only use node ids that appear in the skill tree. Write in the language of the transcript.`

const overlapSystemPrompt = `You compare the key points of two learning videos and judge how much their content overlaps. List the shared topics and recommend whether a learner needs to watch both.`

const noTree = "(no skill tree has been set up)"

func buildAnalysisMessage(v store.Video, nodes []skilltree.Node, limit int, minRelevance int) string {
	var b strings.Builder

	b.WriteString("Analyze the following video.\n\n")
	fmt.Fprintf(&b, "## Title\n%s\n\n", v.Title)
	if v.ChannelName != "" {
		fmt.Fprintf(&b, "## Channel\n%s\n\n", v.ChannelName)
	}
	fmt.Fprintf(&b, "## Transcript\n%s\n\n", truncateRunes(v.Transcript, limit))

	b.WriteString("## Skill tree (with node ids)\n")
	if len(nodes) == 0 {
		b.WriteString(noTree + "\n")
	}
	for _, n := range nodes {
		fmt.Fprintf(&b, "%s- [%s] %s\n", strings.Repeat("  ", n.Depth), n.ID, n.Label)
	}

	fmt.Fprintf(&b, "\nFor each node of the skill tree, judge how much this video covers it and produce a mapping for every node with relevance %d or higher.", minRelevance)
	return b.String()
}

func buildOverlapMessage(a, b store.Video) string {
	var sb strings.Builder
	sb.WriteString("Compare the key points of these two videos and analyze their overlap.\n\n")
	fmt.Fprintf(&sb, "## Video A: %s\n%s\n\n", a.Title, keyPointsJSON(a.KeyPoints))
	fmt.Fprintf(&sb, "## Video B: %s\n%s\n", b.Title, keyPointsJSON(b.KeyPoints))
	return sb.String()
}

func keyPointsJSON(kps []store.KeyPoint) string {
	out, err := json.MarshalIndent(kps, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(out)
}

func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
