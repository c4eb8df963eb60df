package knowledge

import (
	"fmt"
	"strings"

	"github.com/abhisek/skilltrail/internal/skilltree"
)

const summarySystemPrompt = `You write the short overview shown on a skill tree node. Two or three sentences that tell the learner what the skill is and why it matters for their goal.`

const none = "(none)"

func detailedSystemPrompt(t Taste) string {
	var b strings.Builder
	b.WriteString("You write study material for one node of a learner's skill tree, in Markdown. ")
	b.WriteString("Use headings, examples and a short recap at the end. Stay consistent with the texts of ancestor nodes and build on them instead of repeating them.\n\n")
	fmt.Fprintf(&b, "- %s\n", formalityGuide[t.Formality])
	fmt.Fprintf(&b, "- %s\n", lengthGuide[t.Length])
	fmt.Fprintf(&b, "- %s\n", depthGuide[t.Depth])
	return b.String()
}

// nodeContext is the slice of the tree a prompt needs.
type nodeContext struct {
	goalTitle string
	node      skilltree.Node
	all       []skilltree.Node
	ancestors []skilltree.Node
	siblings  []skilltree.Node
}

func newNodeContext(goalTitle string, node skilltree.Node, all []skilltree.Node) nodeContext {
	return nodeContext{
		goalTitle: goalTitle,
		node:      node,
		all:       all,
		ancestors: skilltree.Ancestors(all, node.ID),
		siblings:  skilltree.Siblings(all, node.ID),
	}
}

func (c nodeContext) parentLabel() string {
	if len(c.ancestors) == 0 {
		return none
	}
	return c.ancestors[len(c.ancestors)-1].Label
}

func (c nodeContext) siblingLabels() string {
	if len(c.siblings) == 0 {
		return none
	}
	labels := make([]string, len(c.siblings))
	for i, s := range c.siblings {
		labels[i] = s.Label
	}
	return strings.Join(labels, ", ")
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return none
	}
	return s
}

// outline renders the whole tree in pre-order with each node's overview.
func outline(nodes []skilltree.Node) string {
	var b strings.Builder
	for _, tn := range skilltree.Flatten(skilltree.Build(nodes)) {
		indent := strings.Repeat("  ", tn.Depth)
		fmt.Fprintf(&b, "%s- %s\n", indent, tn.Label)
		if tn.KnowledgeText != "" {
			fmt.Fprintf(&b, "%s  Overview: %s\n", indent, tn.KnowledgeText)
		}
	}
	return b.String()
}

func buildSummaryMessage(c nodeContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Learning goal\n%s\n\n", orNone(c.goalTitle))
	fmt.Fprintf(&b, "## Node\n%s\n\n", c.node.Label)
	fmt.Fprintf(&b, "## Parent\n%s\n\n", c.parentLabel())
	fmt.Fprintf(&b, "## Siblings\n%s\n\n", c.siblingLabels())
	b.WriteString("Write the overview for this node.")
	return b.String()
}

func buildDetailedMessage(c nodeContext) string {
	var b strings.Builder
	b.WriteString("Write the detailed study text for the skill node below.\n\n")
	fmt.Fprintf(&b, "## Learning goal\n%s\n\n", orNone(c.goalTitle))

	b.WriteString("## Target node\n")
	fmt.Fprintf(&b, "- Label: %s\n", c.node.Label)
	fmt.Fprintf(&b, "- Depth: %d (root = 0)\n", c.node.Depth)
	fmt.Fprintf(&b, "- Parent: %s\n", c.parentLabel())
	fmt.Fprintf(&b, "- Siblings: %s\n", c.siblingLabels())
	fmt.Fprintf(&b, "- Overview: %s\n\n", orNone(c.node.KnowledgeText))

	fmt.Fprintf(&b, "## Skill tree\n%s\n", outline(c.all))

	var sections []string
	for _, a := range c.ancestors {
		if a.DetailedKnowledgeText == "" {
			continue
		}
		sections = append(sections, fmt.Sprintf("### Ancestor (depth %d): %s\n\n%s", a.Depth, a.Label, a.DetailedKnowledgeText))
	}
	if len(sections) > 0 {
		b.WriteString("## Detailed texts of ancestor nodes (stay consistent with these)\n\n")
		b.WriteString(strings.Join(sections, "\n\n---\n\n"))
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "Write the detailed study text for %q.", c.node.Label)
	return b.String()
}
