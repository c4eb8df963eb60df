package goalchat

import (
	"fmt"
	"strings"

	"github.com/abhisek/skilltrail/internal/skilltree"
)

const systemPrompt = `You are a learning coach helping someone turn a learning goal into a skill tree.

Talk with the learner until you understand what they want to achieve, what they already know, and how deep they want to go. Ask at most one or two short questions per reply. While you are still clarifying, reply with type "chat" and set tree to null.

Once you have enough information, or when the learner asks for the tree, reply with type "tree_generation", a short message introducing the tree, and the full tree:
- The goal itself is the single root node at depth 0.
- Every other node has a parent_temp_id that refers to a node in the same reply and a depth exactly one greater than its parent.
- Use 2 to 4 levels and between 8 and 40 nodes in total.
- sort_order orders siblings from what should be learned first, starting at 0.
- knowledge_text states in one or two sentences what mastering the node means.

Reply in the learner's language.`

func buildSystemPrompt(goal skilltree.Goal, existing []skilltree.Node) string {
	var b strings.Builder
	b.WriteString(systemPrompt)

	fmt.Fprintf(&b, "\n\nGoal: %s\n", goal.Title)
	if goal.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", goal.Description)
	}

	if len(existing) > 0 {
		b.WriteString("\nThe learner already has this tree. If you generate a new one, it is added alongside it:\n")
		for _, tn := range skilltree.Flatten(skilltree.Build(existing)) {
			fmt.Fprintf(&b, "%s- %s\n", strings.Repeat("  ", tn.Depth), tn.Label)
		}
	}
	return b.String()
}
