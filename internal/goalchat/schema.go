package goalchat

import (
	"encoding/json"
	"fmt"

	"github.com/abhisek/skilltrail/internal/llm"
)

// Reply types.
const (
	ReplyChat           = "chat"
	ReplyTreeGeneration = "tree_generation"
)

var treeNodeDefinition = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"temp_id": map[string]any{
			"type":        "string",
			"description": "Identifier unique within this reply, e.g. \"n1\"",
		},
		"parent_temp_id": map[string]any{
			"type":        []any{"string", "null"},
			"description": "temp_id of the parent node, null for a root",
		},
		"label": map[string]any{
			"type":        "string",
			"description": "Short skill name (2-6 words)",
		},
		"knowledge_text": map[string]any{
			"type":        "string",
			"description": "One or two sentences on what the skill covers",
		},
		"depth": map[string]any{
			"type":    "integer",
			"minimum": 0,
		},
		"sort_order": map[string]any{
			"type":    "integer",
			"minimum": 0,
		},
	},
	"required":             []any{"temp_id", "parent_temp_id", "label", "knowledge_text", "depth", "sort_order"},
	"additionalProperties": false,
}

// ReplySchema is the goal-chat response: either a conversational reply or
// a reply carrying a full tree proposal.
var ReplySchema = &llm.Schema{
	Name:        "goal-chat-reply",
	Description: "A coaching reply, optionally carrying a generated skill tree",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"type": map[string]any{
				"type": "string",
				"enum": []any{ReplyChat, ReplyTreeGeneration},
			},
			"message": map[string]any{
				"type":        "string",
				"description": "The message shown to the learner",
			},
			"tree": map[string]any{
				"type":        []any{"object", "null"},
				"description": "The skill tree when type is tree_generation, otherwise null",
				"properties": map[string]any{
					"nodes": map[string]any{
						"type":  "array",
						"items": treeNodeDefinition,
					},
				},
				"required":             []any{"nodes"},
				"additionalProperties": false,
			},
		},
		"required":             []any{"type", "message", "tree"},
		"additionalProperties": false,
	},
	Check: checkReply,
}

// checkReply narrows the union: a tree reply needs at least one node and a
// chat reply carries none.
func checkReply(raw json.RawMessage) []string {
	var r reply
	if err := json.Unmarshal(raw, &r); err != nil {
		return []string{err.Error()}
	}

	var issues []string
	switch r.Type {
	case ReplyTreeGeneration:
		if r.Tree == nil || len(r.Tree.Nodes) == 0 {
			issues = append(issues, "at '/tree': tree_generation requires a tree with at least one node")
			break
		}
		seen := make(map[string]bool, len(r.Tree.Nodes))
		for i, n := range r.Tree.Nodes {
			if n.TempID == "" {
				issues = append(issues, fmt.Sprintf("at '/tree/nodes/%d/temp_id': must not be empty", i))
			} else if seen[n.TempID] {
				issues = append(issues, fmt.Sprintf("at '/tree/nodes/%d/temp_id': duplicate temp_id %q", i, n.TempID))
			}
			seen[n.TempID] = true
			if n.Label == "" {
				issues = append(issues, fmt.Sprintf("at '/tree/nodes/%d/label': must not be empty", i))
			}
		}
	case ReplyChat:
		if r.Tree != nil {
			issues = append(issues, "at '/tree': chat replies must set tree to null")
		}
	}
	return issues
}
