package videos

import "github.com/abhisek/skilltrail/internal/llm"

func nullableString(desc string) map[string]any {
	return map[string]any{"type": []any{"string", "null"}, "description": desc}
}

func score(desc string) map[string]any {
	return map[string]any{"type": "integer", "minimum": 0, "maximum": 100, "description": desc}
}

// AnalysisSchema is the transcript analysis response.
var AnalysisSchema = &llm.Schema{
	Name:        "video-analysis",
	Description: "Summary, key points and skill-node mappings of a video transcript",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": map[string]any{
				"type":        "string",
				"description": "3-5 sentence summary of the video",
			},
			"key_points": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"topic":       map[string]any{"type": "string"},
						"description": map[string]any{"type": "string"},
						"timestamp":   nullableString("Position in the video, e.g. 12:30, or null"),
					},
					"required":             []any{"topic", "description", "timestamp"},
					"additionalProperties": false,
				},
			},
			"node_mappings": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"node_id":         map[string]any{"type": "string", "description": "Id of a node from the skill tree"},
						"relevance_score": score("How well the video covers the node"),
						"coverage_detail": map[string]any{"type": "string", "description": "What the video teaches about the node"},
						"timestamp_start": nullableString("Where coverage starts, or null"),
						"timestamp_end":   nullableString("Where coverage ends, or null"),
					},
					"required":             []any{"node_id", "relevance_score", "coverage_detail", "timestamp_start", "timestamp_end"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"summary", "key_points", "node_mappings"},
		"additionalProperties": false,
	},
}

// OverlapSchema is the pairwise key-point comparison response.
var OverlapSchema = &llm.Schema{
	Name:        "video-overlap",
	Description: "Topical overlap between two videos",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"overlap_score": score("0 for unrelated videos, 100 for the same content"),
			"overlapping_topics": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"topic":           map[string]any{"type": "string"},
						"video_a_section": nullableString("Where video A covers the topic, or null"),
						"video_b_section": nullableString("Where video B covers the topic, or null"),
					},
					"required":             []any{"topic", "video_a_section", "video_b_section"},
					"additionalProperties": false,
				},
			},
			"recommendation": map[string]any{
				"type":        "string",
				"description": "One or two sentences on whether to watch both",
			},
		},
		"required":             []any{"overlap_score", "overlapping_topics", "recommendation"},
		"additionalProperties": false,
	},
}

type analysisOutput struct {
	Summary      string           `json:"summary"`
	KeyPoints    []keyPointOut    `json:"key_points"`
	NodeMappings []nodeMappingOut `json:"node_mappings"`
}

type keyPointOut struct {
	Topic       string  `json:"topic"`
	Description string  `json:"description"`
	Timestamp   *string `json:"timestamp"`
}

type nodeMappingOut struct {
	NodeID         string  `json:"node_id"`
	RelevanceScore int     `json:"relevance_score"`
	CoverageDetail string  `json:"coverage_detail"`
	TimestampStart *string `json:"timestamp_start"`
	TimestampEnd   *string `json:"timestamp_end"`
}

type overlapOutput struct {
	OverlapScore      int        `json:"overlap_score"`
	OverlappingTopics []topicOut `json:"overlapping_topics"`
	Recommendation    string     `json:"recommendation"`
}

type topicOut struct {
	Topic         string  `json:"topic"`
	VideoASection *string `json:"video_a_section"`
	VideoBSection *string `json:"video_b_section"`
}
