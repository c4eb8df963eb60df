package goalchat

import "github.com/abhisek/skilltrail/internal/skilltree"

type reply struct {
	Type    string     `json:"type"`
	Message string     `json:"message"`
	Tree    *replyTree `json:"tree"`
}

type replyTree struct {
	Nodes []skilltree.ProposedNode `json:"nodes"`
}

// Request is one learner message.
type Request struct {
	// GoalID continues an existing goal; empty starts a new one.
	GoalID string `json:"goal_id"`
	// GoalTitle names a new goal; defaults to the start of Message.
	GoalTitle string `json:"goal_title"`
	Message   string `json:"message"`
}

// Config holds goal-chat generation settings.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns the defaults for goal chat.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   4096,
		Temperature: 0.7,
	}
}
