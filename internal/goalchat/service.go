// Package goalchat runs the goal-setting dialogue: it persists each turn,
// asks the model for a reply, and materializes generated skill trees.
package goalchat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/abhisek/skilltrail/internal/goals"
	"github.com/abhisek/skilltrail/internal/llm"
	"github.com/abhisek/skilltrail/internal/logger"
	"github.com/abhisek/skilltrail/internal/metrics"
	"github.com/abhisek/skilltrail/internal/skilltree"
	"github.com/abhisek/skilltrail/internal/store"
)

// ErrEmptyMessage is returned for a blank learner message.
var ErrEmptyMessage = errors.New("message is required")

const maxDerivedTitle = 100

// Service handles goal-chat turns.
type Service struct {
	store  *store.Store
	goals  *goals.Service
	source llm.Source
	cfg    Config
	log    *logger.Logger
}

// NewService creates a goal-chat service.
func NewService(s *store.Store, g *goals.Service, source llm.Source, cfg Config, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{store: s, goals: g, source: source, cfg: cfg, log: log.With("component", "goalchat")}
}

// Converse handles one learner message and reports progress through emit.
// A done event is always emitted last, also after an error event. The
// returned error mirrors the error event for callers that do not stream.
func (s *Service) Converse(ctx context.Context, req Request, emit Emitter) (err error) {
	defer func() {
		if err != nil {
			emit(errorEvent(llm.PublicMessage(err)))
		}
		emit(Event{Type: EventDone})
	}()

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return ErrEmptyMessage
	}

	goal, err := s.resolveGoal(ctx, req, message, emit)
	if err != nil {
		return err
	}

	history, err := s.store.Conversations().ListByGoal(ctx, goal.ID)
	if err != nil {
		return fmt.Errorf("load conversation: %w", err)
	}
	existing, err := s.store.Nodes().ListByGoal(ctx, goal.ID)
	if err != nil {
		return fmt.Errorf("load tree: %w", err)
	}
	if _, err := s.store.Conversations().Append(ctx, store.Conversation{
		GoalID:  goal.ID,
		Role:    store.RoleUser,
		Content: message,
	}); err != nil {
		return fmt.Errorf("save message: %w", err)
	}

	r, err := s.ask(ctx, goal, existing, history, message)
	if err != nil {
		s.log.Error("goal chat failed", "goal_id", goal.ID, "error", err)
		return fmt.Errorf("AI request failed: %w", err)
	}

	if r.Type == ReplyTreeGeneration {
		created, err := s.applyTree(ctx, goal.ID, r)
		if err != nil {
			return err
		}
		emit(treeGenerated(goal.ID, created, r.Message))
		return nil
	}

	if _, err := s.store.Conversations().Append(ctx, store.Conversation{
		GoalID:  goal.ID,
		Role:    store.RoleAssistant,
		Content: r.Message,
	}); err != nil {
		return fmt.Errorf("save reply: %w", err)
	}
	emit(chatMessage(r.Message))
	return nil
}

func (s *Service) resolveGoal(ctx context.Context, req Request, message string, emit Emitter) (skilltree.Goal, error) {
	if req.GoalID != "" {
		return s.goals.Get(ctx, req.GoalID)
	}

	title := strings.TrimSpace(req.GoalTitle)
	if title == "" {
		title = truncateRunes(message, maxDerivedTitle)
	}
	g, err := s.goals.Create(ctx, title, "")
	if err != nil {
		return skilltree.Goal{}, err
	}
	emit(goalCreated(g.ID))
	return g, nil
}

func (s *Service) ask(ctx context.Context, goal skilltree.Goal, existing []skilltree.Node, history []store.Conversation, message string) (reply, error) {
	provider, err := s.source.Provider(ctx)
	if err != nil {
		return reply{}, err
	}

	msgs := make([]llm.Message, 0, len(history)+1)
	for _, c := range history {
		role := llm.RoleUser
		if c.Role == store.RoleAssistant {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Content: c.Content})
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: message})

	resp, err := provider.Generate(llm.WithPurpose(ctx, "goal-chat"), llm.Request{
		System:      buildSystemPrompt(goal, existing),
		Messages:    msgs,
		Schema:      ReplySchema,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return reply{}, err
	}
	return llm.Decode[reply](resp)
}

// applyTree records the assistant turn and persists the proposed nodes.
// Nodes that fail to insert are logged; the count of inserted nodes is
// returned.
func (s *Service) applyTree(ctx context.Context, goalID string, r reply) (int, error) {
	if _, err := s.store.Conversations().Append(ctx, store.Conversation{
		GoalID:              goalID,
		Role:                store.RoleAssistant,
		Content:             r.Message,
		TriggeredTreeUpdate: true,
	}); err != nil {
		return 0, fmt.Errorf("save reply: %w", err)
	}

	res := skilltree.Materialize(ctx, goalID, r.Tree.Nodes, s.store.Nodes())
	for _, f := range res.Failures {
		s.log.Warn("skipped tree node", "goal_id", goalID, "temp_id", f.TempID, "label", f.Label, "error", f.Err)
	}
	metrics.NodesMaterialized.WithLabelValues("inserted").Add(float64(len(res.Created)))
	metrics.NodesMaterialized.WithLabelValues("failed").Add(float64(len(res.Failures)))
	s.log.Info("tree generated", "goal_id", goalID, "proposed", len(r.Tree.Nodes), "inserted", len(res.Created))

	return len(res.Created), nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
