// Package knowledge generates the short overview and the long-form study
// text of skill nodes, one at a time or for a whole tree.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/abhisek/skilltrail/internal/llm"
	"github.com/abhisek/skilltrail/internal/logger"
	"github.com/abhisek/skilltrail/internal/skilltree"
	"github.com/abhisek/skilltrail/internal/store"
)

var (
	// ErrNodeNotFound is returned for an unknown node id.
	ErrNodeNotFound = errors.New("skill node not found")

	// ErrGoalNotFound is returned for an unknown goal id.
	ErrGoalNotFound = errors.New("goal not found")
)

// Config tunes generation.
type Config struct {
	SummaryMaxTokens  int
	DetailedMaxTokens int
	Temperature       float64
	Concurrency       int
}

// DefaultConfig returns the production settings.
func DefaultConfig() Config {
	return Config{
		SummaryMaxTokens:  1024,
		DetailedMaxTokens: 8192,
		Temperature:       0.7,
		Concurrency:       3,
	}
}

// Progress reports a bulk generation run.
type Progress struct {
	Total        int `json:"total"`
	Completed    int `json:"completed"`
	Failed       int `json:"failed"`
	CurrentDepth int `json:"current_depth"`
}

// BulkOptions controls GenerateAll.
type BulkOptions struct {
	// Force regenerates nodes that already have detailed text.
	Force bool
	// OnProgress is called after each node and at the start of each depth.
	// Calls are serialized.
	OnProgress func(Progress)
}

// Service generates knowledge text.
type Service struct {
	store  *store.Store
	source llm.Source
	cfg    Config
	log    *logger.Logger
}

// NewService creates a knowledge service.
func NewService(s *store.Store, source llm.Source, cfg Config, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Service{store: s, source: source, cfg: cfg, log: log.With("component", "knowledge")}
}

// GenerateSummary fills a node's short knowledge text and returns it.
func (s *Service) GenerateSummary(ctx context.Context, nodeID string) (string, error) {
	nc, err := s.loadContext(ctx, nodeID)
	if err != nil {
		return "", err
	}

	out, err := generate[summaryOutput](ctx, s, "knowledge-summary", llm.Request{
		System:      summarySystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildSummaryMessage(nc)}},
		Schema:      SummarySchema,
		MaxTokens:   s.cfg.SummaryMaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(out.KnowledgeText)
	if err := s.store.Nodes().SetKnowledgeText(ctx, nodeID, text); err != nil {
		return "", fmt.Errorf("save knowledge text: %w", err)
	}
	return text, nil
}

// GenerateDetailed writes a node's detailed study text in the given taste.
// The prompt carries the goal, the node's neighbourhood, the full tree
// outline and the detailed texts of its ancestors.
func (s *Service) GenerateDetailed(ctx context.Context, nodeID string, taste Taste) (string, error) {
	nc, err := s.loadContext(ctx, nodeID)
	if err != nil {
		return "", err
	}

	out, err := generate[detailedOutput](ctx, s, "knowledge-detailed", llm.Request{
		System:      detailedSystemPrompt(taste.Normalize()),
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildDetailedMessage(nc)}},
		Schema:      DetailedSchema,
		MaxTokens:   s.cfg.DetailedMaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(out.DetailedKnowledgeText)
	if err := s.store.Nodes().SetDetailedKnowledgeText(ctx, nodeID, text); err != nil {
		return "", fmt.Errorf("save detailed text: %w", err)
	}
	s.log.Info("detailed text generated", "node_id", nodeID, "chars", len(text))
	return text, nil
}

// GenerateAll writes detailed text for every node of a goal, shallowest
// depth first so each node sees its ancestors' texts. Within a depth at
// most Config.Concurrency generations run at once. Per-node failures are
// logged and counted; the run continues.
func (s *Service) GenerateAll(ctx context.Context, goalID string, taste Taste, opts BulkOptions) (Progress, error) {
	if _, err := s.store.Goals().Get(ctx, goalID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Progress{}, fmt.Errorf("%w: %s", ErrGoalNotFound, goalID)
		}
		return Progress{}, err
	}
	nodes, err := s.store.Nodes().ListByGoal(ctx, goalID)
	if err != nil {
		return Progress{}, fmt.Errorf("load tree: %w", err)
	}

	var pending []skilltree.Node
	for _, n := range nodes {
		if opts.Force || n.DetailedKnowledgeText == "" {
			pending = append(pending, n)
		}
	}

	var mu sync.Mutex
	progress := Progress{Total: len(pending)}
	report := func(update func(*Progress)) {
		mu.Lock()
		defer mu.Unlock()
		update(&progress)
		if opts.OnProgress != nil {
			opts.OnProgress(progress)
		}
	}

	taste = taste.Normalize()
	for _, level := range skilltree.GroupByDepth(pending) {
		if err := ctx.Err(); err != nil {
			return progress, err
		}
		report(func(p *Progress) { p.CurrentDepth = level[0].Depth })

		var g errgroup.Group
		g.SetLimit(s.cfg.Concurrency)
		for _, n := range level {
			g.Go(func() error {
				_, err := s.GenerateDetailed(ctx, n.ID, taste)
				if err != nil {
					s.log.Warn("detailed generation failed", "node_id", n.ID, "label", n.Label, "error", err)
					report(func(p *Progress) { p.Failed++ })
					return nil
				}
				report(func(p *Progress) { p.Completed++ })
				return nil
			})
		}
		_ = g.Wait()
	}

	s.log.Info("bulk generation finished", "goal_id", goalID,
		"total", progress.Total, "completed", progress.Completed, "failed", progress.Failed)
	return progress, nil
}

func (s *Service) loadContext(ctx context.Context, nodeID string) (nodeContext, error) {
	node, err := s.store.Nodes().Get(ctx, nodeID)
	if errors.Is(err, store.ErrNotFound) {
		return nodeContext{}, fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}
	if err != nil {
		return nodeContext{}, err
	}

	var goalTitle string
	if g, err := s.store.Goals().Get(ctx, node.GoalID); err == nil {
		goalTitle = g.Title
	}
	all, err := s.store.Nodes().ListByGoal(ctx, node.GoalID)
	if err != nil {
		return nodeContext{}, fmt.Errorf("load tree: %w", err)
	}
	return newNodeContext(goalTitle, node, all), nil
}

func generate[T any](ctx context.Context, s *Service, purpose string, req llm.Request) (T, error) {
	var zero T
	provider, err := s.source.Provider(ctx)
	if err != nil {
		return zero, err
	}
	resp, err := provider.Generate(llm.WithPurpose(ctx, purpose), req)
	if err != nil {
		return zero, fmt.Errorf("AI request failed: %w", err)
	}
	return llm.Decode[T](resp)
}
