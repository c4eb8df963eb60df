// Package goals implements the goal and node lifecycle: single active goal,
// archive-before-delete with an ordered cascade, and user-driven node
// status.
package goals

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/skilltrail/internal/logger"
	"github.com/abhisek/skilltrail/internal/skilltree"
	"github.com/abhisek/skilltrail/internal/store"
)

// Service owns goal and node state transitions.
type Service struct {
	store *store.Store
	log   *logger.Logger
}

// NewService creates a goal lifecycle service.
func NewService(s *store.Store, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{store: s, log: log.With("component", "goals")}
}

// Create adds a new active goal and archives any other active goal in the
// same transaction.
func (s *Service) Create(ctx context.Context, title, description string) (skilltree.Goal, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return skilltree.Goal{}, ErrMissingTitle
	}

	var g skilltree.Goal
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		var err error
		g, err = tx.Goals().Create(ctx, skilltree.Goal{
			Title:       title,
			Description: strings.TrimSpace(description),
			Status:      skilltree.GoalActive,
		})
		if err != nil {
			return err
		}
		_, err = tx.Goals().ArchiveOthers(ctx, g.ID)
		return err
	})
	if err != nil {
		return skilltree.Goal{}, fmt.Errorf("create goal: %w", err)
	}
	s.log.Info("goal created", "goal_id", g.ID)
	return g, nil
}

// SetStatus transitions a goal. Activating a goal archives every other
// active goal first, atomically, so exactly one goal is active afterwards.
func (s *Service) SetStatus(ctx context.Context, id string, status skilltree.GoalStatus) (skilltree.Goal, error) {
	if !status.Valid() {
		return skilltree.Goal{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	var g skilltree.Goal
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		if status == skilltree.GoalActive {
			archived, err := tx.Goals().ArchiveOthers(ctx, id)
			if err != nil {
				return err
			}
			if archived > 0 {
				s.log.Debug("archived other goals", "count", archived)
			}
		}
		if err := tx.Goals().SetStatus(ctx, id, status); err != nil {
			return err
		}
		var err error
		g, err = tx.Goals().Get(ctx, id)
		return err
	})
	if err != nil {
		return skilltree.Goal{}, mapErr(err)
	}
	return g, nil
}

// Delete removes an archived goal together with its node mappings, nodes
// and conversations. The cascade runs in one transaction; a failing step
// rolls everything back and is named in the error.
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		g, err := tx.Goals().Get(ctx, id)
		if err != nil {
			return err
		}
		if g.Status != skilltree.GoalArchived {
			return ErrGoalNotArchived
		}

		steps := []struct {
			name string
			run  func() error
		}{
			{"delete node mappings", func() error { _, err := tx.Mappings().DeleteByGoal(ctx, id); return err }},
			{"delete nodes", func() error { _, err := tx.Nodes().DeleteByGoal(ctx, id); return err }},
			{"delete conversations", func() error { _, err := tx.Conversations().DeleteByGoal(ctx, id); return err }},
			{"delete goal", func() error { return tx.Goals().Delete(ctx, id) }},
		}
		for _, step := range steps {
			if err := step.run(); err != nil {
				return fmt.Errorf("%s: %w", step.name, err)
			}
		}
		return nil
	})
	if err != nil {
		return mapErr(err)
	}
	s.log.Info("goal deleted", "goal_id", id)
	return nil
}

// SetNodeStatus sets a node's learning status. Any valid status may be
// chosen; coverage never promotes a node on its own.
func (s *Service) SetNodeStatus(ctx context.Context, nodeID string, status skilltree.NodeStatus) (skilltree.Node, error) {
	if !status.Valid() {
		return skilltree.Node{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if err := s.store.Nodes().SetStatus(ctx, nodeID, status); err != nil {
		return skilltree.Node{}, mapErr(err)
	}
	n, err := s.store.Nodes().Get(ctx, nodeID)
	if err != nil {
		return skilltree.Node{}, mapErr(err)
	}
	return n, nil
}

// Get returns a goal.
func (s *Service) Get(ctx context.Context, id string) (skilltree.Goal, error) {
	g, err := s.store.Goals().Get(ctx, id)
	return g, mapErr(err)
}

// Active returns the active goal, or ErrNotFound.
func (s *Service) Active(ctx context.Context) (skilltree.Goal, error) {
	g, err := s.store.Goals().Active(ctx)
	return g, mapErr(err)
}

// List returns goals newest first, optionally filtered by status.
func (s *Service) List(ctx context.Context, status skilltree.GoalStatus) ([]skilltree.Goal, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return s.store.Goals().List(ctx, status)
}

// Conversations returns a goal's dialogue in chronological order.
func (s *Service) Conversations(ctx context.Context, goalID string) ([]store.Conversation, error) {
	if _, err := s.Get(ctx, goalID); err != nil {
		return nil, err
	}
	return s.store.Conversations().ListByGoal(ctx, goalID)
}

func mapErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}
