// Package coverage keeps each node's coverage score equal to the highest
// relevance among the video mappings currently attached to it.
package coverage

import (
	"context"
	"fmt"
	"slices"

	"github.com/abhisek/skilltrail/internal/logger"
	"github.com/abhisek/skilltrail/internal/metrics"
	"github.com/abhisek/skilltrail/internal/store"
)

// Aggregator recomputes coverage scores from the mapping table.
type Aggregator struct {
	store *store.Store
	log   *logger.Logger
}

// New creates an Aggregator.
func New(s *store.Store, log *logger.Logger) *Aggregator {
	if log == nil {
		log = logger.Nop()
	}
	return &Aggregator{store: s, log: log.With("component", "coverage")}
}

// Recompute rescans a node's mappings, stores the maximum relevance (0 when
// none remain) and returns it.
func (a *Aggregator) Recompute(ctx context.Context, nodeID string) (int, error) {
	var score int
	err := a.store.WithTx(ctx, func(tx *store.Tx) error {
		scores, err := RecomputeTx(ctx, tx, []string{nodeID})
		score = scores[nodeID]
		return err
	})
	if err != nil {
		return 0, err
	}
	return score, nil
}

// RecomputeAll recomputes several nodes in one transaction.
func (a *Aggregator) RecomputeAll(ctx context.Context, nodeIDs []string) (map[string]int, error) {
	var scores map[string]int
	err := a.store.WithTx(ctx, func(tx *store.Tx) error {
		var err error
		scores, err = RecomputeTx(ctx, tx, nodeIDs)
		return err
	})
	if err != nil {
		return nil, err
	}
	a.log.Debug("coverage recomputed", "nodes", len(scores))
	return scores, nil
}

// RecomputeTx recomputes the distinct nodeIDs inside an existing
// transaction. The score is always a full rescan, never an incremental
// adjustment.
func RecomputeTx(ctx context.Context, tx *store.Tx, nodeIDs []string) (map[string]int, error) {
	ids := slices.Clone(nodeIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	scores := make(map[string]int, len(ids))
	for _, id := range ids {
		score, err := tx.Mappings().MaxRelevance(ctx, id)
		if err != nil {
			return scores, fmt.Errorf("recompute %s: %w", id, err)
		}
		if err := tx.Nodes().SetCoverage(ctx, id, score); err != nil {
			return scores, fmt.Errorf("recompute %s: %w", id, err)
		}
		scores[id] = score
		metrics.CoverageRecomputes.Inc()
	}
	return scores, nil
}
