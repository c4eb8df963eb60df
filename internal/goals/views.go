package goals

import (
	"context"
	"errors"

	"github.com/abhisek/skilltrail/internal/skilltree"
	"github.com/abhisek/skilltrail/internal/store"
)

// TreeView is a goal's tree with its aggregates.
type TreeView struct {
	Goal    skilltree.Goal         `json:"goal"`
	Roots   []*skilltree.TreeNode  `json:"tree"`
	Counts  skilltree.StatusCounts `json:"status_counts"`
	Summary skilltree.Summary      `json:"summary"`
}

// Tree loads a goal's nodes and projects them into a tree.
func (s *Service) Tree(ctx context.Context, goalID string) (TreeView, error) {
	g, err := s.Get(ctx, goalID)
	if err != nil {
		return TreeView{}, err
	}
	nodes, err := s.store.Nodes().ListByGoal(ctx, goalID)
	if err != nil {
		return TreeView{}, err
	}
	return project(g, nodes), nil
}

func project(g skilltree.Goal, nodes []skilltree.Node) TreeView {
	roots := skilltree.Build(nodes)
	return TreeView{
		Goal:    g,
		Roots:   roots,
		Counts:  skilltree.CountByStatus(roots),
		Summary: skilltree.Summarize(nodes),
	}
}

// GapView lists a goal's uncovered nodes.
type GapView struct {
	Goal skilltree.Goal `json:"goal"`
	skilltree.Gaps
	Summary skilltree.Summary `json:"summary"`
}

// Gaps returns the nodes of a goal no video covers yet.
func (s *Service) Gaps(ctx context.Context, goalID string) (GapView, error) {
	g, err := s.Get(ctx, goalID)
	if err != nil {
		return GapView{}, err
	}
	nodes, err := s.store.Nodes().ListByGoal(ctx, goalID)
	if err != nil {
		return GapView{}, err
	}
	return GapView{Goal: g, Gaps: skilltree.FindGaps(nodes), Summary: skilltree.Summarize(nodes)}, nil
}

// Overview is the dashboard read model.
type Overview struct {
	ActiveGoal          *skilltree.Goal        `json:"active_goal"`
	Tree                []*skilltree.TreeNode  `json:"tree"`
	Counts              skilltree.StatusCounts `json:"status_counts"`
	Summary             skilltree.Summary      `json:"summary"`
	RecentVideos        []store.Video          `json:"recent_videos"`
	VideoCount          int                    `json:"video_count"`
	RecentConversations []store.Conversation   `json:"recent_conversations"`
}

const (
	overviewVideos        = 3
	overviewConversations = 5
)

// Overview assembles the dashboard. Without an active goal only the video
// fields are populated.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	var o Overview

	videos, err := s.store.Videos().List(ctx, overviewVideos)
	if err != nil {
		return o, err
	}
	o.RecentVideos = videos
	if o.VideoCount, err = s.store.Videos().Count(ctx); err != nil {
		return o, err
	}

	g, err := s.store.Goals().Active(ctx)
	if errors.Is(err, store.ErrNotFound) {
		o.Tree = []*skilltree.TreeNode{}
		o.Counts = skilltree.CountByStatus(nil)
		o.RecentConversations = []store.Conversation{}
		return o, nil
	}
	if err != nil {
		return o, err
	}
	o.ActiveGoal = &g

	nodes, err := s.store.Nodes().ListByGoal(ctx, g.ID)
	if err != nil {
		return o, err
	}
	view := project(g, nodes)
	o.Tree, o.Counts, o.Summary = view.Roots, view.Counts, view.Summary

	if o.RecentConversations, err = s.store.Conversations().Recent(ctx, g.ID, overviewConversations); err != nil {
		return o, err
	}
	return o, nil
}
