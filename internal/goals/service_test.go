package goals

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/skilltrail/internal/logger"
	"github.com/abhisek/skilltrail/internal/skilltree"
	"github.com/abhisek/skilltrail/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "goals.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return NewService(s, logger.Nop()), s
}

func activeCount(t *testing.T, s *store.Store) int {
	t.Helper()
	n, err := s.Goals().Count(context.Background(), skilltree.GoalActive)
	require.NoError(t, err)
	return n
}

func TestCreate_ArchivesPreviousActiveGoal(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	g1, err := svc.Create(ctx, "Learn Go", "")
	require.NoError(t, err)
	g2, err := svc.Create(ctx, "  Learn SQL  ", "joins first")
	require.NoError(t, err)
	assert.Equal(t, "Learn SQL", g2.Title)

	assert.Equal(t, 1, activeCount(t, s))
	got, err := svc.Get(ctx, g1.ID)
	require.NoError(t, err)
	assert.Equal(t, skilltree.GoalArchived, got.Status)
}

func TestCreate_RequiresTitle(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Create(context.Background(), "   ", "")
	assert.ErrorIs(t, err, ErrMissingTitle)
}

func TestSetStatus_ActivationLeavesExactlyOneActive(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	g1, err := svc.Create(ctx, "G1", "")
	require.NoError(t, err)
	g2, err := svc.Create(ctx, "G2", "")
	require.NoError(t, err)

	// G2 is active now; reactivate G1 and then G2 again.
	_, err = svc.SetStatus(ctx, g1.ID, skilltree.GoalActive)
	require.NoError(t, err)
	got, err := svc.SetStatus(ctx, g2.ID, skilltree.GoalActive)
	require.NoError(t, err)
	assert.Equal(t, skilltree.GoalActive, got.Status)

	assert.Equal(t, 1, activeCount(t, s))
	active, err := svc.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, g2.ID, active.ID)

	other, err := svc.Get(ctx, g1.ID)
	require.NoError(t, err)
	assert.Equal(t, skilltree.GoalArchived, other.Status)
}

func TestSetStatus_Invalid(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.SetStatus(ctx, "whatever", "paused")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.SetStatus(ctx, "missing", skilltree.GoalArchived)
	assert.ErrorIs(t, err, ErrNotFound)
}

func seedGoalGraph(t *testing.T, s *store.Store, goalID string) {
	t.Helper()
	ctx := context.Background()

	root, err := s.Nodes().CreateNode(ctx, skilltree.Node{GoalID: goalID, Label: "Basics", Status: skilltree.StatusInProgress})
	require.NoError(t, err)
	child, err := s.Nodes().CreateNode(ctx, skilltree.Node{GoalID: goalID, ParentID: &root.ID, Label: "Types", Depth: 1, Status: skilltree.StatusAvailable})
	require.NoError(t, err)

	v, err := s.Videos().Create(ctx, store.Video{Title: "Intro", Transcript: "t", AnalysisStatus: store.AnalysisCompleted})
	require.NoError(t, err)
	for _, n := range []skilltree.Node{root, child} {
		_, err := s.Mappings().Create(ctx, store.NodeMapping{VideoID: v.ID, NodeID: n.ID, RelevanceScore: 60})
		require.NoError(t, err)
	}

	_, err = s.Conversations().Append(ctx, store.Conversation{GoalID: goalID, Role: store.RoleUser, Content: "hi"})
	require.NoError(t, err)
}

func TestDelete_RejectsActiveGoal(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	g, err := svc.Create(ctx, "Keep me", "")
	require.NoError(t, err)
	seedGoalGraph(t, s, g.ID)

	err = svc.Delete(ctx, g.ID)
	assert.ErrorIs(t, err, ErrGoalNotArchived)

	// Nothing was removed.
	n, err := s.Nodes().CountByGoal(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestDelete_ArchivedGoalCascades(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	g, err := svc.Create(ctx, "Drop me", "")
	require.NoError(t, err)
	seedGoalGraph(t, s, g.ID)
	nodeIDs, err := s.Nodes().IDsByGoal(ctx, g.ID)
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, g.ID, skilltree.GoalArchived)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, g.ID))

	_, err = svc.Get(ctx, g.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := s.Nodes().CountByGoal(ctx, g.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	convs, err := s.Conversations().ListByGoal(ctx, g.ID)
	require.NoError(t, err)
	assert.Empty(t, convs)

	for _, id := range nodeIDs {
		m, err := s.Mappings().ListByNode(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, m)
	}

	// The video itself survives goal deletion.
	count, err := s.Videos().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDelete_MissingGoal(t *testing.T) {
	svc, _ := newTestService(t)
	assert.ErrorIs(t, svc.Delete(context.Background(), "missing"), ErrNotFound)
}

func TestSetNodeStatus_NoCoupling(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	g, err := svc.Create(ctx, "Learn Go", "")
	require.NoError(t, err)
	n, err := s.Nodes().CreateNode(ctx, skilltree.Node{GoalID: g.ID, Label: "Slices", Status: skilltree.StatusAvailable})
	require.NoError(t, err)
	require.NoError(t, s.Nodes().SetCoverage(ctx, n.ID, 100))

	got, err := svc.SetNodeStatus(ctx, n.ID, skilltree.StatusLocked)
	require.NoError(t, err)
	assert.Equal(t, skilltree.StatusLocked, got.Status)
	assert.Equal(t, 100, got.CoverageScore)

	_, err = svc.SetNodeStatus(ctx, n.ID, "done")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.SetNodeStatus(ctx, "missing", skilltree.StatusLearned)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTreeAndGaps(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	g, err := svc.Create(ctx, "Learn Go", "")
	require.NoError(t, err)
	root, err := s.Nodes().CreateNode(ctx, skilltree.Node{GoalID: g.ID, Label: "Go", Status: skilltree.StatusInProgress})
	require.NoError(t, err)
	_, err = s.Nodes().CreateNode(ctx, skilltree.Node{GoalID: g.ID, ParentID: &root.ID, Depth: 1, Label: "Channels", SortOrder: 1, Status: skilltree.StatusAvailable})
	require.NoError(t, err)
	covered, err := s.Nodes().CreateNode(ctx, skilltree.Node{GoalID: g.ID, ParentID: &root.ID, Depth: 1, Label: "Slices", SortOrder: 0, Status: skilltree.StatusLearned})
	require.NoError(t, err)
	require.NoError(t, s.Nodes().SetCoverage(ctx, covered.ID, 90))

	view, err := svc.Tree(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, view.Roots, 1)
	require.Len(t, view.Roots[0].Children, 2)
	assert.Equal(t, "Slices", view.Roots[0].Children[0].Label)
	assert.Equal(t, 2, view.Counts.Total)
	assert.Equal(t, 1, view.Counts.Counts[skilltree.StatusLearned])
	assert.Equal(t, 33, view.Summary.CoverageRate)

	gaps, err := svc.Gaps(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, gaps.Uncovered, 2)
	assert.Equal(t, "Go", gaps.Uncovered[0].Label)
	require.Len(t, gaps.Ready, 1)
	assert.Equal(t, "Channels", gaps.Ready[0].Label)
}

func TestOverview(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	empty, err := svc.Overview(ctx)
	require.NoError(t, err)
	assert.Nil(t, empty.ActiveGoal)
	assert.Equal(t, 0, empty.Counts.Total)

	g, err := svc.Create(ctx, "Learn Go", "")
	require.NoError(t, err)
	for i := 0; i < 7; i++ {
		_, err := s.Conversations().Append(ctx, store.Conversation{GoalID: g.ID, Role: store.RoleUser, Content: string(rune('a' + i))})
		require.NoError(t, err)
	}
	for i := 0; i < 4; i++ {
		_, err := s.Videos().Create(ctx, store.Video{Title: "v", Transcript: "t", AnalysisStatus: store.AnalysisPending})
		require.NoError(t, err)
	}

	o, err := svc.Overview(ctx)
	require.NoError(t, err)
	require.NotNil(t, o.ActiveGoal)
	assert.Equal(t, g.ID, o.ActiveGoal.ID)
	assert.Equal(t, 4, o.VideoCount)
	assert.Len(t, o.RecentVideos, 3)
	require.Len(t, o.RecentConversations, 5)
	assert.Equal(t, "c", o.RecentConversations[0].Content)
	assert.Equal(t, "g", o.RecentConversations[4].Content)
}
