// Package videos registers transcripts, maps them onto the active skill
// tree, and detects topical overlap between analyzed videos.
package videos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/abhisek/skilltrail/internal/coverage"
	"github.com/abhisek/skilltrail/internal/llm"
	"github.com/abhisek/skilltrail/internal/logger"
	"github.com/abhisek/skilltrail/internal/metrics"
	"github.com/abhisek/skilltrail/internal/skilltree"
	"github.com/abhisek/skilltrail/internal/store"
)

// Service runs the video pipeline.
type Service struct {
	store  *store.Store
	source llm.Source
	cfg    Config
	log    *logger.Logger
}

// NewService creates a video service.
func NewService(s *store.Store, source llm.Source, cfg Config, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.OverlapConcurrency < 1 {
		cfg.OverlapConcurrency = 1
	}
	return &Service{store: s, source: source, cfg: cfg, log: log.With("component", "videos")}
}

// Register stores a new video in the pending state.
func (s *Service) Register(ctx context.Context, in Input) (store.Video, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return store.Video{}, fmt.Errorf("%w: title", ErrMissingField)
	}
	if strings.TrimSpace(in.Transcript) == "" {
		return store.Video{}, fmt.Errorf("%w: transcript", ErrMissingField)
	}

	v, err := s.store.Videos().Create(ctx, store.Video{
		Title:          title,
		URL:            strings.TrimSpace(in.URL),
		ChannelName:    strings.TrimSpace(in.ChannelName),
		Duration:       strings.TrimSpace(in.Duration),
		Transcript:     in.Transcript,
		AnalysisStatus: store.AnalysisPending,
	})
	if err != nil {
		return store.Video{}, fmt.Errorf("register video: %w", err)
	}
	s.log.Info("video registered", "video_id", v.ID)
	return v, nil
}

// Get returns a video.
func (s *Service) Get(ctx context.Context, id string) (store.Video, error) {
	v, err := s.store.Videos().Get(ctx, id)
	return v, mapErr(err)
}

// List returns the most recent videos first; limit <= 0 lists all.
func (s *Service) List(ctx context.Context, limit int) ([]store.Video, error) {
	return s.store.Videos().List(ctx, limit)
}

// Mappings returns the node mappings of a video.
func (s *Service) Mappings(ctx context.Context, id string) ([]store.NodeMapping, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.store.Mappings().ListByVideo(ctx, id)
}

// Overlaps lists every recorded overlap with video titles.
func (s *Service) Overlaps(ctx context.Context) ([]OverlapView, error) {
	overlaps, err := s.store.Overlaps().List(ctx)
	if err != nil {
		return nil, err
	}
	titles := map[string]string{}
	title := func(id string) string {
		if t, ok := titles[id]; ok {
			return t
		}
		v, err := s.store.Videos().Get(ctx, id)
		if err == nil {
			titles[id] = v.Title
		}
		return titles[id]
	}

	out := make([]OverlapView, len(overlaps))
	for i, o := range overlaps {
		out[i] = OverlapView{Overlap: o, VideoATitle: title(o.VideoAID), VideoBTitle: title(o.VideoBID)}
	}
	return out, nil
}

// Analyze maps a video onto the active goal's tree, replaces its previous
// mappings, recomputes coverage of every affected node and then compares
// it against the other analyzed videos. The video ends in completed on
// success and failed otherwise.
func (s *Service) Analyze(ctx context.Context, id string) (Result, error) {
	v, err := s.Get(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if _, err := s.store.Videos().SetStatus(ctx, id, store.AnalysisAnalyzing, ""); err != nil {
		return Result{}, fmt.Errorf("start analysis: %w", err)
	}

	res, err := s.analyze(ctx, v)
	if err != nil {
		metrics.VideoAnalyses.WithLabelValues("failed").Inc()
		s.log.Error("video analysis failed", "video_id", id, "error", err)
		if _, serr := s.store.Videos().SetStatus(context.WithoutCancel(ctx), id, store.AnalysisFailed, store.AnalysisAnalyzing); serr != nil {
			s.log.Warn("mark analysis failed", "video_id", id, "error", serr)
		}
		return Result{}, err
	}
	metrics.VideoAnalyses.WithLabelValues("completed").Inc()

	res.Overlaps = s.detectOverlaps(ctx, res.Video)
	s.log.Info("video analyzed", "video_id", id, "mappings", len(res.Mappings), "overlaps", res.Overlaps)
	return res, nil
}

func (s *Service) analyze(ctx context.Context, v store.Video) (Result, error) {
	nodes, err := s.activeNodes(ctx)
	if err != nil {
		return Result{}, err
	}

	provider, err := s.source.Provider(ctx)
	if err != nil {
		return Result{}, err
	}
	resp, err := provider.Generate(llm.WithPurpose(ctx, "video-analysis"), llm.Request{
		System:      analysisSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildAnalysisMessage(v, nodes, s.cfg.TranscriptLimit, s.cfg.MinRelevance)}},
		Schema:      AnalysisSchema,
		MaxTokens:   s.cfg.AnalysisMaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return Result{}, fmt.Errorf("AI request failed: %w", err)
	}
	out, err := llm.Decode[analysisOutput](resp)
	if err != nil {
		return Result{}, err
	}

	keyPoints := make([]store.KeyPoint, len(out.KeyPoints))
	for i, kp := range out.KeyPoints {
		keyPoints[i] = store.KeyPoint{Topic: kp.Topic, Description: kp.Description, Timestamp: kp.Timestamp}
	}
	wanted := s.filterMappings(v.ID, out.NodeMappings, nodes)

	var res Result
	err = s.store.WithTx(ctx, func(tx *store.Tx) error {
		ok, err := tx.Videos().CompleteAnalysis(ctx, v.ID, out.Summary, keyPoints)
		if err != nil {
			return err
		}
		if !ok {
			return ErrSuperseded
		}

		affected, err := tx.Mappings().NodeIDsByVideo(ctx, v.ID)
		if err != nil {
			return err
		}
		if _, err := tx.Mappings().DeleteByVideo(ctx, v.ID); err != nil {
			return err
		}
		for _, m := range wanted {
			created, err := tx.Mappings().Create(ctx, m)
			if err != nil {
				return fmt.Errorf("map node %s: %w", m.NodeID, err)
			}
			res.Mappings = append(res.Mappings, created)
			affected = append(affected, m.NodeID)
		}
		if _, err := coverage.RecomputeTx(ctx, tx, affected); err != nil {
			return err
		}

		res.Video, err = tx.Videos().Get(ctx, v.ID)
		return err
	})
	if err != nil {
		return Result{}, fmt.Errorf("save analysis: %w", err)
	}
	return res, nil
}

func (s *Service) activeNodes(ctx context.Context) ([]skilltree.Node, error) {
	goal, err := s.store.Goals().Active(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load active goal: %w", err)
	}
	return s.store.Nodes().ListByGoal(ctx, goal.ID)
}

// filterMappings keeps mappings onto known nodes, one per node, highest
// relevance first seen. The relevance floor is only asked for in the prompt;
// a lower score the model still returns counts toward coverage.
func (s *Service) filterMappings(videoID string, in []nodeMappingOut, nodes []skilltree.Node) []store.NodeMapping {
	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		known[n.ID] = true
	}

	index := map[string]int{}
	var out []store.NodeMapping
	for _, m := range in {
		if !known[m.NodeID] {
			s.log.Debug("dropped mapping to unknown node", "video_id", videoID, "node_id", m.NodeID)
			continue
		}
		mapping := store.NodeMapping{
			VideoID:        videoID,
			NodeID:         m.NodeID,
			RelevanceScore: m.RelevanceScore,
			TimestampStart: m.TimestampStart,
			TimestampEnd:   m.TimestampEnd,
			CoverageDetail: m.CoverageDetail,
		}
		if i, dup := index[m.NodeID]; dup {
			if m.RelevanceScore > out[i].RelevanceScore {
				out[i] = mapping
			}
			continue
		}
		index[m.NodeID] = len(out)
		out = append(out, mapping)
	}
	return out
}

// detectOverlaps compares v with every other analyzed video that has key
// points and no overlap row yet. Failures are logged and skipped. It returns the number
// of rows inserted.
func (s *Service) detectOverlaps(ctx context.Context, v store.Video) int {
	if len(v.KeyPoints) == 0 {
		return 0
	}
	others, err := s.store.Videos().ListAnalyzedExcept(ctx, v.ID)
	if err != nil {
		s.log.Warn("list videos for overlap", "video_id", v.ID, "error", err)
		return 0
	}

	var inserted atomic.Int64
	var g errgroup.Group
	g.SetLimit(s.cfg.OverlapConcurrency)
	for _, other := range others {
		if len(other.KeyPoints) == 0 {
			continue
		}
		g.Go(func() error {
			ok, err := s.compare(ctx, v, other)
			if err != nil {
				s.log.Warn("overlap detection failed", "video_a", v.ID, "video_b", other.ID, "error", err)
				return nil
			}
			if ok {
				inserted.Add(1)
				metrics.OverlapsDetected.Inc()
			}
			return nil
		})
	}
	_ = g.Wait()
	return int(inserted.Load())
}

func (s *Service) compare(ctx context.Context, v, other store.Video) (bool, error) {
	exists, err := s.store.Overlaps().Exists(ctx, v.ID, other.ID)
	if err != nil || exists {
		return false, err
	}

	provider, err := s.source.Provider(ctx)
	if err != nil {
		return false, err
	}
	resp, err := provider.Generate(llm.WithPurpose(ctx, "video-overlap"), llm.Request{
		System:      overlapSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildOverlapMessage(v, other)}},
		Schema:      OverlapSchema,
		MaxTokens:   s.cfg.OverlapMaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return false, err
	}
	out, err := llm.Decode[overlapOutput](resp)
	if err != nil {
		return false, err
	}

	topics := make([]store.OverlapTopic, len(out.OverlappingTopics))
	for i, t := range out.OverlappingTopics {
		topics[i] = store.OverlapTopic{Topic: t.Topic, VideoASection: t.VideoASection, VideoBSection: t.VideoBSection}
	}
	_, ok, err := s.store.Overlaps().Create(ctx, store.Overlap{
		VideoAID:          v.ID,
		VideoBID:          other.ID,
		OverlapScore:      out.OverlapScore,
		OverlappingTopics: topics,
		Recommendation:    out.Recommendation,
	})
	return ok, err
}

// Delete removes a video with its mappings and overlaps, then recomputes
// coverage of the nodes it used to cover.
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		affected, err := tx.Mappings().NodeIDsByVideo(ctx, id)
		if err != nil {
			return err
		}
		if _, err := tx.Mappings().DeleteByVideo(ctx, id); err != nil {
			return fmt.Errorf("delete mappings: %w", err)
		}
		if _, err := tx.Overlaps().DeleteByVideo(ctx, id); err != nil {
			return fmt.Errorf("delete overlaps: %w", err)
		}
		if err := tx.Videos().Delete(ctx, id); err != nil {
			return err
		}
		_, err = coverage.RecomputeTx(ctx, tx, affected)
		return err
	})
	if err != nil {
		return mapErr(err)
	}
	s.log.Info("video deleted", "video_id", id)
	return nil
}

func mapErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}
