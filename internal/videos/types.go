package videos

import (
	"errors"

	"github.com/abhisek/skilltrail/internal/store"
)

var (
	// ErrNotFound is returned for an unknown video id.
	ErrNotFound = errors.New("video not found")

	// ErrMissingField is returned when a required registration field is blank.
	ErrMissingField = errors.New("missing required field")

	// ErrSuperseded is returned when a video left the analyzing state while
	// its analysis was in flight, e.g. because it was deleted.
	ErrSuperseded = errors.New("video analysis superseded")
)

// Config tunes transcript analysis and overlap detection.
type Config struct {
	AnalysisMaxTokens int
	OverlapMaxTokens  int
	Temperature       float64
	TranscriptLimit   int
	// MinRelevance is the floor the analysis prompt asks the model for.
	MinRelevance       int
	OverlapConcurrency int
}

// DefaultConfig returns the production settings.
func DefaultConfig() Config {
	return Config{
		AnalysisMaxTokens:  4096,
		OverlapMaxTokens:   1024,
		Temperature:        0.7,
		TranscriptLimit:    8000,
		MinRelevance:       30,
		OverlapConcurrency: 3,
	}
}

// Input is a video registration.
type Input struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	ChannelName string `json:"channel_name"`
	Duration    string `json:"duration"`
	Transcript  string `json:"transcript"`
}

// Result is the outcome of one analysis.
type Result struct {
	Video    store.Video         `json:"video"`
	Mappings []store.NodeMapping `json:"mappings"`
	Overlaps int                 `json:"overlaps_detected"`
}

// OverlapView is an overlap with both video titles resolved.
type OverlapView struct {
	store.Overlap
	VideoATitle string `json:"video_a_title"`
	VideoBTitle string `json:"video_b_title"`
}
