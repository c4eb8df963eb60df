package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/skilltrail/internal/goalchat"
	"github.com/abhisek/skilltrail/internal/goals"
	"github.com/abhisek/skilltrail/internal/knowledge"
	"github.com/abhisek/skilltrail/internal/llm"
	"github.com/abhisek/skilltrail/internal/logger"
	"github.com/abhisek/skilltrail/internal/settings"
	"github.com/abhisek/skilltrail/internal/skilltree"
	"github.com/abhisek/skilltrail/internal/store"
	"github.com/abhisek/skilltrail/internal/videos"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type server struct {
	router http.Handler
	store  *store.Store
	mock   *llm.MockProvider
	goals  *goals.Service
}

func newServer(t *testing.T) server {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	log := logger.Nop()
	mock := llm.NewMockProvider()
	source := llm.Static(mock)
	g := goals.NewService(s, log)

	router := NewRouter(Config{
		Goals:     g,
		Chat:      goalchat.NewService(s, g, source, goalchat.DefaultConfig(), log),
		Videos:    videos.NewService(s, source, videos.DefaultConfig(), log),
		Knowledge: knowledge.NewService(s, source, knowledge.DefaultConfig(), log),
		Settings:  settings.NewService(s, llm.DefaultConfig(), log),
		Log:       log,
		Async:     func(f func()) { f() },
	})
	return server{router: router, store: s, mock: mock, goals: g}
}

func (s server) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func sseEvents(t *testing.T, body string) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var e map[string]any
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &e))
		out = append(out, e)
	}
	return out
}

func assertError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) ErrorEnvelope {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	env := decode[ErrorEnvelope](t, w)
	assert.Equal(t, code, env.Error.Code)
	assert.NotEmpty(t, env.Error.Message)
	return env
}

func TestHealthCheck(t *testing.T) {
	srv := newServer(t)
	w := srv.do(t, http.MethodGet, "/healthcheck", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestMetrics(t *testing.T) {
	srv := newServer(t)
	w := srv.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "skilltrail_coverage_recomputes_total")
}

func TestChat_StreamsEventsDoneLast(t *testing.T) {
	srv := newServer(t)
	srv.mock.AddResponse(llm.MockJSON(`{"type":"chat","message":"Why Go?","tree":null}`))

	w := srv.do(t, http.MethodPost, "/api/chat", `{"message":"I want to learn Go"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	events := sseEvents(t, w.Body.String())
	require.Len(t, events, 3)
	assert.Equal(t, "goal_created", events[0]["type"])
	assert.NotEmpty(t, events[0]["goal_id"])
	assert.Equal(t, "chat_message", events[1]["type"])
	assert.Equal(t, "Why Go?", events[1]["message"])
	assert.Equal(t, "done", events[2]["type"])
}

func TestChat_ProviderErrorStillEndsWithDone(t *testing.T) {
	srv := newServer(t)
	srv.mock.AddResponse(llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("down")}})

	w := srv.do(t, http.MethodPost, "/api/chat", `{"message":"hello","goal_title":"Rust"}`)
	events := sseEvents(t, w.Body.String())
	require.Len(t, events, 3)
	assert.Equal(t, []any{"goal_created", "error", "done"}, []any{events[0]["type"], events[1]["type"], events[2]["type"]})
	assert.Equal(t, llm.ProviderFailureMessage, events[1]["message"])
}

func TestProviderFailureHidesUpstreamText(t *testing.T) {
	upstream := "status code: 401, message: Incorrect API key provided: sk-proj-ABCDEF123"
	srv := newServer(t)
	srv.mock.AddResponse(llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New(upstream)}})

	w := srv.do(t, http.MethodPost, "/api/chat", `{"message":"hello","goal_title":"Rust"}`)
	assert.NotContains(t, w.Body.String(), "sk-proj")
	assert.NotContains(t, w.Body.String(), "401")
	events := sseEvents(t, w.Body.String())
	require.Len(t, events, 3)
	assert.Equal(t, llm.ProviderFailureMessage, events[1]["message"])

	v, err := srv.store.Videos().Create(context.Background(), store.Video{Title: "x", Transcript: "y", AnalysisStatus: store.AnalysisPending})
	require.NoError(t, err)
	srv.mock.AddResponse(llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New(upstream)}})
	w = srv.do(t, http.MethodPost, "/api/videos/analyze", `{"video_id":"`+v.ID+`"}`)
	env := assertError(t, w, http.StatusBadGateway, codeProviderError)
	assert.Equal(t, llm.ProviderFailureMessage, env.Error.Message)
	assert.NotContains(t, w.Body.String(), "sk-proj")
}

func TestChat_EmptyMessageIsBadRequest(t *testing.T) {
	srv := newServer(t)
	assertError(t, srv.do(t, http.MethodPost, "/api/chat", `{"message":"  "}`), http.StatusBadRequest, codeInvalid)
	assertError(t, srv.do(t, http.MethodPost, "/api/chat", `not json`), http.StatusBadRequest, codeInvalid)
}

func TestGoals_Lifecycle(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()
	first, err := srv.goals.Create(ctx, "Go", "")
	require.NoError(t, err)
	second, err := srv.goals.Create(ctx, "Rust", "")
	require.NoError(t, err)

	// Deleting the active goal is a precondition failure.
	env := assertError(t, srv.do(t, http.MethodDelete, "/api/goals/"+second.ID, ""), http.StatusBadRequest, codeInvalid)
	assert.Contains(t, env.Error.Message, "archived")

	w := srv.do(t, http.MethodPatch, "/api/goals/"+first.ID, `{"status":"active"}`)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[struct {
		Goal skilltree.Goal `json:"goal"`
	}](t, w)
	assert.Equal(t, skilltree.GoalActive, got.Goal.Status)

	w = srv.do(t, http.MethodGet, "/api/goals?status=active", "")
	list := decode[struct {
		Goals []skilltree.Goal `json:"goals"`
	}](t, w)
	require.Len(t, list.Goals, 1)
	assert.Equal(t, first.ID, list.Goals[0].ID)

	w = srv.do(t, http.MethodDelete, "/api/goals/"+second.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assertError(t, srv.do(t, http.MethodGet, "/api/goals/"+second.ID, ""), http.StatusNotFound, codeNotFound)

	assertError(t, srv.do(t, http.MethodPatch, "/api/goals/"+first.ID, `{"status":"paused"}`), http.StatusBadRequest, codeInvalid)
}

func TestGoals_TreeAndNodeStatus(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()
	g, err := srv.goals.Create(ctx, "Go", "")
	require.NoError(t, err)
	root, err := srv.store.Nodes().CreateNode(ctx, skilltree.Node{GoalID: g.ID, Label: "Go", Status: skilltree.StatusAvailable})
	require.NoError(t, err)

	w := srv.do(t, http.MethodPatch, "/api/skill-nodes/"+root.ID, `{"status":"mastered"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = srv.do(t, http.MethodGet, "/api/goals/"+g.ID+"/tree", "")
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[goals.TreeView](t, w)
	require.Len(t, view.Roots, 1)
	assert.Equal(t, skilltree.StatusMastered, view.Roots[0].Status)
	assert.Equal(t, 1, view.Counts.Counts[skilltree.StatusMastered])

	w = srv.do(t, http.MethodGet, "/api/goals/"+g.ID+"/gaps", "")
	require.Equal(t, http.StatusOK, w.Code)

	assertError(t, srv.do(t, http.MethodGet, "/api/goals/missing/tree", ""), http.StatusNotFound, codeNotFound)
	assertError(t, srv.do(t, http.MethodPatch, "/api/skill-nodes/missing", `{"status":"learned"}`), http.StatusNotFound, codeNotFound)
}

func TestVideos_RegisterAnalyzesInBackground(t *testing.T) {
	srv := newServer(t)
	srv.mock.AddResponse(llm.MockJSON(`{"summary":"Intro","key_points":[],"node_mappings":[]}`))

	w := srv.do(t, http.MethodPost, "/api/videos", `{"title":"Go tour","transcript":"hello"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[struct {
		Video store.Video `json:"video"`
	}](t, w)
	assert.Equal(t, store.AnalysisPending, created.Video.AnalysisStatus)

	w = srv.do(t, http.MethodGet, "/api/videos", "")
	list := decode[struct {
		Videos []store.Video `json:"videos"`
	}](t, w)
	require.Len(t, list.Videos, 1)
	assert.Equal(t, store.AnalysisCompleted, list.Videos[0].AnalysisStatus)
	assert.Equal(t, "Intro", list.Videos[0].Summary)

	w = srv.do(t, http.MethodDelete, "/api/videos/"+created.Video.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assertError(t, srv.do(t, http.MethodDelete, "/api/videos/"+created.Video.ID, ""), http.StatusNotFound, codeNotFound)
}

func TestVideos_Errors(t *testing.T) {
	srv := newServer(t)
	assertError(t, srv.do(t, http.MethodPost, "/api/videos", `{"title":"No transcript"}`), http.StatusBadRequest, codeInvalid)
	assertError(t, srv.do(t, http.MethodPost, "/api/videos/analyze", `{"video_id":"missing"}`), http.StatusNotFound, codeNotFound)

	v, err := srv.store.Videos().Create(context.Background(), store.Video{Title: "x", Transcript: "y", AnalysisStatus: store.AnalysisPending})
	require.NoError(t, err)
	srv.mock.AddResponse(llm.MockResponse{Err: &llm.ErrRateLimit{Err: errors.New("slow down")}})
	assertError(t, srv.do(t, http.MethodPost, "/api/videos/analyze", `{"video_id":"`+v.ID+`"}`), http.StatusBadGateway, codeProviderError)

	w := srv.do(t, http.MethodGet, "/api/videos/overlaps", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"overlaps":[]}`, w.Body.String())
}

func TestKnowledge_Endpoints(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()
	g, err := srv.goals.Create(ctx, "Go", "")
	require.NoError(t, err)
	n, err := srv.store.Nodes().CreateNode(ctx, skilltree.Node{GoalID: g.ID, Label: "Go", Status: skilltree.StatusAvailable})
	require.NoError(t, err)

	srv.mock.AddResponse(llm.MockJSON(`{"knowledge_text":"Short."}`))
	w := srv.do(t, http.MethodPost, "/api/skill-nodes/"+n.ID+"/generate-summary", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"knowledge_text":"Short."}`, w.Body.String())

	srv.mock.AddResponse(llm.MockJSON(`{"detailed_knowledge_text":"# Go"}`))
	w = srv.do(t, http.MethodPost, "/api/skill-nodes/"+n.ID+"/generate-detailed", `{"formality":"friendly"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, srv.mock.Calls[1].System, "conversational")

	srv.mock.AddResponse(llm.MockJSON(`{"detailed_knowledge_text":"# Go again"}`))
	w = srv.do(t, http.MethodPost, "/api/goals/"+g.ID+"/generate-detailed", `{"force":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	events := sseEvents(t, w.Body.String())
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, "done", last["type"])
	assert.Equal(t, map[string]any{"total": 1.0, "completed": 1.0, "failed": 0.0, "current_depth": 0.0}, last["progress"])

	assertError(t, srv.do(t, http.MethodPost, "/api/skill-nodes/missing/generate-summary", ""), http.StatusNotFound, codeNotFound)
	assertError(t, srv.do(t, http.MethodPost, "/api/goals/missing/generate-detailed", ""), http.StatusNotFound, codeNotFound)
}

func TestSettings_Endpoints(t *testing.T) {
	srv := newServer(t)

	w := srv.do(t, http.MethodPost, "/api/settings", `{"llm_provider":"openai","openai_api_key":"sk-abcdefghijkl"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = srv.do(t, http.MethodGet, "/api/settings", "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[struct {
		Settings settings.View `json:"settings"`
	}](t, w)
	assert.Equal(t, "openai", got.Settings.LLMProvider)
	assert.Equal(t, "sk-abcde***", got.Settings.Providers["openai"].APIKeyMasked)
	assert.NotContains(t, w.Body.String(), "sk-abcdefghijkl")

	assertError(t, srv.do(t, http.MethodPost, "/api/settings", `{"llm_provider":"watson"}`), http.StatusBadRequest, codeInvalid)
}

func TestDashboard(t *testing.T) {
	srv := newServer(t)
	w := srv.do(t, http.MethodGet, "/api/dashboard", "")
	require.Equal(t, http.StatusOK, w.Code)
	o := decode[goals.Overview](t, w)
	assert.Nil(t, o.ActiveGoal)
	assert.Zero(t, o.VideoCount)
}
