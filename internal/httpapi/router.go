// Package httpapi exposes the services over a gin JSON API with a
// server-sent event stream for goal chat.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/skilltrail/internal/goalchat"
	"github.com/abhisek/skilltrail/internal/goals"
	"github.com/abhisek/skilltrail/internal/knowledge"
	"github.com/abhisek/skilltrail/internal/logger"
	"github.com/abhisek/skilltrail/internal/metrics"
	"github.com/abhisek/skilltrail/internal/settings"
	"github.com/abhisek/skilltrail/internal/videos"
)

// Config wires the services behind the API.
type Config struct {
	Goals     *goals.Service
	Chat      *goalchat.Service
	Videos    *videos.Service
	Knowledge *knowledge.Service
	Settings  *settings.Service
	Log       *logger.Logger

	// AnalysisTimeout bounds background video analysis. Default: 5m.
	AnalysisTimeout time.Duration
	// Async runs background work; defaults to a new goroutine.
	Async func(func())
}

// API holds the handlers.
type API struct {
	goals     *goals.Service
	chat      *goalchat.Service
	videos    *videos.Service
	knowledge *knowledge.Service
	settings  *settings.Service
	log       *logger.Logger

	analysisTimeout time.Duration
	async           func(func())
}

// NewRouter builds the gin engine.
func NewRouter(cfg Config) *gin.Engine {
	a := &API{
		goals:           cfg.Goals,
		chat:            cfg.Chat,
		videos:          cfg.Videos,
		knowledge:       cfg.Knowledge,
		settings:        cfg.Settings,
		log:             cfg.Log,
		analysisTimeout: cfg.AnalysisTimeout,
		async:           cfg.Async,
	}
	if a.log == nil {
		a.log = logger.Nop()
	}
	a.log = a.log.With("component", "httpapi")
	if a.analysisTimeout <= 0 {
		a.analysisTimeout = 5 * time.Minute
	}
	if a.async == nil {
		a.async = func(f func()) { go f() }
	}

	router := gin.New()
	router.Use(gin.Recovery(), a.requestLog())

	router.GET("/healthcheck", healthCheck)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := router.Group("/api")
	{
		api.POST("/chat", a.chatStream)
		api.GET("/dashboard", a.dashboard)

		api.GET("/goals", a.listGoals)
		api.GET("/goals/:id", a.getGoal)
		api.PATCH("/goals/:id", a.updateGoal)
		api.DELETE("/goals/:id", a.deleteGoal)
		api.GET("/goals/:id/tree", a.goalTree)
		api.GET("/goals/:id/gaps", a.goalGaps)
		api.POST("/goals/:id/generate-detailed", a.generateAll)

		api.PATCH("/skill-nodes/:id", a.updateNode)
		api.POST("/skill-nodes/:id/generate-detailed", a.generateDetailed)
		api.POST("/skill-nodes/:id/generate-summary", a.generateSummary)

		api.GET("/videos", a.listVideos)
		api.POST("/videos", a.registerVideo)
		api.POST("/videos/analyze", a.analyzeVideo)
		api.GET("/videos/overlaps", a.listOverlaps)
		api.DELETE("/videos/:id", a.deleteVideo)

		api.GET("/settings", a.getSettings)
		api.POST("/settings", a.updateSettings)
	}
	return router
}

func healthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (a *API) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		a.log.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds())
	}
}

// background runs f detached from the request, bounded by timeout.
func (a *API) background(c *gin.Context, timeout time.Duration, f func(ctx context.Context)) {
	ctx := context.WithoutCancel(c.Request.Context())
	a.async(func() {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		f(ctx)
	})
}
