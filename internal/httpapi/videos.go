package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/skilltrail/internal/store"
	"github.com/abhisek/skilltrail/internal/videos"
)

func (a *API) listVideos(c *gin.Context) {
	list, err := a.videos.List(c.Request.Context(), 0)
	if err != nil {
		a.fail(c, "list videos", err)
		return
	}
	if list == nil {
		list = []store.Video{}
	}
	respondOK(c, gin.H{"videos": list})
}

// registerVideo stores the video and starts its analysis in the
// background; the response does not wait for the AI.
func (a *API) registerVideo(c *gin.Context) {
	var in videos.Input
	if !bindJSON(c, &in) {
		return
	}
	v, err := a.videos.Register(c.Request.Context(), in)
	if err != nil {
		a.fail(c, "register video", err)
		return
	}

	a.background(c, a.analysisTimeout, func(ctx context.Context) {
		if _, err := a.videos.Analyze(ctx, v.ID); err != nil {
			a.log.Warn("background analysis failed", "video_id", v.ID, "error", err)
		}
	})
	c.JSON(http.StatusCreated, gin.H{"video": v})
}

type analyzeRequest struct {
	VideoID string `json:"video_id" binding:"required"`
}

func (a *API) analyzeVideo(c *gin.Context) {
	var req analyzeRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := a.videos.Analyze(c.Request.Context(), req.VideoID)
	if err != nil {
		a.fail(c, "analyze video", err)
		return
	}
	respondOK(c, res)
}

func (a *API) listOverlaps(c *gin.Context) {
	list, err := a.videos.Overlaps(c.Request.Context())
	if err != nil {
		a.fail(c, "list overlaps", err)
		return
	}
	respondOK(c, gin.H{"overlaps": list})
}

func (a *API) deleteVideo(c *gin.Context) {
	if err := a.videos.Delete(c.Request.Context(), c.Param("id")); err != nil {
		a.fail(c, "delete video", err)
		return
	}
	respondOK(c, gin.H{"success": true})
}
