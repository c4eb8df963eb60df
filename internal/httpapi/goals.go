package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/skilltrail/internal/goalchat"
	"github.com/abhisek/skilltrail/internal/knowledge"
	"github.com/abhisek/skilltrail/internal/llm"
	"github.com/abhisek/skilltrail/internal/skilltree"
)

func (a *API) chatStream(c *gin.Context) {
	var req goalchat.Request
	if !bindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(c, http.StatusBadRequest, codeInvalid, goalchat.ErrEmptyMessage)
		return
	}

	w := startSSE(c)
	_ = a.chat.Converse(c.Request.Context(), req, func(e goalchat.Event) { w.send(e) })
}

func (a *API) dashboard(c *gin.Context) {
	o, err := a.goals.Overview(c.Request.Context())
	if err != nil {
		a.fail(c, "dashboard", err)
		return
	}
	respondOK(c, o)
}

func (a *API) listGoals(c *gin.Context) {
	list, err := a.goals.List(c.Request.Context(), skilltree.GoalStatus(c.Query("status")))
	if err != nil {
		a.fail(c, "list goals", err)
		return
	}
	if list == nil {
		list = []skilltree.Goal{}
	}
	respondOK(c, gin.H{"goals": list})
}

func (a *API) getGoal(c *gin.Context) {
	ctx := c.Request.Context()
	g, err := a.goals.Get(ctx, c.Param("id"))
	if err != nil {
		a.fail(c, "get goal", err)
		return
	}
	conv, err := a.goals.Conversations(ctx, g.ID)
	if err != nil {
		a.fail(c, "get goal", err)
		return
	}
	respondOK(c, gin.H{"goal": g, "conversations": conv})
}

type goalStatusRequest struct {
	Status skilltree.GoalStatus `json:"status" binding:"required"`
}

func (a *API) updateGoal(c *gin.Context) {
	var req goalStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	g, err := a.goals.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		a.fail(c, "update goal", err)
		return
	}
	respondOK(c, gin.H{"goal": g})
}

func (a *API) deleteGoal(c *gin.Context) {
	if err := a.goals.Delete(c.Request.Context(), c.Param("id")); err != nil {
		a.fail(c, "delete goal", err)
		return
	}
	respondOK(c, gin.H{"success": true})
}

func (a *API) goalTree(c *gin.Context) {
	v, err := a.goals.Tree(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.fail(c, "goal tree", err)
		return
	}
	respondOK(c, v)
}

func (a *API) goalGaps(c *gin.Context) {
	v, err := a.goals.Gaps(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.fail(c, "goal gaps", err)
		return
	}
	respondOK(c, v)
}

type nodeStatusRequest struct {
	Status skilltree.NodeStatus `json:"status" binding:"required"`
}

func (a *API) updateNode(c *gin.Context) {
	var req nodeStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	n, err := a.goals.SetNodeStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		a.fail(c, "update node", err)
		return
	}
	respondOK(c, gin.H{"node": n})
}

// bulkRequest is the body of a bulk generation: a taste plus force.
type bulkRequest struct {
	knowledge.Taste
	Force bool `json:"force"`
}

// generateAll streams progress events while generating every node of a
// goal, ending with a done event carrying the final counts.
func (a *API) generateAll(c *gin.Context) {
	var req bulkRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	goalID := c.Param("id")
	if _, err := a.goals.Get(ctx, goalID); err != nil {
		a.fail(c, "generate all", err)
		return
	}

	w := startSSE(c)
	p, err := a.knowledge.GenerateAll(ctx, goalID, req.Taste, knowledge.BulkOptions{
		Force: req.Force,
		OnProgress: func(p knowledge.Progress) {
			w.send(gin.H{"type": "progress", "progress": p})
		},
	})
	if err != nil {
		a.log.Error("generate all failed", "goal_id", goalID, "error", err)
		w.send(gin.H{"type": "error", "message": llm.PublicMessage(err)})
	}
	w.send(gin.H{"type": "done", "progress": p})
}

func (a *API) generateDetailed(c *gin.Context) {
	taste := knowledge.DefaultTaste()
	if c.Request.ContentLength != 0 && !bindJSON(c, &taste) {
		return
	}
	text, err := a.knowledge.GenerateDetailed(c.Request.Context(), c.Param("id"), taste)
	if err != nil {
		a.fail(c, "generate detailed", err)
		return
	}
	respondOK(c, gin.H{"detailed_knowledge_text": text})
}

func (a *API) generateSummary(c *gin.Context) {
	text, err := a.knowledge.GenerateSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.fail(c, "generate summary", err)
		return
	}
	respondOK(c, gin.H{"knowledge_text": text})
}
