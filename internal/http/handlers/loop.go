package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/echoloop-backend/internal/domain"
	"github.com/yungbote/echoloop-backend/internal/http/response"
	"github.com/yungbote/echoloop-backend/internal/platform/dbctx"
	"github.com/yungbote/echoloop-backend/internal/services"
)

type LoopHandler struct {
	loopService services.LoopService
}

func NewLoopHandler(loopService services.LoopService) *LoopHandler {
	return &LoopHandler{loopService: loopService}
}

// POST /loops
func (lh *LoopHandler) CreateLoop(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req services.CreateLoopInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondErrorWith(c, 400, "invalid_argument", err)
		return
	}
	loop, err := lh.loopService.CreateLoop(c.Request.Context(), userID, req)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"loop": loop})
}

// GET /loops?status=in_progress
func (lh *LoopHandler) ListLoops(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	loops, err := lh.loopService.ListLoops(dbctx.Context{Ctx: c.Request.Context()}, userID, c.Query("status"))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"loops": loops})
}

// GET /loops/:id
func (lh *LoopHandler) GetLoop(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	loopID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	loop, attempts, err := lh.loopService.GetLoop(dbctx.Context{Ctx: c.Request.Context()}, userID, loopID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"loop": loop, "attempts": attempts})
}

// POST /loops/:id/attempts
func (lh *LoopHandler) SubmitAttempt(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	loopID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req services.SubmitAttemptInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondErrorWith(c, 400, "invalid_argument", err)
		return
	}
	result, err := lh.loopService.SubmitAttempt(c.Request.Context(), userID, loopID, req)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, result)
}

// POST /loops/:id/advance
func (lh *LoopHandler) AdvancePhase(c *gin.Context) {
	lh.phaseAction(c, lh.loopService.AdvancePhase)
}

// POST /loops/:id/prior-knowledge
// body: { "transcript": "..." }
func (lh *LoopHandler) SubmitPriorKnowledge(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	loopID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Transcript string `json:"transcript"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondErrorWith(c, 400, "invalid_argument", err)
		return
	}
	loop, err := lh.loopService.SubmitPriorKnowledge(c.Request.Context(), userID, loopID, req.Transcript)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"loop": loop})
}

// POST /loops/:id/prior-knowledge/skip
func (lh *LoopHandler) SkipPriorKnowledge(c *gin.Context) {
	lh.phaseAction(c, lh.loopService.SkipPriorKnowledge)
}

// POST /loops/:id/finish-reading
func (lh *LoopHandler) FinishReading(c *gin.Context) {
	lh.phaseAction(c, lh.loopService.FinishReading)
}

// POST /loops/:id/focus-areas/viewed
func (lh *LoopHandler) ViewFocusAreas(c *gin.Context) {
	lh.phaseAction(c, lh.loopService.ViewFocusAreas)
}

// POST /loops/:id/abandon
func (lh *LoopHandler) AbandonLoop(c *gin.Context) {
	lh.phaseAction(c, lh.loopService.AbandonLoop)
}

func (lh *LoopHandler) phaseAction(c *gin.Context, action func(ctx context.Context, userID, loopID uuid.UUID) (*types.LearningLoop, error)) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	loopID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	loop, err := action(c.Request.Context(), userID, loopID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"loop": loop})
}
