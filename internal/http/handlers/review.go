package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/echoloop-backend/internal/http/response"
	"github.com/yungbote/echoloop-backend/internal/platform/dbctx"
	"github.com/yungbote/echoloop-backend/internal/services"
)

type ReviewHandler struct {
	reviewService services.ReviewService
}

func NewReviewHandler(reviewService services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// GET /reviews/due
func (rh *ReviewHandler) GetDue(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	rows, err := rh.reviewService.GetDue(dbctx.Context{Ctx: c.Request.Context()}, userID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"reviews": rows})
}

// POST /reviews/:id/complete
// body: { "score": 0..100 }
func (rh *ReviewHandler) CompleteReview(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	scheduleID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Score *int `json:"score"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondErrorWith(c, 400, "invalid_argument", err)
		return
	}
	if req.Score == nil || *req.Score < 0 || *req.Score > 100 {
		response.RespondErrorWith(c, 400, "invalid_argument", fmt.Errorf("score must be in [0,100]"))
		return
	}
	schedule, err := rh.reviewService.CompleteReview(dbctx.Context{Ctx: c.Request.Context()}, userID, scheduleID, *req.Score)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"schedule": schedule})
}
