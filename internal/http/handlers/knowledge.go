package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/echoloop-backend/internal/domain"
	"github.com/yungbote/echoloop-backend/internal/http/response"
	"github.com/yungbote/echoloop-backend/internal/platform/dbctx"
	"github.com/yungbote/echoloop-backend/internal/services"
)

type KnowledgeHandler struct {
	knowledgeService services.KnowledgeService
}

func NewKnowledgeHandler(knowledgeService services.KnowledgeService) *KnowledgeHandler {
	return &KnowledgeHandler{knowledgeService: knowledgeService}
}

// GET /knowledge/stats
func (kh *KnowledgeHandler) Stats(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	stats, err := kh.knowledgeService.Stats(dbctx.Context{Ctx: c.Request.Context()}, userID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, stats)
}

// GET /knowledge/needs-review?limit=20
func (kh *KnowledgeHandler) NeedsReview(c *gin.Context) {
	kh.selection(c, kh.knowledgeService.NeedsReview)
}

// GET /knowledge/weak-spots?limit=20
func (kh *KnowledgeHandler) WeakSpots(c *gin.Context) {
	kh.selection(c, kh.knowledgeService.WeakSpots)
}

// GET /knowledge/recent-progress?limit=20
func (kh *KnowledgeHandler) RecentProgress(c *gin.Context) {
	kh.selection(c, kh.knowledgeService.RecentProgress)
}

// GET /knowledge/connections?limit=20
func (kh *KnowledgeHandler) Connections(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	limit := queryLimit(c, 20, 100)
	rows, err := kh.knowledgeService.CrossConnections(dbctx.Context{Ctx: c.Request.Context()}, userID, limit)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"connections": rows})
}

func (kh *KnowledgeHandler) selection(c *gin.Context, query func(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.UserConcept, error)) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	limit := queryLimit(c, 20, 100)
	rows, err := query(dbctx.Context{Ctx: c.Request.Context()}, userID, limit)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"concepts": rows})
}
