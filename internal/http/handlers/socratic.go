package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/echoloop-backend/internal/http/response"
	"github.com/yungbote/echoloop-backend/internal/services"
)

type SocraticHandler struct {
	socraticService services.SocraticService
}

func NewSocraticHandler(socraticService services.SocraticService) *SocraticHandler {
	return &SocraticHandler{socraticService: socraticService}
}

// POST /loops/:id/socratic
func (sh *SocraticHandler) StartSession(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	loopID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	session, err := sh.socraticService.StartSession(c.Request.Context(), userID, loopID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"session": session})
}

// POST /socratic/:id/messages
// body: { "content": "..." }
func (sh *SocraticHandler) SendMessage(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	sessionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondErrorWith(c, 400, "invalid_argument", err)
		return
	}
	turn, err := sh.socraticService.SendMessage(c.Request.Context(), userID, sessionID, req.Content)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, turn)
}

// POST /socratic/:id/skip
func (sh *SocraticHandler) SkipSession(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	sessionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	loop, err := sh.socraticService.SkipSession(c.Request.Context(), userID, sessionID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"loop": loop})
}
