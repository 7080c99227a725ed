package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/echoloop-backend/internal/platform/logger"
	"github.com/yungbote/echoloop-backend/internal/realtime"
)

// EventsHandler serves the per-user SSE stream. Every connection subscribes
// to the caller's user channel; the services broadcast phase changes, attempt
// scores, socratic replies and review scheduling there.
type EventsHandler struct {
	log *logger.Logger
	hub *realtime.SSEHub
}

func NewEventsHandler(log *logger.Logger, hub *realtime.SSEHub) *EventsHandler {
	return &EventsHandler{
		log: log.With("handler", "EventsHandler"),
		hub: hub,
	}
}

// GET /events
func (eh *EventsHandler) Stream(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	client := eh.hub.NewSSEClient(userID)
	client.Logger = eh.log.With("sse_client_id", client.ID)
	eh.hub.AddChannel(client, realtime.UserChannel(userID))

	// Blocks until the client disconnects.
	eh.hub.ServeHTTP(c.Writer, c.Request, client)
	eh.hub.CloseClient(client)
}
