package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/yungbote/echoloop-backend/internal/http/handlers"
	httpMW "github.com/yungbote/echoloop-backend/internal/http/middleware"
)

type RouterConfig struct {
	AuthMiddleware *httpMW.AuthMiddleware

	LoopHandler      *httpH.LoopHandler
	SocraticHandler  *httpH.SocraticHandler
	KnowledgeHandler *httpH.KnowledgeHandler
	ReviewHandler    *httpH.ReviewHandler
	EventsHandler    *httpH.EventsHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.Default()
	r.Use(httpMW.AttachRequestContext())
	r.Use(httpMW.CORS())

	// Health (public)
	if cfg.HealthHandler != nil {
		r.GET("/health", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		if cfg.AuthMiddleware != nil {
			api.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Realtime (SSE)
		if cfg.EventsHandler != nil {
			api.GET("/events", cfg.EventsHandler.Stream)
		}

		// Loops
		if cfg.LoopHandler != nil {
			api.POST("/loops", cfg.LoopHandler.CreateLoop)
			api.GET("/loops", cfg.LoopHandler.ListLoops)
			api.GET("/loops/:id", cfg.LoopHandler.GetLoop)
			api.POST("/loops/:id/attempts", cfg.LoopHandler.SubmitAttempt)
			api.POST("/loops/:id/advance", cfg.LoopHandler.AdvancePhase)
			api.POST("/loops/:id/prior-knowledge", cfg.LoopHandler.SubmitPriorKnowledge)
			api.POST("/loops/:id/prior-knowledge/skip", cfg.LoopHandler.SkipPriorKnowledge)
			api.POST("/loops/:id/finish-reading", cfg.LoopHandler.FinishReading)
			api.POST("/loops/:id/focus-areas/viewed", cfg.LoopHandler.ViewFocusAreas)
			api.POST("/loops/:id/abandon", cfg.LoopHandler.AbandonLoop)
		}

		// Socratic remediation
		if cfg.SocraticHandler != nil {
			api.POST("/loops/:id/socratic", cfg.SocraticHandler.StartSession)
			api.POST("/socratic/:id/messages", cfg.SocraticHandler.SendMessage)
			api.POST("/socratic/:id/skip", cfg.SocraticHandler.SkipSession)
		}

		// Knowledge graph
		if cfg.KnowledgeHandler != nil {
			api.GET("/knowledge/stats", cfg.KnowledgeHandler.Stats)
			api.GET("/knowledge/needs-review", cfg.KnowledgeHandler.NeedsReview)
			api.GET("/knowledge/weak-spots", cfg.KnowledgeHandler.WeakSpots)
			api.GET("/knowledge/recent-progress", cfg.KnowledgeHandler.RecentProgress)
			api.GET("/knowledge/connections", cfg.KnowledgeHandler.Connections)
		}

		// Spaced reviews
		if cfg.ReviewHandler != nil {
			api.GET("/reviews/due", cfg.ReviewHandler.GetDue)
			api.POST("/reviews/:id/complete", cfg.ReviewHandler.CompleteReview)
		}
	}

	return r
}
