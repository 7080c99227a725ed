package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/echoloop-backend/internal/http"
	httpH "github.com/yungbote/echoloop-backend/internal/http/handlers"
	httpMW "github.com/yungbote/echoloop-backend/internal/http/middleware"
	"github.com/yungbote/echoloop-backend/internal/platform/logger"
	"github.com/yungbote/echoloop-backend/internal/realtime"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health    *httpH.HealthHandler
	Loop      *httpH.LoopHandler
	Socratic  *httpH.SocraticHandler
	Knowledge *httpH.KnowledgeHandler
	Review    *httpH.ReviewHandler
	Events    *httpH.EventsHandler
}

func wireMiddleware(log *logger.Logger, cfg Config) Middleware {
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, cfg.JWTSecretKey),
	}
}

func wireHandlers(log *logger.Logger, services Services, sseHub *realtime.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:    httpH.NewHealthHandler(),
		Loop:      httpH.NewLoopHandler(services.Loop),
		Socratic:  httpH.NewSocraticHandler(services.Socratic),
		Knowledge: httpH.NewKnowledgeHandler(services.Knowledge),
		Review:    httpH.NewReviewHandler(services.Review),
		Events:    httpH.NewEventsHandler(log, sseHub),
	}
}

func wireRouter(handlers Handlers, middleware Middleware) *gin.Engine {
	return http.NewRouter(http.RouterConfig{
		AuthMiddleware:   middleware.Auth,
		HealthHandler:    handlers.Health,
		LoopHandler:      handlers.Loop,
		SocraticHandler:  handlers.Socratic,
		KnowledgeHandler: handlers.Knowledge,
		ReviewHandler:    handlers.Review,
		EventsHandler:    handlers.Events,
	})
}
