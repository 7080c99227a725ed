package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/echoloop-backend/internal/platform/logger"
	"github.com/yungbote/echoloop-backend/internal/realtime"
	"github.com/yungbote/echoloop-backend/internal/realtime/bus"
	"github.com/yungbote/echoloop-backend/internal/services"
)

type Services struct {
	Loop      services.LoopService
	Socratic  services.SocraticService
	Knowledge services.KnowledgeService
	Review    services.ReviewService
	Usage     services.UsageService
}

func wireServices(db *gorm.DB, log *logger.Logger, repos Repos, clients Clients, sseHub *realtime.SSEHub, sseBus bus.Bus) Services {
	log.Info("Wiring services...")

	// With a bus, events go through redis and the forwarder delivers them
	// into every instance's hub, this one included. Without it the hub alone
	// serves local clients.
	var emitter services.SSEEmitter
	if sseBus != nil {
		emitter = &services.RedisEmitter{Bus: sseBus}
	} else {
		emitter = &services.HubEmitter{Hub: sseHub}
	}

	knowledge := services.NewKnowledgeService(db, log, repos.UserConcept, repos.LoopConcept, clients.Graph)
	review := services.NewReviewService(db, log, repos.ReviewSchedule)
	usage := services.NewUsageService(log, clients.Redis)

	loop := services.NewLoopService(
		db, log, clients.Evaluation,
		repos.Loop, repos.LoopAttempt, repos.Concept, repos.LoopConcept, repos.ConceptRelationship,
		knowledge, review, usage, emitter, clients.Graph,
	)
	socratic := services.NewSocraticService(
		db, log, clients.Evaluation,
		repos.SocraticSession, repos.Loop, repos.LoopAttempt,
		loop, emitter,
	)

	return Services{
		Loop:      loop,
		Socratic:  socratic,
		Knowledge: knowledge,
		Review:    review,
		Usage:     usage,
	}
}
