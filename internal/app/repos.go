package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/echoloop-backend/internal/data/repos"
	"github.com/yungbote/echoloop-backend/internal/platform/logger"
)

type Repos struct {
	User                repos.UserRepo
	Loop                repos.LoopRepo
	LoopAttempt         repos.LoopAttemptRepo
	SocraticSession     repos.SocraticSessionRepo
	Concept             repos.ConceptRepo
	LoopConcept         repos.LoopConceptRepo
	ConceptRelationship repos.ConceptRelationshipRepo
	UserConcept         repos.UserConceptRepo
	ReviewSchedule      repos.ReviewScheduleRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:                repos.NewUserRepo(db, log),
		Loop:                repos.NewLoopRepo(db, log),
		LoopAttempt:         repos.NewLoopAttemptRepo(db, log),
		SocraticSession:     repos.NewSocraticSessionRepo(db, log),
		Concept:             repos.NewConceptRepo(db, log),
		LoopConcept:         repos.NewLoopConceptRepo(db, log),
		ConceptRelationship: repos.NewConceptRelationshipRepo(db, log),
		UserConcept:         repos.NewUserConceptRepo(db, log),
		ReviewSchedule:      repos.NewReviewScheduleRepo(db, log),
	}
}
