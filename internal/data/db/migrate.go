package db

import (
	types "github.com/yungbote/echoloop-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.User{},

		// Loop lifecycle
		&types.LearningLoop{},
		&types.LoopAttempt{},
		&types.SocraticSession{},

		// Knowledge graph
		&types.Concept{},
		&types.UserConcept{},
		&types.ConceptRelationship{},
		&types.LoopConcept{},

		// Spaced repetition
		&types.ReviewSchedule{},
	)
}
