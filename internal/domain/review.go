package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	ReviewStatusScheduled = "scheduled"
	ReviewStatusPaused    = "paused"
)

// ReviewSchedule is the spaced-repetition checkpoint for a completed loop.
// One row per (user, loop); created or refreshed only when the loop reaches
// the complete phase.
type ReviewSchedule struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index:idx_review_user_loop,unique,priority:1" json:"user_id"`
	LoopID uuid.UUID `gorm:"type:uuid;not null;index:idx_review_user_loop,unique,priority:2" json:"loop_id"`

	NextReviewAt   time.Time  `gorm:"column:next_review_at;not null;index" json:"next_review_at"`
	IntervalDays   int        `gorm:"column:interval_days;not null;default:1" json:"interval_days"`
	TimesReviewed  int        `gorm:"column:times_reviewed;not null;default:0" json:"times_reviewed"`
	LastReviewedAt *time.Time `gorm:"column:last_reviewed_at" json:"last_reviewed_at,omitempty"`
	LastScore      *int       `gorm:"column:last_score" json:"last_score,omitempty"`

	Status string `gorm:"column:status;not null;default:'scheduled';index" json:"status"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (ReviewSchedule) TableName() string { return "review_schedule" }
