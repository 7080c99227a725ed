package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	SocraticStatusActive    = "active"
	SocraticStatusCompleted = "completed"
	SocraticStatusAbandoned = "abandoned"
)

const (
	SocraticRoleTutor   = "tutor"
	SocraticRoleLearner = "learner"
)

// SocraticSession is a remediation dialogue targeting the concepts a
// triggering attempt missed. A loop has at most one active session;
// historical sessions are retained.
type SocraticSession struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	LoopID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"loop_id"`
	AttemptID *uuid.UUID `gorm:"type:uuid;column:attempt_id" json:"attempt_id,omitempty"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`

	TargetConcepts datatypes.JSON `gorm:"column:target_concepts;type:jsonb" json:"target_concepts"`
	// Accumulating set; grows monotonically, never shrinks.
	ConceptsAddressed datatypes.JSON `gorm:"column:concepts_addressed;type:jsonb" json:"concepts_addressed"`
	Messages          datatypes.JSON `gorm:"column:messages;type:jsonb" json:"messages"`

	Status string `gorm:"column:status;not null;default:'active';index" json:"status"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (SocraticSession) TableName() string { return "socratic_session" }

type SocraticMessage struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	SentAt  time.Time `json:"sent_at"`
}

// AllAddressed reports whether every target concept appears in the addressed
// set. Comparison is by normalized concept name.
func AllAddressed(targets, addressed []string) bool {
	if len(targets) == 0 {
		return true
	}
	seen := make(map[string]bool, len(addressed))
	for _, a := range addressed {
		seen[NormalizeConceptName(a)] = true
	}
	for _, t := range targets {
		if !seen[NormalizeConceptName(t)] {
			return false
		}
	}
	return true
}

// MergeAddressed unions newly addressed concepts into the accumulating set,
// preserving first-seen order.
func MergeAddressed(existing, incoming []string) []string {
	out := make([]string, 0, len(existing)+len(incoming))
	seen := make(map[string]bool, len(existing)+len(incoming))
	for _, s := range existing {
		key := NormalizeConceptName(s)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	for _, s := range incoming {
		key := NormalizeConceptName(s)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
