package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	AttemptTypeFullExplanation   = "full_explanation"
	AttemptTypeSimplifyChallenge = "simplify_challenge"
)

// LoopAttempt is one scored explanation within a loop. Rows are immutable
// once created; the ledger is append-only, ordered by AttemptNumber.
type LoopAttempt struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	LoopID uuid.UUID `gorm:"type:uuid;not null;index:idx_attempt_loop_number,unique,priority:1" json:"loop_id"`

	AttemptNumber int    `gorm:"column:attempt_number;not null;index:idx_attempt_loop_number,unique,priority:2" json:"attempt_number"`
	AttemptType   string `gorm:"column:attempt_type;not null;default:'full_explanation'" json:"attempt_type"`

	Transcript      string `gorm:"column:transcript;type:text;not null" json:"transcript"`
	DurationSeconds int    `gorm:"column:duration_seconds;not null;default:0" json:"duration_seconds"`

	Score    int     `gorm:"column:score;not null" json:"score"`
	Coverage float64 `gorm:"column:coverage;not null" json:"coverage"`
	Accuracy float64 `gorm:"column:accuracy;not null" json:"accuracy"`

	Analysis      datatypes.JSON `gorm:"column:analysis;type:jsonb" json:"analysis,omitempty"`
	SpeechMetrics datatypes.JSON `gorm:"column:speech_metrics;type:jsonb" json:"speech_metrics,omitempty"`

	// Nil on the first attempt of a loop.
	ScoreDelta   *int           `gorm:"column:score_delta" json:"score_delta,omitempty"`
	NewlyCovered datatypes.JSON `gorm:"column:newly_covered;type:jsonb" json:"newly_covered,omitempty"`

	Persona string `gorm:"column:persona" json:"persona,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (LoopAttempt) TableName() string { return "loop_attempt" }

// DeliveryScript is the spoken-feedback script returned by the evaluation
// service, stored verbatim inside the attempt analysis.
type DeliveryScript struct {
	Intro             string `json:"intro"`
	ScoreAnnouncement string `json:"score_announcement"`
	CoveredSummary    string `json:"covered_summary"`
	MissedSummary     string `json:"missed_summary"`
	Closing           string `json:"closing"`
}

// ExplanationAnalysis is the structured evaluation payload persisted on an
// attempt (and on the loop for the prior-knowledge assessment).
type ExplanationAnalysis struct {
	CoveredPoints  []string       `json:"covered_points"`
	MissedPoints   []string       `json:"missed_points"`
	Feedback       string         `json:"feedback"`
	DeliveryScript DeliveryScript `json:"delivery_script"`
}

type SpeechMetrics struct {
	WordCount      int     `json:"word_count"`
	WordsPerMinute float64 `json:"words_per_minute"`
	FillerWords    int     `json:"filler_words"`
}
