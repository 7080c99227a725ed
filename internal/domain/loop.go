package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	LoopStatusInProgress = "in_progress"
	LoopStatusMastered   = "mastered"
	LoopStatusAbandoned  = "abandoned"
)

// Precision controls how strictly the evaluation service grades an
// explanation. Stored on the loop and forwarded on every evaluation call.
const (
	PrecisionEssential = "essential"
	PrecisionBalanced  = "balanced"
	PrecisionPrecise   = "precise"
)

const (
	SourceTypeArticle     = "article"
	SourceTypeVideo       = "video"
	SourceTypeBookChapter = "book_chapter"
	SourceTypeLongForm    = "long_form"
)

// LearningLoop is one guided session over one source text, from creation to
// completion or abandonment. Never hard-deleted while attempts reference it.
type LearningLoop struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	SubjectID *uuid.UUID `gorm:"type:uuid;column:subject_id;index" json:"subject_id,omitempty"`

	Title           string `gorm:"column:title;not null" json:"title"`
	SourceText      string `gorm:"column:source_text;type:text;not null" json:"source_text"`
	SourceWordCount int    `gorm:"column:source_word_count;not null;default:0" json:"source_word_count"`
	SourceType      string `gorm:"column:source_type;not null;default:'article';index" json:"source_type"`
	Precision       string `gorm:"column:precision;not null;default:'balanced'" json:"precision"`

	// Extraction output, produced once at creation and cached.
	KeyConcepts datatypes.JSON `gorm:"column:key_concepts;type:jsonb" json:"key_concepts,omitempty"`
	ConceptMap  datatypes.JSON `gorm:"column:concept_map;type:jsonb" json:"concept_map,omitempty"`
	FocusAreas  datatypes.JSON `gorm:"column:focus_areas;type:jsonb" json:"focus_areas,omitempty"`

	Status       string `gorm:"column:status;not null;default:'in_progress';index" json:"status"`
	EntryMode    string `gorm:"column:entry_mode;not null;default:'standard'" json:"entry_mode"`
	CurrentPhase string `gorm:"column:current_phase;not null;index" json:"current_phase"`

	PriorKnowledgeTranscript string         `gorm:"column:prior_knowledge_transcript;type:text" json:"prior_knowledge_transcript,omitempty"`
	PriorKnowledgeAnalysis   datatypes.JSON `gorm:"column:prior_knowledge_analysis;type:jsonb" json:"prior_knowledge_analysis,omitempty"`
	PriorKnowledgeScore      *int           `gorm:"column:prior_knowledge_score" json:"prior_knowledge_score,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (LearningLoop) TableName() string { return "learning_loop" }
