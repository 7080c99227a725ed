package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Concept is a deduplicated named entity. NormalizedName is the dedupe key:
// re-extraction across loops merges into the same node.
type Concept struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name           string    `gorm:"column:name;not null" json:"name"`
	NormalizedName string    `gorm:"column:normalized_name;not null;uniqueIndex" json:"normalized_name"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Concept) TableName() string { return "concept" }

// NormalizeConceptName lower-cases, trims, and collapses inner whitespace so
// "Photosynthesis" and "photosynthesis " resolve to the same row.
func NormalizeConceptName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// UserConcept is the per-user mastery record for a concept. MasteryScore is
// stored raw (last evaluated value, 0-100) and consumed through RecencyWeight.
type UserConcept struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_user_concept,unique,priority:1" json:"user_id"`
	ConceptID uuid.UUID `gorm:"type:uuid;not null;index:idx_user_concept,unique,priority:2" json:"concept_id"`

	MasteryScore      float64 `gorm:"column:mastery_score;not null;default:0" json:"mastery_score"`
	TimesEncountered  int     `gorm:"column:times_encountered;not null;default:0" json:"times_encountered"`
	TimesDemonstrated int     `gorm:"column:times_demonstrated;not null;default:0" json:"times_demonstrated"`

	LastSeenAt         *time.Time `gorm:"column:last_seen_at;index" json:"last_seen_at,omitempty"`
	LastDemonstratedAt *time.Time `gorm:"column:last_demonstrated_at" json:"last_demonstrated_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`

	Concept *Concept `gorm:"foreignKey:ConceptID;references:ID" json:"concept,omitempty"`
}

func (UserConcept) TableName() string { return "user_concept" }

const (
	RelationshipRelated      = "related_to"
	RelationshipPrerequisite = "prerequisite_of"
	RelationshipPartOf       = "part_of"
)

// ConceptRelationship is a directed, strength-weighted edge. Strength
// accumulates via increment-on-conflict, never overwrite.
type ConceptRelationship struct {
	ID               uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	FromConceptID    uuid.UUID `gorm:"type:uuid;not null;index:idx_concept_rel,unique,priority:1" json:"from_concept_id"`
	ToConceptID      uuid.UUID `gorm:"type:uuid;not null;index:idx_concept_rel,unique,priority:2" json:"to_concept_id"`
	RelationshipType string    `gorm:"column:relationship_type;not null;index:idx_concept_rel,unique,priority:3" json:"relationship_type"`

	Strength int `gorm:"column:strength;not null;default:1" json:"strength"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (ConceptRelationship) TableName() string { return "concept_relationship" }

// LoopConcept joins a loop to a concept extracted from its source text, with
// demonstration tracking stamped as attempts cover the concept.
type LoopConcept struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	LoopID    uuid.UUID `gorm:"type:uuid;not null;index:idx_loop_concept,unique,priority:1" json:"loop_id"`
	ConceptID uuid.UUID `gorm:"type:uuid;not null;index:idx_loop_concept,unique,priority:2" json:"concept_id"`

	Importance  string `gorm:"column:importance;not null;default:'supporting'" json:"importance"`
	Explanation string `gorm:"column:explanation;type:text" json:"explanation,omitempty"`

	WasDemonstrated     bool       `gorm:"column:was_demonstrated;not null;default:false" json:"was_demonstrated"`
	DemonstratedAt      *time.Time `gorm:"column:demonstrated_at" json:"demonstrated_at,omitempty"`
	DemonstratedInPhase string     `gorm:"column:demonstrated_in_phase" json:"demonstrated_in_phase,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`

	Concept *Concept `gorm:"foreignKey:ConceptID;references:ID" json:"concept,omitempty"`
}

func (LoopConcept) TableName() string { return "loop_concept" }

const (
	ImportanceEssential  = "essential"
	ImportanceSupporting = "supporting"
)
