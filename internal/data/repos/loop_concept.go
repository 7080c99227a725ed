package repos

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/echoloop-backend/internal/domain"
	"github.com/yungbote/echoloop-backend/internal/platform/dbctx"
	"github.com/yungbote/echoloop-backend/internal/platform/logger"
)

// CrossConnection is a concept that recurs across a user's loops.
type CrossConnection struct {
	ConceptID uuid.UUID `json:"concept_id"`
	Name      string    `json:"name"`
	LoopCount int       `json:"loop_count"`
}

type LoopConceptRepo interface {
	CreateBatch(dbc dbctx.Context, rows []*types.LoopConcept) error
	ListByLoop(dbc dbctx.Context, loopID uuid.UUID) ([]*types.LoopConcept, error)
	// MarkDemonstrated stamps the phase and time on the join rows whose
	// concepts the attempt covered. Already-demonstrated rows keep their
	// first stamp.
	MarkDemonstrated(dbc dbctx.Context, loopID uuid.UUID, conceptIDs []uuid.UUID, phase string, at time.Time) error
	CrossConnections(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*CrossConnection, error)
}

type loopConceptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLoopConceptRepo(db *gorm.DB, baseLog *logger.Logger) LoopConceptRepo {
	return &loopConceptRepo{db: db, log: baseLog.With("repo", "LoopConceptRepo")}
}

func (r *loopConceptRepo) CreateBatch(dbc dbctx.Context, rows []*types.LoopConcept) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "loop_id"}, {Name: "concept_id"}},
			DoNothing: true,
		}).
		Create(&rows).Error
}

func (r *loopConceptRepo) ListByLoop(dbc dbctx.Context, loopID uuid.UUID) ([]*types.LoopConcept, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.LoopConcept{}
	if loopID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Preload("Concept").
		Where("loop_id = ?", loopID).
		Order("importance ASC, created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *loopConceptRepo) MarkDemonstrated(dbc dbctx.Context, loopID uuid.UUID, conceptIDs []uuid.UUID, phase string, at time.Time) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if loopID == uuid.Nil || len(conceptIDs) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.LoopConcept{}).
		Where("loop_id = ? AND concept_id IN ? AND was_demonstrated = ?", loopID, conceptIDs, false).
		Updates(map[string]interface{}{
			"was_demonstrated":      true,
			"demonstrated_at":       at,
			"demonstrated_in_phase": phase,
		}).Error
}

func (r *loopConceptRepo) CrossConnections(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*CrossConnection, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*CrossConnection{}
	if userID == uuid.Nil {
		return out, nil
	}
	if limit <= 0 {
		limit = 20
	}
	err := t.WithContext(dbc.Ctx).
		Table("loop_concept").
		Select("loop_concept.concept_id AS concept_id, concept.name AS name, COUNT(DISTINCT loop_concept.loop_id) AS loop_count").
		Joins("JOIN learning_loop ON learning_loop.id = loop_concept.loop_id").
		Joins("JOIN concept ON concept.id = loop_concept.concept_id").
		Where("learning_loop.user_id = ? AND learning_loop.deleted_at IS NULL", userID).
		Group("loop_concept.concept_id, concept.name").
		Having("COUNT(DISTINCT loop_concept.loop_id) >= 2").
		Order("loop_count DESC").
		Limit(limit).
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
