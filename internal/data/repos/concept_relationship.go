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

type ConceptRelationshipRepo interface {
	// UpsertIncrementStrength accumulates edge strength under the
	// (from, to, type) natural key. Increment-on-conflict, never
	// last-write-wins: two concurrent observations both count.
	UpsertIncrementStrength(dbc dbctx.Context, fromID, toID uuid.UUID, relType string, delta int) error
	ListFrom(dbc dbctx.Context, fromIDs []uuid.UUID) ([]*types.ConceptRelationship, error)
}

type conceptRelationshipRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConceptRelationshipRepo(db *gorm.DB, baseLog *logger.Logger) ConceptRelationshipRepo {
	return &conceptRelationshipRepo{db: db, log: baseLog.With("repo", "ConceptRelationshipRepo")}
}

func (r *conceptRelationshipRepo) UpsertIncrementStrength(dbc dbctx.Context, fromID, toID uuid.UUID, relType string, delta int) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if fromID == uuid.Nil || toID == uuid.Nil || relType == "" || fromID == toID {
		return nil
	}
	if delta <= 0 {
		delta = 1
	}
	now := time.Now().UTC()
	row := &types.ConceptRelationship{
		ID:               uuid.New(),
		FromConceptID:    fromID,
		ToConceptID:      toID,
		RelationshipType: relType,
		Strength:         delta,
		UpdatedAt:        now,
	}
	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "from_concept_id"}, {Name: "to_concept_id"}, {Name: "relationship_type"},
			},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"strength":   gorm.Expr("concept_relationship.strength + ?", delta),
				"updated_at": now,
			}),
		}).
		Create(row).Error
}

func (r *conceptRelationshipRepo) ListFrom(dbc dbctx.Context, fromIDs []uuid.UUID) ([]*types.ConceptRelationship, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.ConceptRelationship{}
	if len(fromIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("from_concept_id IN ?", fromIDs).
		Order("strength DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
