package repos

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/echoloop-backend/internal/domain"
	"github.com/yungbote/echoloop-backend/internal/platform/dbctx"
	"github.com/yungbote/echoloop-backend/internal/platform/logger"
)

type ConceptRepo interface {
	// UpsertByName dedupes on the normalized name and returns the canonical
	// row, whether it already existed or was just created.
	UpsertByName(dbc dbctx.Context, name string) (*types.Concept, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Concept, error)
	GetByNormalizedNames(dbc dbctx.Context, normalized []string) ([]*types.Concept, error)
}

type conceptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConceptRepo(db *gorm.DB, baseLog *logger.Logger) ConceptRepo {
	return &conceptRepo{db: db, log: baseLog.With("repo", "ConceptRepo")}
}

func (r *conceptRepo) UpsertByName(dbc dbctx.Context, name string) (*types.Concept, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	normalized := types.NormalizeConceptName(name)
	if normalized == "" {
		return nil, nil
	}
	row := &types.Concept{
		ID:             uuid.New(),
		Name:           name,
		NormalizedName: normalized,
	}
	// Losing the insert race is fine; the re-read below returns the winner.
	if err := t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "normalized_name"}},
			DoNothing: true,
		}).
		Create(row).Error; err != nil {
		return nil, err
	}
	var out types.Concept
	if err := t.WithContext(dbc.Ctx).
		Where("normalized_name = ?", normalized).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if out.ID == uuid.Nil {
		return nil, nil
	}
	return &out, nil
}

func (r *conceptRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Concept, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.Concept{}
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *conceptRepo) GetByNormalizedNames(dbc dbctx.Context, normalized []string) ([]*types.Concept, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.Concept{}
	if len(normalized) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("normalized_name IN ?", normalized).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
