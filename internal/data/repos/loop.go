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

type LoopRepo interface {
	Create(dbc dbctx.Context, row *types.LearningLoop) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.LearningLoop, error)
	// GetByIDForUpdate takes a row lock; attempt numbering and phase writes
	// for a loop serialize behind it.
	GetByIDForUpdate(dbc dbctx.Context, id uuid.UUID) (*types.LearningLoop, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, status string) ([]*types.LearningLoop, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type loopRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLoopRepo(db *gorm.DB, baseLog *logger.Logger) LoopRepo {
	return &loopRepo{db: db, log: baseLog.With("repo", "LoopRepo")}
}

func (r *loopRepo) Create(dbc dbctx.Context, row *types.LearningLoop) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil
	}
	return t.WithContext(dbc.Ctx).Create(row).Error
}

func (r *loopRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.LearningLoop, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.LearningLoop
	err := t.WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *loopRepo) GetByIDForUpdate(dbc dbctx.Context, id uuid.UUID) (*types.LearningLoop, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.LearningLoop
	err := t.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *loopRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, status string) ([]*types.LearningLoop, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.LearningLoop{}
	if userID == uuid.Nil {
		return out, nil
	}
	q := t.WithContext(dbc.Ctx).Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *loopRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.LearningLoop{}).
		Where("id = ?", id).
		Updates(updates).Error
}
