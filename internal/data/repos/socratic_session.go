package repos

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/echoloop-backend/internal/domain"
	"github.com/yungbote/echoloop-backend/internal/platform/dbctx"
	"github.com/yungbote/echoloop-backend/internal/platform/logger"
)

type SocraticSessionRepo interface {
	Create(dbc dbctx.Context, row *types.SocraticSession) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.SocraticSession, error)
	// GetActiveByLoop returns the loop's single active session, or nil.
	GetActiveByLoop(dbc dbctx.Context, loopID uuid.UUID) (*types.SocraticSession, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type socraticSessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSocraticSessionRepo(db *gorm.DB, baseLog *logger.Logger) SocraticSessionRepo {
	return &socraticSessionRepo{db: db, log: baseLog.With("repo", "SocraticSessionRepo")}
}

func (r *socraticSessionRepo) Create(dbc dbctx.Context, row *types.SocraticSession) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil
	}
	return t.WithContext(dbc.Ctx).Create(row).Error
}

func (r *socraticSessionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.SocraticSession, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.SocraticSession
	err := t.WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *socraticSessionRepo) GetActiveByLoop(dbc dbctx.Context, loopID uuid.UUID) (*types.SocraticSession, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if loopID == uuid.Nil {
		return nil, nil
	}
	var rows []*types.SocraticSession
	err := t.WithContext(dbc.Ctx).
		Where("loop_id = ? AND status = ?", loopID, types.SocraticStatusActive).
		Order("created_at DESC").
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *socraticSessionRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.SocraticSession{}).
		Where("id = ?", id).
		Updates(updates).Error
}
