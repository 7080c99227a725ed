package repos

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/echoloop-backend/internal/domain"
	"github.com/yungbote/echoloop-backend/internal/platform/dbctx"
	"github.com/yungbote/echoloop-backend/internal/platform/logger"
)

// LoopAttemptRepo is an append-only ledger. Attempt numbering is computed by
// the caller inside a transaction holding the loop row lock; the unique index
// on (loop_id, attempt_number) backstops concurrent submissions.
type LoopAttemptRepo interface {
	Create(dbc dbctx.Context, row *types.LoopAttempt) error
	CountByLoop(dbc dbctx.Context, loopID uuid.UUID) (int64, error)
	LatestByLoop(dbc dbctx.Context, loopID uuid.UUID) (*types.LoopAttempt, error)
	ListByLoop(dbc dbctx.Context, loopID uuid.UUID) ([]*types.LoopAttempt, error)
}

type loopAttemptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLoopAttemptRepo(db *gorm.DB, baseLog *logger.Logger) LoopAttemptRepo {
	return &loopAttemptRepo{db: db, log: baseLog.With("repo", "LoopAttemptRepo")}
}

func (r *loopAttemptRepo) Create(dbc dbctx.Context, row *types.LoopAttempt) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil
	}
	return t.WithContext(dbc.Ctx).Create(row).Error
}

func (r *loopAttemptRepo) CountByLoop(dbc dbctx.Context, loopID uuid.UUID) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if loopID == uuid.Nil {
		return 0, nil
	}
	var n int64
	err := t.WithContext(dbc.Ctx).
		Model(&types.LoopAttempt{}).
		Where("loop_id = ?", loopID).
		Count(&n).Error
	return n, err
}

func (r *loopAttemptRepo) LatestByLoop(dbc dbctx.Context, loopID uuid.UUID) (*types.LoopAttempt, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if loopID == uuid.Nil {
		return nil, nil
	}
	var rows []*types.LoopAttempt
	err := t.WithContext(dbc.Ctx).
		Where("loop_id = ?", loopID).
		Order("attempt_number DESC").
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

func (r *loopAttemptRepo) ListByLoop(dbc dbctx.Context, loopID uuid.UUID) ([]*types.LoopAttempt, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.LoopAttempt{}
	if loopID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("loop_id = ?", loopID).
		Order("attempt_number ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
