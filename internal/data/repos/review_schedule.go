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

type ReviewScheduleRepo interface {
	// UpsertForLoop resolves the (user_id, loop_id) uniqueness constraint via
	// field overwrite, so concurrent loop completions cannot fail on conflict.
	UpsertForLoop(dbc dbctx.Context, row *types.ReviewSchedule) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ReviewSchedule, error)
	GetByLoop(dbc dbctx.Context, userID, loopID uuid.UUID) (*types.ReviewSchedule, error)
	ListDueByUser(dbc dbctx.Context, userID uuid.UUID, now time.Time) ([]*types.ReviewSchedule, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type reviewScheduleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReviewScheduleRepo(db *gorm.DB, baseLog *logger.Logger) ReviewScheduleRepo {
	return &reviewScheduleRepo{db: db, log: baseLog.With("repo", "ReviewScheduleRepo")}
}

func (r *reviewScheduleRepo) UpsertForLoop(dbc dbctx.Context, row *types.ReviewSchedule) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil || row.UserID == uuid.Nil || row.LoopID == uuid.Nil {
		return nil
	}
	row.UpdatedAt = time.Now().UTC()
	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "loop_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"next_review_at", "interval_days", "status", "updated_at",
			}),
		}).
		Create(row).Error
}

func (r *reviewScheduleRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ReviewSchedule, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.ReviewSchedule
	err := t.WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *reviewScheduleRepo) GetByLoop(dbc dbctx.Context, userID, loopID uuid.UUID) (*types.ReviewSchedule, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil || loopID == uuid.Nil {
		return nil, nil
	}
	var row types.ReviewSchedule
	err := t.WithContext(dbc.Ctx).
		Where("user_id = ? AND loop_id = ?", userID, loopID).
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

func (r *reviewScheduleRepo) ListDueByUser(dbc dbctx.Context, userID uuid.UUID, now time.Time) ([]*types.ReviewSchedule, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.ReviewSchedule{}
	if userID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("user_id = ? AND status = ? AND next_review_at <= ?", userID, types.ReviewStatusScheduled, now).
		Order("next_review_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *reviewScheduleRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.ReviewSchedule{}).
		Where("id = ?", id).
		Updates(updates).Error
}
