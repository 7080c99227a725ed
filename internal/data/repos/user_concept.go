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

// ProgressUpdate carries the caller-supplied absolute values for a mastery
// upsert. The caller owns incrementing the counters; applying the same update
// twice leaves the row unchanged apart from last_seen_at.
type ProgressUpdate struct {
	MasteryScore      float64
	TimesEncountered  int
	TimesDemonstrated int
	Demonstrated      bool
}

type UserConceptRepo interface {
	UpsertProgress(dbc dbctx.Context, userID, conceptID uuid.UUID, update ProgressUpdate) error
	Get(dbc dbctx.Context, userID, conceptID uuid.UUID) (*types.UserConcept, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.UserConcept, error)
	NeedsReview(dbc dbctx.Context, userID uuid.UUID, now time.Time, limit int) ([]*types.UserConcept, error)
	WeakSpots(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.UserConcept, error)
	RecentProgress(dbc dbctx.Context, userID uuid.UUID, now time.Time, limit int) ([]*types.UserConcept, error)
}

type userConceptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserConceptRepo(db *gorm.DB, baseLog *logger.Logger) UserConceptRepo {
	return &userConceptRepo{db: db, log: baseLog.With("repo", "UserConceptRepo")}
}

func (r *userConceptRepo) UpsertProgress(dbc dbctx.Context, userID, conceptID uuid.UUID, update ProgressUpdate) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil || conceptID == uuid.Nil {
		return nil
	}

	now := time.Now().UTC()
	row := &types.UserConcept{
		ID:                uuid.New(),
		UserID:            userID,
		ConceptID:         conceptID,
		MasteryScore:      update.MasteryScore,
		TimesEncountered:  update.TimesEncountered,
		TimesDemonstrated: update.TimesDemonstrated,
		LastSeenAt:        &now,
		UpdatedAt:         now,
	}
	assigned := []string{
		"mastery_score", "times_encountered", "times_demonstrated",
		"last_seen_at", "updated_at",
	}
	if update.Demonstrated {
		row.LastDemonstratedAt = &now
		assigned = append(assigned, "last_demonstrated_at")
	}
	// Without a demonstration the prior last_demonstrated_at is preserved,
	// not cleared.
	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "concept_id"}},
			DoUpdates: clause.AssignmentColumns(assigned),
		}).
		Create(row).Error
}

func (r *userConceptRepo) Get(dbc dbctx.Context, userID, conceptID uuid.UUID) (*types.UserConcept, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil || conceptID == uuid.Nil {
		return nil, nil
	}
	var row types.UserConcept
	err := t.WithContext(dbc.Ctx).
		Where("user_id = ? AND concept_id = ?", userID, conceptID).
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

func (r *userConceptRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.UserConcept, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.UserConcept{}
	if userID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Preload("Concept").
		Where("user_id = ? AND times_encountered > 0", userID).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userConceptRepo) NeedsReview(dbc dbctx.Context, userID uuid.UUID, now time.Time, limit int) ([]*types.UserConcept, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.UserConcept{}
	if userID == uuid.Nil {
		return out, nil
	}
	if limit <= 0 {
		limit = 20
	}
	staleBefore := now.Add(-7 * 24 * time.Hour)
	if err := t.WithContext(dbc.Ctx).
		Preload("Concept").
		Where("user_id = ? AND times_encountered > 0", userID).
		Where("mastery_score < ? OR last_seen_at IS NULL OR last_seen_at < ?", 60, staleBefore).
		Order("last_seen_at ASC NULLS FIRST").
		Order("mastery_score ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userConceptRepo) WeakSpots(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.UserConcept, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.UserConcept{}
	if userID == uuid.Nil {
		return out, nil
	}
	if limit <= 0 {
		limit = 20
	}
	// Repeated exposure without improvement.
	if err := t.WithContext(dbc.Ctx).
		Preload("Concept").
		Where("user_id = ? AND times_encountered >= 2 AND mastery_score < ?", userID, 50).
		Order("times_encountered DESC").
		Order("mastery_score ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userConceptRepo) RecentProgress(dbc dbctx.Context, userID uuid.UUID, now time.Time, limit int) ([]*types.UserConcept, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.UserConcept{}
	if userID == uuid.Nil {
		return out, nil
	}
	if limit <= 0 {
		limit = 20
	}
	since := now.Add(-7 * 24 * time.Hour)
	if err := t.WithContext(dbc.Ctx).
		Preload("Concept").
		Where("user_id = ? AND times_encountered > 0 AND last_seen_at >= ?", userID, since).
		Order("last_seen_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
