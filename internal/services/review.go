package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/echoloop-backend/internal/data/repos"
	types "github.com/yungbote/echoloop-backend/internal/domain"
	"github.com/yungbote/echoloop-backend/internal/platform/apierr"
	"github.com/yungbote/echoloop-backend/internal/platform/dbctx"
	"github.com/yungbote/echoloop-backend/internal/platform/logger"
)

type ReviewService interface {
	// ScheduleForLoop creates or refreshes the loop's single schedule row at
	// the initial interval, inside the caller's transaction when one is
	// supplied. Called when a loop completes; safe to repeat. Announcing the
	// schedule is the caller's concern, after its transaction commits.
	ScheduleForLoop(dbc dbctx.Context, userID, loopID uuid.UUID) (*types.ReviewSchedule, error)
	GetDue(dbc dbctx.Context, userID uuid.UUID) ([]*types.ReviewSchedule, error)
	CompleteReview(dbc dbctx.Context, userID, scheduleID uuid.UUID, score int) (*types.ReviewSchedule, error)
}

type reviewService struct {
	db           *gorm.DB
	log          *logger.Logger
	scheduleRepo repos.ReviewScheduleRepo
}

func NewReviewService(db *gorm.DB, log *logger.Logger, scheduleRepo repos.ReviewScheduleRepo) ReviewService {
	return &reviewService{
		db:           db,
		log:          log.With("service", "ReviewService"),
		scheduleRepo: scheduleRepo,
	}
}

func (s *reviewService) ScheduleForLoop(dbc dbctx.Context, userID, loopID uuid.UUID) (*types.ReviewSchedule, error) {
	if userID == uuid.Nil || loopID == uuid.Nil {
		return nil, apierr.InvalidArgument(fmt.Errorf("missing user or loop id"))
	}

	now := time.Now().UTC()
	row := &types.ReviewSchedule{
		UserID:       userID,
		LoopID:       loopID,
		IntervalDays: types.InitialIntervalDays,
		NextReviewAt: types.NextReviewAt(now, types.InitialIntervalDays),
		Status:       types.ReviewStatusScheduled,
	}
	if err := s.scheduleRepo.UpsertForLoop(dbc, row); err != nil {
		return nil, fmt.Errorf("upsert review schedule: %w", err)
	}

	stored, err := s.scheduleRepo.GetByLoop(dbc, userID, loopID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, apierr.DataIntegrity(fmt.Errorf("review schedule missing after upsert"))
	}
	return stored, nil
}

func (s *reviewService) GetDue(dbc dbctx.Context, userID uuid.UUID) ([]*types.ReviewSchedule, error) {
	if userID == uuid.Nil {
		return nil, apierr.InvalidArgument(fmt.Errorf("missing user id"))
	}
	return s.scheduleRepo.ListDueByUser(dbc, userID, time.Now().UTC())
}

func (s *reviewService) CompleteReview(dbc dbctx.Context, userID, scheduleID uuid.UUID, score int) (*types.ReviewSchedule, error) {
	if score < 0 || score > 100 {
		return nil, apierr.InvalidArgument(fmt.Errorf("score %d out of range", score))
	}

	run := func(inner dbctx.Context) (*types.ReviewSchedule, error) {
		row, err := s.scheduleRepo.GetByID(inner, scheduleID)
		if err != nil {
			return nil, err
		}
		if row == nil || row.UserID != userID {
			return nil, apierr.NotFound(fmt.Errorf("review schedule not found"))
		}

		now := time.Now().UTC()
		interval := types.NextInterval(row.IntervalDays, score)
		updates := map[string]interface{}{
			"interval_days":    interval,
			"times_reviewed":   row.TimesReviewed + 1,
			"last_reviewed_at": now,
			"last_score":       score,
			"next_review_at":   types.NextReviewAt(now, interval),
		}
		if err := s.scheduleRepo.UpdateFields(inner, scheduleID, updates); err != nil {
			return nil, fmt.Errorf("update review schedule: %w", err)
		}
		return s.scheduleRepo.GetByID(inner, scheduleID)
	}

	if dbc.Tx != nil {
		return run(dbc)
	}

	var out *types.ReviewSchedule
	if err := s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		row, err := run(dbctx.Context{Ctx: dbc.Ctx, Tx: tx})
		if err != nil {
			return err
		}
		out = row
		return nil
	}); err != nil {
		return nil, err
	}
	return out, nil
}
