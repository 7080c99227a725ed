package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/echoloop-backend/internal/platform/apierr"
	"github.com/yungbote/echoloop-backend/internal/platform/envutil"
	"github.com/yungbote/echoloop-backend/internal/platform/logger"
)

// UsageService meters attempt submissions per user per day. Enforcement is a
// collaborator concern: a nil redis client or a zero limit means unlimited.
type UsageService interface {
	ConsumeAttempt(ctx context.Context, userID uuid.UUID) error
}

type usageService struct {
	log        *logger.Logger
	rdb        *goredis.Client
	dailyLimit int
}

func NewUsageService(log *logger.Logger, rdb *goredis.Client) UsageService {
	return &usageService{
		log:        log.With("service", "UsageService"),
		rdb:        rdb,
		dailyLimit: envutil.Int("USAGE_DAILY_ATTEMPT_LIMIT", 0),
	}
}

func (s *usageService) ConsumeAttempt(ctx context.Context, userID uuid.UUID) error {
	if s.rdb == nil || s.dailyLimit <= 0 {
		return nil
	}
	if userID == uuid.Nil {
		return nil
	}

	key := fmt.Sprintf("usage:attempts:%s:%s", userID, time.Now().UTC().Format("2006-01-02"))
	count, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		// Metering outage never blocks learning.
		s.log.Warn("usage counter unavailable, allowing attempt", "error", err)
		return nil
	}
	if count == 1 {
		// Expiry covers the day boundary with slack for clock skew.
		_ = s.rdb.Expire(ctx, key, 48*time.Hour).Err()
	}
	if count > int64(s.dailyLimit) {
		return apierr.UsageLimit(fmt.Errorf("daily attempt limit of %d reached", s.dailyLimit))
	}
	return nil
}
