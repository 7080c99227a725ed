package domain

import "time"

// Effective-mastery bucket thresholds.
const (
	MasteredThreshold = 80.0
	LearningThreshold = 40.0
)

const (
	BucketMastered = "mastered"
	BucketLearning = "learning"
	BucketNew      = "new"
)

// RecencyWeight is the single decay function applied wherever mastery is
// read. Mastery is stored raw and never aged in place: every read derives the
// decayed value from last_seen_at alone, so no background job is needed.
func RecencyWeight(lastSeenAt *time.Time, now time.Time) float64 {
	if lastSeenAt == nil || lastSeenAt.IsZero() {
		return 0.25
	}
	age := now.Sub(*lastSeenAt)
	switch {
	case age <= 7*24*time.Hour:
		return 1.0
	case age <= 14*24*time.Hour:
		return 0.9
	case age <= 30*24*time.Hour:
		return 0.75
	case age <= 60*24*time.Hour:
		return 0.5
	default:
		return 0.25
	}
}

// EffectiveMastery is the raw score scaled by recency.
func EffectiveMastery(masteryScore float64, lastSeenAt *time.Time, now time.Time) float64 {
	return masteryScore * RecencyWeight(lastSeenAt, now)
}

// MasteryBucket classifies an effective-mastery value.
func MasteryBucket(effective float64) string {
	switch {
	case effective >= MasteredThreshold:
		return BucketMastered
	case effective >= LearningThreshold:
		return BucketLearning
	default:
		return BucketNew
	}
}
