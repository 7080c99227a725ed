package domain

import "time"

const (
	InitialIntervalDays = 1
	MaxIntervalDays     = 30

	// ReviewPassScore doubles the interval; below ReviewFailScore the
	// interval resets. Scores between the two leave it unchanged.
	ReviewPassScore = 80
	ReviewFailScore = 50
)

// NextInterval applies the adaptive spacing rule to a completed review.
func NextInterval(currentDays, score int) int {
	if currentDays < InitialIntervalDays {
		currentDays = InitialIntervalDays
	}
	switch {
	case score >= ReviewPassScore:
		doubled := currentDays * 2
		if doubled > MaxIntervalDays {
			return MaxIntervalDays
		}
		return doubled
	case score < ReviewFailScore:
		return InitialIntervalDays
	default:
		return currentDays
	}
}

// NextReviewAt computes the next checkpoint from an interval.
func NextReviewAt(now time.Time, intervalDays int) time.Time {
	return now.Add(time.Duration(intervalDays) * 24 * time.Hour)
}
