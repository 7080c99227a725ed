package domain

import (
	"testing"
	"time"
)

func daysAgo(now time.Time, d int) *time.Time {
	ts := now.Add(-time.Duration(d) * 24 * time.Hour)
	return &ts
}

func TestRecencyWeightTiers(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		days int
		want float64
	}{
		{0, 1.0},
		{7, 1.0},
		{8, 0.9},
		{14, 0.9},
		{15, 0.75},
		{30, 0.75},
		{31, 0.5},
		{60, 0.5},
		{61, 0.25},
		{365, 0.25},
	}
	for _, c := range cases {
		if got := RecencyWeight(daysAgo(now, c.days), now); got != c.want {
			t.Fatalf("RecencyWeight(%dd) = %v, want %v", c.days, got, c.want)
		}
	}
}

func TestRecencyWeightUnset(t *testing.T) {
	now := time.Now()
	if got := RecencyWeight(nil, now); got != 0.25 {
		t.Fatalf("RecencyWeight(nil) = %v", got)
	}
	var zero time.Time
	if got := RecencyWeight(&zero, now); got != 0.25 {
		t.Fatalf("RecencyWeight(zero) = %v", got)
	}
}

func TestEffectiveMasteryMonotonicInStaleness(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fresh := EffectiveMastery(90, daysAgo(now, 3), now)
	stale := EffectiveMastery(90, daysAgo(now, 10), now)
	if stale >= fresh {
		t.Fatalf("mastery at 10d (%v) should be below 3d (%v)", stale, fresh)
	}
}

func TestMasteryBucket(t *testing.T) {
	cases := []struct {
		effective float64
		want      string
	}{
		{95, BucketMastered},
		{80, BucketMastered},
		{79.9, BucketLearning},
		{40, BucketLearning},
		{39.9, BucketNew},
		{0, BucketNew},
	}
	for _, c := range cases {
		if got := MasteryBucket(c.effective); got != c.want {
			t.Fatalf("MasteryBucket(%v) = %s, want %s", c.effective, got, c.want)
		}
	}
}
