package domain

import (
	"testing"
	"time"
)

func TestNextIntervalDoubles(t *testing.T) {
	interval := InitialIntervalDays
	want := []int{2, 4, 8}
	for i, w := range want {
		interval = NextInterval(interval, 90)
		if interval != w {
			t.Fatalf("review %d: interval = %d, want %d", i+1, interval, w)
		}
	}
}

func TestNextIntervalCapsAt30(t *testing.T) {
	interval := InitialIntervalDays
	for i := 0; i < 10; i++ {
		interval = NextInterval(interval, 100)
	}
	if interval != MaxIntervalDays {
		t.Fatalf("interval = %d, want cap %d", interval, MaxIntervalDays)
	}
	if got := NextInterval(MaxIntervalDays, 100); got != MaxIntervalDays {
		t.Fatalf("interval past cap = %d", got)
	}
}

func TestNextIntervalFailureResets(t *testing.T) {
	if got := NextInterval(16, 49); got != InitialIntervalDays {
		t.Fatalf("failing review should reset to %d, got %d", InitialIntervalDays, got)
	}
}

func TestNextIntervalPlateau(t *testing.T) {
	for _, score := range []int{50, 65, 79} {
		if got := NextInterval(8, score); got != 8 {
			t.Fatalf("score %d should leave interval unchanged, got %d", score, got)
		}
	}
}

func TestNextIntervalBoundaryScores(t *testing.T) {
	if got := NextInterval(4, ReviewPassScore); got != 8 {
		t.Fatalf("score at pass boundary should double, got %d", got)
	}
	if got := NextInterval(4, ReviewFailScore); got != 4 {
		t.Fatalf("score at fail boundary should plateau, got %d", got)
	}
}

func TestNextReviewAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	got := NextReviewAt(now, 2)
	if want := now.Add(48 * time.Hour); !got.Equal(want) {
		t.Fatalf("NextReviewAt = %v, want %v", got, want)
	}
}
