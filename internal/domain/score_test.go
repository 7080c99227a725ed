package domain

import "testing"

func TestComposeScore(t *testing.T) {
	cases := []struct {
		coverage, accuracy float64
		want               int
	}{
		{1.0, 1.0, 100},
		{0, 0, 0},
		{0.5, 0.5, 50},
		{0.8, 0.6, 72},
		{0.9, 1.0, 94},
		{0.745, 0.5, 65}, // 0.447 + 0.2 = 0.647 -> 65
	}
	for _, c := range cases {
		if got := ComposeScore(c.coverage, c.accuracy); got != c.want {
			t.Fatalf("ComposeScore(%v, %v) = %d, want %d", c.coverage, c.accuracy, got, c.want)
		}
	}
}

func TestComposeScoreClamps(t *testing.T) {
	if got := ComposeScore(1.2, 1.2); got != 100 {
		t.Fatalf("over-range inputs should clamp to 100, got %d", got)
	}
	if got := ComposeScore(-0.5, -0.5); got != 0 {
		t.Fatalf("negative inputs should clamp to 0, got %d", got)
	}
}
