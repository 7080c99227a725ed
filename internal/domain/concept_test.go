package domain

import "testing"

func TestNormalizeConceptName(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Photosynthesis", "photosynthesis"},
		{"photosynthesis ", "photosynthesis"},
		{"  Krebs   Cycle ", "krebs cycle"},
		{"ATP", "atp"},
		{"", ""},
	}
	for _, c := range cases {
		if got := NormalizeConceptName(c.in); got != c.want {
			t.Fatalf("NormalizeConceptName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestAllAddressed(t *testing.T) {
	targets := []string{"Photosynthesis", "Krebs Cycle"}
	if AllAddressed(targets, []string{"photosynthesis"}) {
		t.Fatal("partial coverage should not count as all addressed")
	}
	if !AllAddressed(targets, []string{"photosynthesis ", "krebs  cycle"}) {
		t.Fatal("normalized matches should count as addressed")
	}
	if !AllAddressed(nil, nil) {
		t.Fatal("empty target set is vacuously addressed")
	}
}

func TestMergeAddressedMonotonic(t *testing.T) {
	existing := []string{"Photosynthesis"}
	merged := MergeAddressed(existing, []string{"photosynthesis", "Chlorophyll"})
	if len(merged) != 2 {
		t.Fatalf("merged = %v", merged)
	}
	if merged[0] != "Photosynthesis" {
		t.Fatalf("existing entries must keep their position and spelling: %v", merged)
	}
	// Re-merging the same input never shrinks the set.
	again := MergeAddressed(merged, []string{"photosynthesis"})
	if len(again) != 2 {
		t.Fatalf("re-merge shrank the set: %v", again)
	}
}
