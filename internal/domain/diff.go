package domain

import "strings"

// NewlyCovered is the exact, order-insensitive set difference between a new
// attempt's covered points and the immediately preceding attempt's. Matching
// is by trimmed string equality; point text must be phrased consistently
// across attempts for the diff to be meaningful.
func NewlyCovered(current, previous []string) []string {
	prior := make(map[string]bool, len(previous))
	for _, p := range previous {
		prior[strings.TrimSpace(p)] = true
	}
	out := []string{}
	seen := make(map[string]bool, len(current))
	for _, c := range current {
		key := strings.TrimSpace(c)
		if key == "" || prior[key] || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}
