package domain

import "math"

// Score weighting between coverage and accuracy. The evaluation service
// reports the two ratios; the engine owns the composite score.
const (
	coverageWeight = 0.6
	accuracyWeight = 0.4
)

// ComposeScore folds coverage and accuracy (each in [0,1]) into the 0-100
// attempt score.
func ComposeScore(coverage, accuracy float64) int {
	score := int(math.Round((coverage*coverageWeight + accuracy*accuracyWeight) * 100))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
