package analysis

import (
	"math"

	"github.com/ZanzyTHEbar/clearance-scorer/internal/penalty"
)

const (
	perfectThreshold   = 95.0
	highFloorThreshold = 90.0
	midFloorThreshold  = 80.0
	lowCapThreshold    = 70.0

	perfectScore = 100.0
	highFloor    = 85.0
	midFloor     = 75.0
	lowCap       = 60.0

	minScore = 0.0
	maxScore = 100.0
)

// Evaluate scores one operation from its completion degree and observed
// error categories. The threshold chain is ordered; the first matching
// branch wins. Completion is not validated here: out-of-range values flow
// through the arithmetic and are clamped at the end.
func Evaluate(completion float64, categories []penalty.ErrorCategory) ScoreResult {
	totalPenalty := penalty.Total(categories)
	raw := completion - float64(totalPenalty)
	severe := penalty.ContainsSevere(categories)

	score := raw
	rule := RuleNone
	switch {
	case completion >= perfectThreshold && totalPenalty == 0:
		score, rule = perfectScore, RulePerfect
	case completion >= highFloorThreshold && !severe:
		score, rule = math.Max(highFloor, raw), RuleHighFloor
	case completion >= midFloorThreshold && !severe:
		score, rule = math.Max(midFloor, raw), RuleMidFloor
	case completion < lowCapThreshold:
		score, rule = math.Min(raw, lowCap), RuleLowCap
	}

	return ScoreResult{
		Score: int(math.Round(clip(score, minScore, maxScore))),
		Breakdown: Breakdown{
			TotalPenalty: totalPenalty,
			RawScore:     raw,
			Severe:       severe,
			Rule:         rule,
		},
	}
}

// Score returns only the bounded integer score.
func Score(completion float64, categories []penalty.ErrorCategory) int {
	return Evaluate(completion, categories).Score
}

func clip(x, lo, hi float64) float64 {
	if math.IsNaN(x) {
		return lo
	}
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
