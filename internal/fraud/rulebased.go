package fraud

import "math"

// RuleBased is the deterministic fallback scorer from spec.md §4.5: an
// additive score over six fixed rules, clamped to [0,1].
type RuleBased struct{}

// NewRuleBased constructs the fallback scorer.
func NewRuleBased() *RuleBased {
	return &RuleBased{}
}

// Name identifies this model for FraudInfo.Model.
func (r *RuleBased) Name() string {
	return "rule_based_v1"
}

// Score applies the fixed rule table and clamps the additive total to
// [0,1].
func (r *RuleBased) Score(x []float64) (float64, []string, error) {
	if len(x) != FeatureLength {
		return 0, nil, dimensionError(len(x))
	}

	international := x[IdxInternational] != 0
	roaming := x[IdxRoaming] != 0
	night := x[IdxNightCall] != 0

	var score float64
	var reasons []string

	if international && roaming {
		score += 0.30
		reasons = append(reasons, "intl_roaming")
	}
	if night && x[IdxCallFrequency] > 2 {
		score += 0.25
		reasons = append(reasons, "night_frequency")
	}
	if math.Abs(x[IdxDurationZ]) > 2 {
		score += 0.20
		reasons = append(reasons, "duration_anomaly")
	}
	if math.Abs(x[IdxCostZ]) > 2.5 {
		score += 0.25
		reasons = append(reasons, "cost_anomaly")
	}
	if x[IdxCellChanges] > 5 {
		score += 0.15
		reasons = append(reasons, "mobility")
	}
	if x[IdxSignalLevel] < 0.3 && international {
		score += 0.10
		reasons = append(reasons, "signal_intl")
	}

	return clamp01(score), reasons, nil
}

// ScoreBatch scores every vector independently; a per-item failure
// substitutes 0.5 so the output length always matches the input length.
func (r *RuleBased) ScoreBatch(xs [][]float64) ([]float64, [][]string) {
	scores := make([]float64, len(xs))
	reasons := make([][]string, len(xs))
	for i, x := range xs {
		s, rs, err := r.Score(x)
		if err != nil {
			scores[i] = 0.5
			continue
		}
		scores[i] = s
		reasons[i] = rs
	}
	return scores, reasons
}
