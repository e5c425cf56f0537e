package fraud

import (
	"fmt"
	"os"
	"sort"

	json "github.com/goccy/go-json"
)

// weightsFile is the on-disk shape of a linear model: a weight per
// feature dimension plus a bias, loaded once at startup (spec.md §4.5).
type weightsFile struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

// Linear implements σ(w·x + b). It is immutable after construction and
// safe for concurrent use.
type Linear struct {
	weights [FeatureLength]float64
	bias    float64
}

// LoadLinear reads and validates a weights file. It fails on a missing
// file, malformed JSON, or a weight count other than FeatureLength —
// callers fall back to the rule-based scorer on any error.
func LoadLinear(path string) (*Linear, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read weights file: %w", err)
	}

	var wf weightsFile
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("parse weights file: %w", err)
	}

	if len(wf.Weights) != FeatureLength {
		return nil, dimensionError(len(wf.Weights))
	}

	l := &Linear{bias: wf.Bias}
	copy(l.weights[:], wf.Weights)
	return l, nil
}

// Name identifies this model for FraudInfo.Model.
func (l *Linear) Name() string {
	return "linear_v1"
}

// Score computes σ(w·x + b) and attributes reason tags to the features
// whose weighted contribution pushed the score up the most.
func (l *Linear) Score(x []float64) (float64, []string, error) {
	if len(x) != FeatureLength {
		return 0, nil, dimensionError(len(x))
	}

	z := l.bias
	contributions := make([]float64, FeatureLength)
	for i, w := range l.weights {
		c := w * x[i]
		contributions[i] = c
		z += c
	}

	return sigmoid(z), topContributors(contributions), nil
}

// ScoreBatch scores every vector independently; a per-item failure
// substitutes 0.5 so the output length always matches the input length.
func (l *Linear) ScoreBatch(xs [][]float64) ([]float64, [][]string) {
	scores := make([]float64, len(xs))
	reasons := make([][]string, len(xs))
	for i, x := range xs {
		s, rs, err := l.Score(x)
		if err != nil {
			scores[i] = 0.5
			continue
		}
		scores[i] = s
		reasons[i] = rs
	}
	return scores, reasons
}

// topContributors returns the names of up to three features with the
// largest positive contribution to the logit, in descending order.
func topContributors(contributions []float64) []string {
	type ranked struct {
		idx int
		val float64
	}
	ranked0 := make([]ranked, 0, len(contributions))
	for i, c := range contributions {
		if c > 0 {
			ranked0 = append(ranked0, ranked{idx: i, val: c})
		}
	}
	sort.Slice(ranked0, func(i, j int) bool { return ranked0[i].val > ranked0[j].val })

	limit := 3
	if len(ranked0) < limit {
		limit = len(ranked0)
	}

	reasons := make([]string, 0, limit)
	for _, r := range ranked0[:limit] {
		if name := featureNames[r.idx]; name != "" {
			reasons = append(reasons, name)
		}
	}
	return reasons
}
