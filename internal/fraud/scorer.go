// Package fraud implements the pluggable fraud-scoring subsystem (spec.md
// §4.5): a fixed-length feature vector in, a score in [0,1] plus reason
// tags out, with an interchangeable linear or rule-based model behind the
// same contract. Ground: orion-ml-fraud-agent/src/model.rs for the
// Score/ScoreBatch contract and the substitute-on-failure batch rule.
package fraud

import (
	"fmt"
	"math"

	"go.uber.org/zap"
)

// FeatureLength is the fixed feature-vector dimension F the scorer
// contract requires (spec.md §4.5).
const FeatureLength = 16

// Scorer is the single contract both model implementations satisfy. It is
// lock-free and read-only once constructed, safe for concurrent callers.
type Scorer interface {
	// Score returns a single score in [0,1] and the reason tags that
	// contributed to it.
	Score(x []float64) (float64, []string, error)
	// ScoreBatch scores a sequence of feature vectors, always returning a
	// slice the same length as xs. A per-item failure substitutes 0.5
	// rather than shortening the result.
	ScoreBatch(xs [][]float64) ([]float64, [][]string)
	// Name identifies the active model, carried into FraudInfo.Model.
	Name() string
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// New attempts to load a linear model from weightsPath. On any failure
// (missing file, malformed weights, dimension mismatch) it logs a warning
// and falls back to the rule-based scorer, per spec.md §4.5.
func New(weightsPath string, log *zap.Logger) Scorer {
	if weightsPath == "" {
		log.Info("fraud scorer: no weights path configured, using rule-based model")
		return NewRuleBased()
	}

	linear, err := LoadLinear(weightsPath)
	if err != nil {
		log.Warn("fraud scorer: failed to load linear model weights, falling back to rule-based",
			zap.String("path", weightsPath), zap.Error(err))
		return NewRuleBased()
	}

	log.Info("fraud scorer: loaded linear model", zap.String("path", weightsPath))
	return linear
}

func dimensionError(got int) error {
	return fmt.Errorf("feature vector has length %d, want %d", got, FeatureLength)
}
