package fraud

import (
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func TestRuleBasedIntlRoaming(t *testing.T) {
	f := Features{International: true, Roaming: true}
	score, reasons, err := NewRuleBased().Score(f.Vector())
	require.NoError(t, err)
	require.Equal(t, 0.30, score)
	require.Contains(t, reasons, "intl_roaming")
}

func TestRuleBasedAccumulatesAndClamps(t *testing.T) {
	f := Features{
		International: true,
		Roaming:       true,
		NightCall:     true,
		CallsPerHour:  5,
		DurationZ:     3,
		CostZ:         3,
		CellChanges:   10,
		SignalLevel:   0.1,
	}
	score, reasons, err := NewRuleBased().Score(f.Vector())
	require.NoError(t, err)
	require.Equal(t, 1.0, score) // 0.30+0.25+0.20+0.25+0.15+0.10 = 1.25, clamped to 1
	require.Len(t, reasons, 6)
}

func TestRuleBasedNoSignalsZeroScore(t *testing.T) {
	score, reasons, err := NewRuleBased().Score(Features{}.Vector())
	require.NoError(t, err)
	require.Equal(t, 0.0, score)
	require.Empty(t, reasons)
}

func TestRuleBasedRejectsWrongDimension(t *testing.T) {
	_, _, err := NewRuleBased().Score([]float64{1, 2, 3})
	require.Error(t, err)
}

func TestRuleBasedScoreBatchPreservesLength(t *testing.T) {
	xs := [][]float64{
		Features{International: true, Roaming: true}.Vector(),
		{1, 2, 3}, // wrong dimension: substituted with 0.5
		Features{}.Vector(),
	}
	scores, reasons := NewRuleBased().ScoreBatch(xs)
	require.Len(t, scores, 3)
	require.Len(t, reasons, 3)
	require.Equal(t, 0.5, scores[1])
}

func TestLinearLoadAndScore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weights.json")

	weights := make([]float64, FeatureLength)
	weights[IdxInternational] = 2.0
	weights[IdxRoaming] = 2.0
	content, err := json.Marshal(weightsFile{Weights: weights, Bias: -5.0})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	model, err := LoadLinear(path)
	require.NoError(t, err)
	require.Equal(t, "linear_v1", model.Name())

	f := Features{International: true, Roaming: true}
	score, _, err := model.Score(f.Vector())
	require.NoError(t, err)
	require.InDelta(t, sigmoid(-1.0), score, 1e-9) // 2+2-5 = -1
}

func TestLinearRejectsDimensionMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weights.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"weights":[1,2,3],"bias":0}`), 0o644))

	_, err := LoadLinear(path)
	require.Error(t, err)
}

func TestNewFallsBackToRuleBasedOnMissingFile(t *testing.T) {
	scorer := New("/nonexistent/weights.json", testLogger())
	require.Equal(t, "rule_based_v1", scorer.Name())
}

func TestNewFallsBackToRuleBasedWhenNoPathConfigured(t *testing.T) {
	scorer := New("", testLogger())
	require.Equal(t, "rule_based_v1", scorer.Name())
}

func TestRuleBasedScoreBounds(t *testing.T) {
	scorer := NewRuleBased()
	allFeatures := []Features{
		{},
		{International: true, Roaming: true},
		{International: true, Roaming: true, NightCall: true, CallsPerHour: 5, DurationZ: 3, CostZ: 3, CellChanges: 10, SignalLevel: 0.1},
	}
	for _, f := range allFeatures {
		score, _, err := scorer.Score(f.Vector())
		require.NoError(t, err)
		require.GreaterOrEqual(t, score, 0.0)
		require.LessOrEqual(t, score, 1.0)
	}
}
