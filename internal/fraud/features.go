package fraud

// Feature vector layout. Indices 0-7 are the signals the rule-based
// scorer and the default linear model both read; 8-15 are reserved for a
// richer model to use without any pipeline change (spec.md Non-goals).
const (
	IdxInternational = 0
	IdxRoaming       = 1
	IdxNightCall     = 2
	IdxCallFrequency = 3
	IdxDurationZ     = 4
	IdxCostZ         = 5
	IdxCellChanges   = 6
	IdxSignalLevel   = 7
)

var featureNames = [FeatureLength]string{
	IdxInternational: "international",
	IdxRoaming:       "roaming",
	IdxNightCall:     "night_call",
	IdxCallFrequency: "call_frequency",
	IdxDurationZ:     "duration_zscore",
	IdxCostZ:         "cost_zscore",
	IdxCellChanges:   "cell_changes",
	IdxSignalLevel:   "signal_level",
}

// Features is the named form of a feature vector, built by the
// enrichment stage from a UnifiedRecord and flattened to the fixed-length
// slice the Scorer contract requires.
type Features struct {
	International bool
	Roaming       bool
	NightCall     bool
	CallsPerHour  float64
	DurationZ     float64
	CostZ         float64
	CellChanges   float64
	SignalLevel   float64
}

// Vector flattens Features into the FeatureLength slice the Scorer
// contract requires. Booleans encode as 0/1; the reserved tail is zero.
func (f Features) Vector() []float64 {
	x := make([]float64, FeatureLength)
	x[IdxInternational] = boolToFloat(f.International)
	x[IdxRoaming] = boolToFloat(f.Roaming)
	x[IdxNightCall] = boolToFloat(f.NightCall)
	x[IdxCallFrequency] = f.CallsPerHour
	x[IdxDurationZ] = f.DurationZ
	x[IdxCostZ] = f.CostZ
	x[IdxCellChanges] = f.CellChanges
	x[IdxSignalLevel] = f.SignalLevel
	return x
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
