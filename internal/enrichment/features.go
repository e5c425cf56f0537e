package enrichment

import (
	"github.com/orion-telecom/cdr-pipeline/internal/fraud"
	"github.com/orion-telecom/cdr-pipeline/internal/schema"
)

// Baseline duration/cost statistics used to turn a single record's raw
// values into z-scores without any historical store. A production
// deployment would source these from a rolling per-subscriber profile;
// this fixed baseline matches the scope of the default scorer (spec.md
// Non-goals: no ML training pipeline).
const (
	baselineDurationMeanSec = 180.0
	baselineDurationStdDev  = 300.0
	baselineCostMean        = 5.0
	baselineCostStdDev      = 8.0
	baselineBytesMean       = 2_000_000.0
	baselineBytesStdDev     = 5_000_000.0
	defaultSignalLevel      = 0.8
)

// buildFeatures derives the fixed-length feature vector the fraud scorer
// consumes from a single UnifiedRecord.
func buildFeatures(u *schema.UnifiedRecord) fraud.Features {
	f := fraud.Features{
		Roaming:     u.Roaming.IsRoaming,
		NightCall:   isNightCall(u.StartTime.Hour()),
		SignalLevel: defaultSignalLevel,
	}

	f.International = crossesBorder(u)

	if u.Voice != nil {
		f.DurationZ = zscore(float64(u.Voice.DurationSec), baselineDurationMeanSec, baselineDurationStdDev)
	}

	switch {
	case u.Accounting != nil:
		f.CostZ = zscore(u.Accounting.RatedAmount, baselineCostMean, baselineCostStdDev)
	case u.Data != nil:
		totalBytes := float64(u.Data.BytesUploaded + u.Data.BytesDownloaded)
		f.CostZ = zscore(totalBytes, baselineBytesMean, baselineBytesStdDev)
	}

	if cellChanges, ok := u.RawData["cell_changes"]; ok {
		f.CellChanges = toFloat(cellChanges)
	}
	if freq, ok := u.RawData["call_frequency_per_hour"]; ok {
		f.CallsPerHour = toFloat(freq)
	}
	if signal, ok := u.RawData["signal_strength"]; ok {
		f.SignalLevel = toFloat(signal)
	}

	return f
}

// crossesBorder flags an event as international either by an explicit
// international voice call, or by roaming into a country other than the
// one of origin.
func crossesBorder(u *schema.UnifiedRecord) bool {
	if u.Voice != nil && u.Voice.CallType == schema.CallInternational {
		return true
	}
	return u.Roaming.IsRoaming && u.Roaming.VisitedCountry != "" && u.Roaming.VisitedCountry != u.OriginCountry
}

// isNightCall treats 22:00-05:59 local-to-the-record hour as night.
func isNightCall(hour int) bool {
	return hour >= 22 || hour < 6
}

func zscore(value, mean, stddev float64) float64 {
	if stddev == 0 {
		return 0
	}
	return (value - mean) / stddev
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}
