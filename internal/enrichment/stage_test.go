package enrichment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/orion-telecom/cdr-pipeline/internal/fraud"
	"github.com/orion-telecom/cdr-pipeline/internal/schema"
	"github.com/orion-telecom/cdr-pipeline/internal/telemetry"
)

func testStage(flags Flags) *Stage {
	return New(nil, telemetry.NewMetrics("enrichment_test"), zap.NewNop(), fraud.NewRuleBased(), flags)
}

func sampleUnified() *schema.UnifiedRecord {
	return &schema.UnifiedRecord{
		RecordID:      "rec-1",
		IMSI:          "208150123456789",
		MSISDN:        "+33612345678",
		EventKind:     schema.EventVoice,
		ServiceClass:  schema.ServiceStandard,
		StartTime:     time.Date(2026, 1, 1, 14, 0, 0, 0, time.UTC),
		OriginCountry: "FR",
		Network:       &schema.NetworkCodes{MCC: "208", MNC: "15"},
		Voice:         &schema.VoiceDetails{CallType: schema.CallMobile, DurationSec: 120},
		Roaming:       schema.RoamingInfo{IsRoaming: false},
		NormalizedAt:  time.Now().UTC(),
		RawData:       map[string]interface{}{},
	}
}

func TestEnrichProducesAllThreeSidecarsByDefault(t *testing.T) {
	stage := testStage(Flags{Fraud: true, Network: true, Subscriber: true})
	out := stage.Enrich(sampleUnified())

	require.NotNil(t, out.Fraud)
	require.NotNil(t, out.Network)
	require.NotNil(t, out.Client)
	require.Empty(t, out.EnrichmentErrors)
	require.GreaterOrEqual(t, out.Fraud.Score, 0.0)
	require.LessOrEqual(t, out.Fraud.Score, 1.0)
}

func TestEnrichRespectsDisabledFlags(t *testing.T) {
	stage := testStage(Flags{Fraud: false, Network: false, Subscriber: false})
	out := stage.Enrich(sampleUnified())

	require.Nil(t, out.Fraud)
	require.Nil(t, out.Network)
	require.Nil(t, out.Client)
	require.Empty(t, out.EnrichmentErrors)
}

func TestEnrichLongRoamingDataScenario(t *testing.T) {
	u := sampleUnified()
	u.EventKind = schema.EventData
	u.Voice = nil
	u.Data = &schema.DataDetails{BytesUploaded: 15_000_000_000, BytesDownloaded: 5_000_000_000}
	u.Roaming = schema.RoamingInfo{IsRoaming: true, VisitedCountry: "XX"}
	u.RawData = map[string]interface{}{
		"cell_changes": float64(12),
	}

	stage := testStage(Flags{Fraud: true})
	out := stage.Enrich(u)

	require.NotNil(t, out.Fraud)
	require.GreaterOrEqual(t, out.Fraud.Score, 0.7)
	require.Equal(t, schema.RiskHigh, out.Fraud.Band)
	require.Contains(t, out.Fraud.Reasons, "intl_roaming")
}

func TestBandForScoreThresholds(t *testing.T) {
	require.Equal(t, schema.RiskLow, schema.BandForScore(0.0))
	require.Equal(t, schema.RiskLow, schema.BandForScore(0.39))
	require.Equal(t, schema.RiskMedium, schema.BandForScore(0.4))
	require.Equal(t, schema.RiskMedium, schema.BandForScore(0.69))
	require.Equal(t, schema.RiskHigh, schema.BandForScore(0.7))
	require.Equal(t, schema.RiskHigh, schema.BandForScore(1.0))
}

func TestLookupNetworkIsDeterministic(t *testing.T) {
	codes := &schema.NetworkCodes{MCC: "208", MNC: "15"}
	a := LookupNetwork(codes)
	b := LookupNetwork(codes)
	require.Equal(t, a, b)
}

func TestLookupNetworkUnknownPairIsStable(t *testing.T) {
	codes := &schema.NetworkCodes{MCC: "999", MNC: "99"}
	info := LookupNetwork(codes)
	require.Equal(t, "unknown", info.NetworkName)
}

func TestLookupSubscriberParityRule(t *testing.T) {
	individual := LookupSubscriber("208150123456780") // trailing 0: even
	require.Equal(t, "individual", individual.Segment)

	business := LookupSubscriber("208150123456781") // trailing 1: odd
	require.Equal(t, "business", business.Segment)
}
