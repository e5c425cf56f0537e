package normalization

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/orion-telecom/cdr-pipeline/internal/schema"
)

func validatedVoice(origin string, doc map[string]interface{}) *schema.ValidatedRecord {
	return &schema.ValidatedRecord{
		RecordID:      "rec-1",
		IMSI:          doc["imsi"].(string),
		MSISDN:        "+33612345678",
		EventKind:     schema.EventVoice,
		ValidatedAt:   time.Now().UTC(),
		RawData:       doc,
		RawBytes:      []byte(`{"imsi":"anything"}`),
		OriginCountry: origin,
		SourceTopic:   "cdr.raw." + origin,
	}
}

func TestNormalizeDerivesNetworkCodes(t *testing.T) {
	doc := map[string]interface{}{"imsi": "208150123456789", "event_type": "voice"}
	out := Normalize(validatedVoice("FR", doc))
	require.NotNil(t, out.Network)
	require.Equal(t, "208", out.Network.MCC)
	require.Equal(t, "15", out.Network.MNC)
}

func TestNormalizeServiceClassFirstMatchWins(t *testing.T) {
	doc := map[string]interface{}{
		"imsi":         "208150123456789",
		"is_premium":   true,
		"is_roaming":   true,
		"is_emergency": true,
	}
	out := Normalize(validatedVoice("FR", doc))
	require.Equal(t, schema.ServicePremium, out.ServiceClass)
}

// TestNormalizeRoamingTruthTable covers the home-prefix comparison for
// every country in the table plus one outside it.
func TestNormalizeRoamingTruthTable(t *testing.T) {
	cases := []struct {
		name    string
		origin  string
		mcc     string
		roaming bool
	}{
		{"FR home network", "FR", "208", false},
		{"FR visiting", "FR", "999", true},
		{"TN home network", "TN", "605", false},
		{"TN visiting", "TN", "208", true},
		{"FN home network", "FN", "244", false},
		{"CH home network", "CH", "228", false},
		{"CH visiting", "CH", "208", true},
		{"unknown origin country never roaming", "ZZ", "999", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			imsi := tc.mcc + "15" + "0123456789"
			doc := map[string]interface{}{"imsi": imsi}
			out := Normalize(validatedVoice(tc.origin, doc))
			require.Equal(t, tc.roaming, out.Roaming.IsRoaming)
		})
	}
}

func TestNormalizeVoiceDetails(t *testing.T) {
	doc := map[string]interface{}{
		"imsi":          "208150123456789",
		"event_type":    "voice",
		"called_number": "+33698765432",
		"duration":      float64(42),
		"call_type":     "international",
	}
	v := validatedVoice("FR", doc)
	v.EventKind = schema.EventVoice
	out := Normalize(v)

	require.NotNil(t, out.Voice)
	require.Nil(t, out.Data)
	require.Nil(t, out.SMS)
	require.Equal(t, "+33698765432", out.Voice.CalledNumber)
	require.Equal(t, int64(42), out.Voice.DurationSec)
	require.Equal(t, schema.CallInternational, out.Voice.CallType)
}

func TestNormalizeDerivesLACAndCell(t *testing.T) {
	doc := map[string]interface{}{
		"imsi":    "208150123456789",
		"lac":     "4512",
		"cell_id": "99021",
	}
	out := Normalize(validatedVoice("FR", doc))
	require.NotNil(t, out.Network)
	require.Equal(t, "4512", out.Network.LAC)
	require.Equal(t, "99021", out.Network.Cell)
}

func TestNormalizeParsesEndTimestamp(t *testing.T) {
	doc := map[string]interface{}{
		"imsi":          "208150123456789",
		"end_timestamp": "2026-01-15T10:32:00Z",
	}
	out := Normalize(validatedVoice("FR", doc))
	require.NotNil(t, out.EndTime)
	require.Equal(t, "2026-01-15T10:32:00Z", out.EndTime.Format(time.RFC3339))
}

func TestNormalizeMissingEndTimestampLeavesEndTimeNil(t *testing.T) {
	doc := map[string]interface{}{"imsi": "208150123456789"}
	out := Normalize(validatedVoice("FR", doc))
	require.Nil(t, out.EndTime)
}

func TestNormalizeAccountingReadsAmountKey(t *testing.T) {
	doc := map[string]interface{}{
		"imsi":        "208150123456789",
		"charging_id": "chg-1",
		"amount":      float64(12.5),
		"currency":    "EUR",
	}
	out := Normalize(validatedVoice("FR", doc))
	require.NotNil(t, out.Accounting)
	require.Equal(t, 12.5, out.Accounting.RatedAmount)
}

func TestNormalizeAccountingFallsBackToRatedAmountKey(t *testing.T) {
	doc := map[string]interface{}{
		"imsi":         "208150123456789",
		"charging_id":  "chg-1",
		"rated_amount": float64(7.25),
	}
	out := Normalize(validatedVoice("FR", doc))
	require.NotNil(t, out.Accounting)
	require.Equal(t, 7.25, out.Accounting.RatedAmount)
}

func TestNormalizeDeviceIDReadsIMEI(t *testing.T) {
	doc := map[string]interface{}{
		"imsi": "208150123456789",
		"imei": "490154203237518",
	}
	out := Normalize(validatedVoice("FR", doc))
	require.Equal(t, "490154203237518", out.DeviceID)
}

func TestNormalizeContentHashStableForIdenticalBytes(t *testing.T) {
	doc := map[string]interface{}{"imsi": "208150123456789"}
	v1 := validatedVoice("FR", doc)
	v2 := validatedVoice("FR", doc)

	h1 := Normalize(v1).ContentHash
	h2 := Normalize(v2).ContentHash
	require.Equal(t, h1, h2)
}

func TestNormalizeContentHashDiffersForDifferentBytes(t *testing.T) {
	doc := map[string]interface{}{"imsi": "208150123456789"}
	v1 := validatedVoice("FR", doc)
	v2 := validatedVoice("FR", doc)
	v2.RawBytes = []byte(`{"imsi":"something else"}`)

	require.NotEqual(t, Normalize(v1).ContentHash, Normalize(v2).ContentHash)
}
