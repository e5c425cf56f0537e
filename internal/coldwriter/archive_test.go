package coldwriter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/orion-telecom/cdr-pipeline/internal/schema"
)

func TestToArchiveRowVoiceEvent(t *testing.T) {
	rec := &schema.EnrichedRecord{
		UnifiedRecord: schema.UnifiedRecord{
			RecordID:      "rec-1",
			IMSI:          "208150123456789",
			OriginCountry: "FR",
			StartTime:     time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC),
			Voice: &schema.VoiceDetails{
				CallingNumber: "+33612345678",
				CalledNumber:  "+33698765432",
				CallType:      schema.CallMobile,
				DurationSec:   120,
			},
			Network: &schema.NetworkCodes{Cell: "cell-42"},
		},
		Fraud: &schema.FraudInfo{Score: 0.85, Band: schema.RiskHigh},
	}

	row := toArchiveRow(rec)
	require.Equal(t, "rec-1", row.ID)
	require.Equal(t, "FR", row.Country)
	require.Equal(t, int64(120), row.DurationSec)
	require.Equal(t, "mobile", row.CallType)
	require.Equal(t, "+33698765432", row.Called)
	require.True(t, row.FraudFlag)
	require.InDelta(t, 0.85, row.FraudScore, 1e-9)
}

func TestToArchiveRowDataEventHasNoVoiceFields(t *testing.T) {
	rec := &schema.EnrichedRecord{
		UnifiedRecord: schema.UnifiedRecord{
			RecordID:      "rec-2",
			OriginCountry: "TN",
			StartTime:     time.Now().UTC(),
			Data:          &schema.DataDetails{BytesUploaded: 1000},
		},
	}

	row := toArchiveRow(rec)
	require.Empty(t, row.CallType)
	require.Empty(t, row.Calling)
	require.Empty(t, row.Called)
	require.Zero(t, row.DurationSec)
}

func TestWriteLocalFileCreatesFileUnderPartitionDir(t *testing.T) {
	dir := t.TempDir()
	rec := &schema.EnrichedRecord{
		UnifiedRecord: schema.UnifiedRecord{
			RecordID:      "rec-3",
			OriginCountry: "FR",
			StartTime:     time.Now().UTC(),
		},
	}

	path, err := WriteLocalFile(dir, 1234567890, []*schema.EnrichedRecord{rec})
	require.NoError(t, err)
	require.FileExists(t, path)
	require.Contains(t, path, "cdr_1234567890.parquet")
}
