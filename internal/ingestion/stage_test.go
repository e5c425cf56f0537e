package ingestion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/orion-telecom/cdr-pipeline/internal/schema"
)

func TestDecodeJSON(t *testing.T) {
	raw := schema.RawRecord{
		Payload:     []byte(`{"imsi":"208150123456789","event_type":"voice"}`),
		SourceTopic: "cdr.raw.FR",
		ArrivalTime: time.Now(),
	}

	proc, err := Decode(raw)
	require.NoError(t, err)
	require.Equal(t, schema.PayloadJSON, proc.Kind)
	require.Equal(t, "208150123456789", proc.Document["imsi"])
	require.Equal(t, "FR", proc.OriginCountry)
}

func TestDecodeTextFallback(t *testing.T) {
	raw := schema.RawRecord{
		Payload:     []byte("not json but valid utf-8"),
		SourceTopic: "cdr.raw.TN",
	}

	proc, err := Decode(raw)
	require.NoError(t, err)
	require.Equal(t, schema.PayloadText, proc.Kind)
	require.Equal(t, "not json but valid utf-8", proc.Text)
	require.Equal(t, "TN", proc.OriginCountry)
}

func TestDecodeDropsNonUTF8(t *testing.T) {
	raw := schema.RawRecord{
		Payload:     []byte{0xff, 0xfe, 0xfd},
		SourceTopic: "cdr.raw.FR",
	}

	_, err := Decode(raw)
	require.Error(t, err)
}

func TestDecodeDropsEmpty(t *testing.T) {
	raw := schema.RawRecord{
		Payload:     []byte{},
		SourceTopic: "cdr.raw.FR",
	}

	_, err := Decode(raw)
	require.Error(t, err)
}
