package validation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orion-telecom/cdr-pipeline/internal/schema"
)

func processedFromDoc(doc map[string]interface{}) schema.ProcessedRecord {
	return schema.ProcessedRecord{
		Kind:          schema.PayloadJSON,
		Document:      doc,
		OriginCountry: "FR",
		SourceTopic:   "cdr.raw.FR",
	}
}

func TestValidateHappyVoiceCall(t *testing.T) {
	doc := map[string]interface{}{
		"event_type":     "voice",
		"imsi":           "208150123456789",
		"msisdn":         "+33612345678",
		"duration":       float64(120),
		"called_number":  "+33698765432",
	}

	valid, rejection := Validate(processedFromDoc(doc))
	require.Nil(t, rejection)
	require.NotNil(t, valid)
	require.Equal(t, schema.EventVoice, valid.EventKind)
	require.NotEmpty(t, valid.RecordID)
}

func TestValidateRejectsMissingIMSI(t *testing.T) {
	doc := map[string]interface{}{
		"msisdn":     "+33612345678",
		"event_type": "voice",
	}

	valid, rejection := Validate(processedFromDoc(doc))
	require.Nil(t, valid)
	require.NotNil(t, rejection)
	require.Equal(t, schema.ErrMissingField, rejection.Kind)
	require.Equal(t, "imsi", rejection.Field)
}

func TestValidateIMSIBoundary(t *testing.T) {
	// 13 digits: rejected.
	doc13 := map[string]interface{}{"imsi": "1234567890123", "msisdn": "+33612345678"}
	_, rej := Validate(processedFromDoc(doc13))
	require.NotNil(t, rej)
	require.Equal(t, schema.ErrInvalidIMSI, rej.Kind)

	// 14 digits: accepted.
	doc14 := map[string]interface{}{"imsi": "12345678901234", "msisdn": "+33612345678"}
	valid, rej := Validate(processedFromDoc(doc14))
	require.Nil(t, rej)
	require.NotNil(t, valid)

	// 15 digits: accepted.
	doc15 := map[string]interface{}{"imsi": "123456789012345", "msisdn": "+33612345678"}
	valid, rej = Validate(processedFromDoc(doc15))
	require.Nil(t, rej)
	require.NotNil(t, valid)
}

func TestValidateMSISDNBoundary(t *testing.T) {
	base := map[string]interface{}{"imsi": "12345678901234"}

	// No '+' and 10 digits: accepted.
	doc10 := cloneWith(base, "msisdn", "1234567890")
	_, rej := Validate(processedFromDoc(doc10))
	require.Nil(t, rej)

	// 9 digits: rejected.
	doc9 := cloneWith(base, "msisdn", "123456789")
	_, rej = Validate(processedFromDoc(doc9))
	require.NotNil(t, rej)
	require.Equal(t, schema.ErrInvalidMSISDN, rej.Kind)
}

func TestValidateUnknownEventKindDoesNotReject(t *testing.T) {
	doc := map[string]interface{}{
		"imsi":       "12345678901234",
		"msisdn":     "1234567890",
		"event_type": "something_weird",
	}
	valid, rej := Validate(processedFromDoc(doc))
	require.Nil(t, rej)
	require.Equal(t, schema.EventUnknown, valid.EventKind)
}

func TestValidateNonJSONPayloadRejectsAsJSONParseError(t *testing.T) {
	proc := schema.ProcessedRecord{Kind: schema.PayloadText, Text: "not json"}
	valid, rej := Validate(proc)
	require.Nil(t, valid)
	require.Equal(t, schema.ErrJSONParse, rej.Kind)
}

func cloneWith(m map[string]interface{}, key string, val interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out[key] = val
	return out
}
