package normalization

import (
	"time"

	"github.com/orion-telecom/cdr-pipeline/internal/schema"
)

// sourceSystem identifies this pipeline as the producer of UnifiedRecord
// documents, carried in every record's provenance block.
const sourceSystem = "orion-cdr-pipeline"

// Normalize maps a ValidatedRecord into the canonical UnifiedRecord,
// deriving network codes, service class, event-specific details, and
// roaming status along the way. It never fails: every ValidatedRecord
// that reached this stage already passed the validation checks, so there
// is nothing left to reject on.
func Normalize(v *schema.ValidatedRecord) *schema.UnifiedRecord {
	doc := v.RawData
	codes := deriveNetworkCodes(v.IMSI, doc)

	out := &schema.UnifiedRecord{
		RecordID:      v.RecordID,
		IMSI:          v.IMSI,
		MSISDN:        v.MSISDN,
		EventKind:     v.EventKind,
		ServiceClass:  deriveServiceClass(doc),
		StartTime:     v.ValidatedAt,
		OriginCountry: v.OriginCountry,
		Network:       codes,
		Roaming:       deriveRoaming(v.OriginCountry, codes, doc),
		NormalizedAt:  v.ValidatedAt,
		SourceSystem:  sourceSystem,
		SourceTopic:   v.SourceTopic,
		ContentHash:   contentHash(originalBytes(v)),
		RawData:       doc,
	}

	if sid, ok := doc["session_id"].(string); ok {
		out.SessionID = sid
	}
	out.DeviceID = firstString(doc, "imei", "device_id")

	if end := parseEndTimestamp(doc); end != nil {
		out.EndTime = end
	}

	switch v.EventKind {
	case schema.EventVoice:
		out.Voice = deriveVoice(doc)
	case schema.EventData:
		out.Data = deriveData(doc)
	case schema.EventSMS:
		out.SMS = deriveSMS(doc)
	}

	if cid, ok := doc["charging_id"].(string); ok {
		out.Accounting = &schema.Accounting{
			ChargingID:  cid,
			RatedAmount: firstFloat(doc, "amount", "rated_amount"),
			Currency:    firstString(doc, "currency"),
		}
	}

	return out
}

// parseEndTimestamp reads raw_data["end_timestamp"] as RFC3339, returning
// nil when the key is absent or malformed rather than failing the record.
func parseEndTimestamp(doc map[string]interface{}) *time.Time {
	raw, ok := doc["end_timestamp"].(string)
	if !ok || raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &t
}

// originalBytes returns the raw bytes validation retained, or nil when
// none survived; RawData is never re-serialized in their place (text-variant
// inputs never reach validation as documents, so the nil path is defensive).
func originalBytes(v *schema.ValidatedRecord) []byte {
	if len(v.RawBytes) > 0 {
		return v.RawBytes
	}
	return nil
}
