// Package validation implements the second pipeline stage (spec.md §4.2):
// enforce field presence/format and mint the record id on success. Ground:
// orion-validation/src/service/validator.rs for the check ordering and
// rejection taxonomy.
package validation

import (
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/orion-telecom/cdr-pipeline/internal/schema"
)

var (
	imsiPattern   = regexp.MustCompile(`^\d{14,15}$`)
	msisdnPattern = regexp.MustCompile(`^\+?\d{10,15}$`)
)

// eventKindAliases maps the free-text event_type values a feed may send to
// the canonical EventKind. Anything unrecognized (or absent) maps to
// EventUnknown without rejecting the record (spec.md §4.2).
var eventKindAliases = map[string]schema.EventKind{
	"voice": schema.EventVoice,
	"data":  schema.EventData,
	"sms":   schema.EventSMS,
}

// Validate runs the three ordered checks (JSON → IMSI → MSISDN) against a
// ProcessedRecord and returns either a ValidatedRecord or a
// ValidationError — never both. The first failing check aborts with its
// specific error; the record id is minted only on success.
func Validate(proc schema.ProcessedRecord) (*schema.ValidatedRecord, *schema.ValidationError) {
	now := time.Now().UTC()

	if proc.Kind != schema.PayloadJSON || proc.Document == nil {
		return nil, &schema.ValidationError{
			Kind:            schema.ErrJSONParse,
			Message:         "payload could not be decoded as a structured JSON document",
			OriginalPayload: originalPayload(proc),
			RejectedAt:      now,
			OriginCountry:   proc.OriginCountry,
			SourceTopic:     proc.SourceTopic,
		}
	}

	doc := proc.Document

	imsi, imsiErr := checkIMSI(doc)
	if imsiErr != nil {
		imsiErr.OriginalPayload = originalPayload(proc)
		imsiErr.RejectedAt = now
		imsiErr.OriginCountry = proc.OriginCountry
		imsiErr.SourceTopic = proc.SourceTopic
		return nil, imsiErr
	}

	msisdn, msisdnErr := checkMSISDN(doc)
	if msisdnErr != nil {
		msisdnErr.OriginalPayload = originalPayload(proc)
		msisdnErr.RejectedAt = now
		msisdnErr.OriginCountry = proc.OriginCountry
		msisdnErr.SourceTopic = proc.SourceTopic
		return nil, msisdnErr
	}

	kind := classifyEventKind(doc)

	return &schema.ValidatedRecord{
		RecordID:      uuid.NewString(),
		IMSI:          imsi,
		MSISDN:        msisdn,
		EventKind:     kind,
		ValidatedAt:   now,
		RawData:       doc,
		RawBytes:      proc.Raw,
		OriginCountry: proc.OriginCountry,
		SourceTopic:   proc.SourceTopic,
		IngestionTime: proc.IngestionTime,
	}, nil
}

func checkIMSI(doc map[string]interface{}) (string, *schema.ValidationError) {
	v, ok := doc["imsi"].(string)
	if !ok || v == "" {
		return "", &schema.ValidationError{Kind: schema.ErrMissingField, Message: "imsi is required", Field: "imsi"}
	}
	if !imsiPattern.MatchString(v) {
		return "", &schema.ValidationError{Kind: schema.ErrInvalidIMSI, Message: "imsi must be 14-15 decimal digits", Field: "imsi"}
	}
	return v, nil
}

func checkMSISDN(doc map[string]interface{}) (string, *schema.ValidationError) {
	v, ok := doc["msisdn"].(string)
	if !ok || v == "" {
		return "", &schema.ValidationError{Kind: schema.ErrMissingField, Message: "msisdn is required", Field: "msisdn"}
	}
	if !msisdnPattern.MatchString(v) {
		return "", &schema.ValidationError{Kind: schema.ErrInvalidMSISDN, Message: "msisdn must be an optional '+' followed by 10-15 digits", Field: "msisdn"}
	}
	return v, nil
}

// classifyEventKind maps doc["event_type"] to a canonical EventKind,
// defaulting to EventUnknown for an absent or unrecognized value. This
// never causes a rejection.
func classifyEventKind(doc map[string]interface{}) schema.EventKind {
	v, _ := doc["event_type"].(string)
	if kind, ok := eventKindAliases[v]; ok {
		return kind
	}
	return schema.EventUnknown
}

// originalPayload prefers the raw document bytes; falls back to the text
// variant if ingestion fell back to text.
func originalPayload(proc schema.ProcessedRecord) []byte {
	if len(proc.Raw) > 0 {
		return proc.Raw
	}
	return []byte(proc.Text)
}
