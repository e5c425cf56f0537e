package schema

import "time"

// EventKind classifies the chargeable event a CDR describes.
type EventKind string

const (
	EventVoice   EventKind = "voice"
	EventData    EventKind = "data"
	EventSMS     EventKind = "sms"
	EventUnknown EventKind = "unknown"
)

// ValidatedRecord is a ProcessedRecord whose structured form has passed
// format checks: subscriber identity (IMSI), mobile station number
// (MSISDN), and event kind are present in the shapes validation requires.
type ValidatedRecord struct {
	RecordID    string    `json:"record_id"` // UUIDv4, minted only on successful validation
	IMSI        string    `json:"imsi"`
	MSISDN      string    `json:"msisdn"`
	EventKind   EventKind `json:"event_kind"`
	ValidatedAt time.Time `json:"validated_at"`

	// RawData is the entire pre-validation document, retained verbatim.
	RawData map[string]interface{} `json:"raw_data"`
	// RawBytes is the exact byte form of RawData as received — used by
	// normalization's content hash.
	RawBytes []byte `json:"raw_bytes,omitempty"`

	OriginCountry string    `json:"origin_country"`
	SourceTopic   string    `json:"source_topic"`
	IngestionTime time.Time `json:"ingestion_time"`
}

// ValidationErrorKind enumerates the categories of rejection.
type ValidationErrorKind string

const (
	ErrJSONParse      ValidationErrorKind = "json_parse_error"
	ErrMissingField   ValidationErrorKind = "missing_field"
	ErrInvalidIMSI    ValidationErrorKind = "invalid_imsi"
	ErrInvalidMSISDN  ValidationErrorKind = "invalid_msisdn"
)

// ValidationError is the dead-letter envelope routed to cdr.rejected.
type ValidationError struct {
	Kind            ValidationErrorKind `json:"kind"`
	Message         string              `json:"message"`
	Field           string              `json:"field"`
	OriginalPayload []byte              `json:"original_payload"`
	RejectedAt      time.Time           `json:"rejected_at"`
	OriginCountry   string              `json:"origin_country"`
	SourceTopic     string              `json:"source_topic"`
}
