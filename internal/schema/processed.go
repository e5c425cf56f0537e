package schema

import "time"

// PayloadKind tags which variant of ProcessedRecord (Document or Text) is
// populated.
type PayloadKind string

const (
	// PayloadJSON means Document holds a structured JSON document.
	PayloadJSON PayloadKind = "json"
	// PayloadText means Text holds a raw UTF-8 string (JSON decode
	// failed but the bytes are valid UTF-8).
	PayloadText PayloadKind = "text"
)

// ProcessedRecord is a RawRecord decoded into either a structured document
// or a UTF-8 text string. Non-UTF-8 payloads never reach this stage — they
// are dropped at ingestion.
type ProcessedRecord struct {
	Kind PayloadKind `json:"kind"`

	// Document holds the decoded JSON object when Kind == PayloadJSON.
	Document map[string]interface{} `json:"document,omitempty"`
	// Raw holds the exact bytes of the structured document as received,
	// prior to any re-serialization. Normalization hashes these bytes
	// directly rather than a re-encoded form (see DESIGN.md: content-hash
	// canonicalization decision).
	Raw []byte `json:"raw,omitempty"`
	// Text holds the decoded string when Kind == PayloadText.
	Text string `json:"text,omitempty"`

	OriginCountry string    `json:"origin_country"`
	SourceTopic   string    `json:"source_topic"`
	IngestionTime time.Time `json:"ingestion_time"`
}
