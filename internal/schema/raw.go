// Package schema defines the envelope types that flow through the CDR
// pipeline: RawRecord -> ProcessedRecord -> ValidatedRecord -> UnifiedRecord
// -> EnrichedRecord. Each type embeds or extends the one before it; no type
// in this package drops a field present in an earlier stage.
package schema

import (
	"strings"
	"time"
)

// UnknownCountry is the sentinel origin-country value for a topic name
// whose trailing dot-segment cannot be interpreted as a country code.
const UnknownCountry = "UNKNOWN"

// RawRecord is the uninterpreted payload as read from a broker topic.
type RawRecord struct {
	Payload     []byte
	SourceTopic string
	Offset      uint64
	ArrivalTime time.Time
}

// OriginCountry extracts the country-of-origin tag from the source topic by
// a lexical rule: the last dot-segment, upper-cased. An unrecognized
// (empty) segment yields UnknownCountry. This is idempotent: calling it
// twice on the same topic returns the same value.
func (r RawRecord) OriginCountry() string {
	return CountryFromTopic(r.SourceTopic)
}

// CountryFromTopic implements the topic-name -> country-code lexical rule
// shared by ingestion and any caller that needs to classify a topic string
// without constructing a RawRecord.
func CountryFromTopic(topic string) string {
	idx := strings.LastIndex(topic, ".")
	if idx < 0 || idx == len(topic)-1 {
		return UnknownCountry
	}
	segment := topic[idx+1:]
	if segment == "" {
		return UnknownCountry
	}
	return strings.ToUpper(segment)
}
