// Package ingestion implements the first pipeline stage (spec.md §4.1):
// decode raw broker payloads, tag them with their origin country, and
// forward them as ProcessedRecords. Ground: orion-ingestion/src/service/
// processor.rs for the decode-then-fallback contract, and
// apps/notification-service/internal/consumer/event_consumer.go for the
// Go consumer-loop idiom.
package ingestion

import (
	"context"
	"time"
	"unicode/utf8"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/orion-telecom/cdr-pipeline/internal/broker"
	"github.com/orion-telecom/cdr-pipeline/internal/schema"
	"github.com/orion-telecom/cdr-pipeline/internal/telemetry"
)

// Stage wires a broker client to the pure Decode transform.
type Stage struct {
	bk      *broker.Client
	metrics *telemetry.Metrics
	log     *zap.Logger
}

// New constructs an ingestion Stage.
func New(bk *broker.Client, metrics *telemetry.Metrics, log *zap.Logger) *Stage {
	return &Stage{bk: bk, metrics: metrics, log: log}
}

// Run subscribes to the raw topic wildcard and publishes decoded records
// to cdr.processed. It returns once the subscription is established.
func (s *Stage) Run(ctx context.Context, durable string) error {
	return s.bk.Consume(ctx, broker.ConsumeOpts{
		Subject:    broker.TopicRawWild,
		Durable:    durable,
		BindStream: broker.StreamCDR,
	}, s.handle)
}

func (s *Stage) handle(ctx context.Context, subject string, data []byte) error {
	start := time.Now()
	s.metrics.MessagesConsumed.WithLabelValues(subject).Inc()

	raw := schema.RawRecord{
		Payload:     data,
		SourceTopic: subject,
		ArrivalTime: time.Now().UTC(),
	}

	proc, err := Decode(raw)
	if err != nil {
		// Poison-pill policy: decode errors are counted and dropped, never
		// halting the stream (spec.md §4.1 failure semantics).
		s.metrics.DecodeErrors.Inc()
		s.log.Warn("dropping undecodable payload", zap.String("topic", subject), zap.Error(err))
		return nil
	}

	out, err := json.Marshal(proc)
	if err != nil {
		return err
	}

	if err := s.bk.PublishWithRetry(broker.TopicProcessed, out); err != nil {
		s.metrics.ProcessingErrors.WithLabelValues("publish").Inc()
		return err
	}

	s.metrics.MessagesProduced.WithLabelValues(broker.TopicProcessed).Inc()
	s.metrics.ProcessingTime.WithLabelValues("ingest").Observe(time.Since(start).Seconds())
	return nil
}

// Decode implements spec.md §4.1's decoding policy: attempt a structured
// (JSON) decode first; on failure, fall back to UTF-8 text; on UTF-8
// failure, return an error so the caller drops the message.
func Decode(raw schema.RawRecord) (schema.ProcessedRecord, error) {
	country := raw.OriginCountry()

	var doc map[string]interface{}
	if err := json.Unmarshal(raw.Payload, &doc); err == nil {
		return schema.ProcessedRecord{
			Kind:          schema.PayloadJSON,
			Document:      doc,
			Raw:           raw.Payload,
			OriginCountry: country,
			SourceTopic:   raw.SourceTopic,
			IngestionTime: raw.ArrivalTime,
		}, nil
	}

	if !utf8.Valid(raw.Payload) {
		return schema.ProcessedRecord{}, errNotUTF8
	}
	if len(raw.Payload) == 0 {
		return schema.ProcessedRecord{}, errEmpty
	}

	return schema.ProcessedRecord{
		Kind:          schema.PayloadText,
		Text:          string(raw.Payload),
		OriginCountry: country,
		SourceTopic:   raw.SourceTopic,
		IngestionTime: raw.ArrivalTime,
	}, nil
}

type decodeError string

func (e decodeError) Error() string { return string(e) }

const (
	errNotUTF8 decodeError = "payload is neither valid JSON nor valid UTF-8 text"
	errEmpty   decodeError = "payload is empty"
)
