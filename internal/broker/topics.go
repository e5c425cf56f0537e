package broker

import (
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Topic names per spec.md §6. Ingestion's raw topic is parameterized on
// origin country; the rest are fixed per-stage handoffs.
const (
	TopicRawPrefix  = "cdr.raw."   // + {CC}, e.g. cdr.raw.FR
	TopicRawWild    = "cdr.raw.*"
	TopicProcessed  = "cdr.processed"
	TopicValidated  = "cdr.validated"
	TopicRejected   = "cdr.rejected"
	TopicNormalized = "cdr.normalized"
	TopicEnriched   = "cdr.enriched"
	TopicStored     = "cdr.stored"

	// StreamCDR is the single JetStream stream backing every cdr.* subject.
	// Keeping all stages on one stream mirrors the teacher's single
	// DOMAIN_EVENTS stream pattern (packages/go-core/natsclient/stream.go).
	StreamCDR = "CDR_PIPELINE"
)

// RawTopic returns the per-country raw ingestion topic, e.g. "cdr.raw.FR".
func RawTopic(countryCode string) string {
	return TopicRawPrefix + countryCode
}

// ProvisionStreams idempotently ensures the CDR_PIPELINE JetStream stream
// exists with the cdr.> subject filter. It is a no-op if the stream
// already exists. Ground: packages/go-core/natsclient/stream.go.
func (c *Client) ProvisionStreams() error {
	_, err := c.JS.StreamInfo(StreamCDR)
	if err == nil {
		c.Log.Info("NATS stream already exists", zap.String("stream", StreamCDR))
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("stream info: %w", err)
	}

	cfg := &nats.StreamConfig{
		Name:      StreamCDR,
		Subjects:  []string{"cdr.>"},
		Storage:   nats.FileStorage,
		Retention: nats.LimitsPolicy,
	}
	if _, err := c.JS.AddStream(cfg); err != nil {
		return fmt.Errorf("create stream: %w", err)
	}

	c.Log.Info("NATS stream provisioned", zap.String("stream", StreamCDR))
	return nil
}
