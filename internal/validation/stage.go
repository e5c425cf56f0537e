package validation

import (
	"context"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/orion-telecom/cdr-pipeline/internal/broker"
	"github.com/orion-telecom/cdr-pipeline/internal/schema"
	"github.com/orion-telecom/cdr-pipeline/internal/telemetry"
)

// Stage wires a broker client to the pure Validate transform.
type Stage struct {
	bk      *broker.Client
	metrics *telemetry.Metrics
	log     *zap.Logger
}

// New constructs a validation Stage.
func New(bk *broker.Client, metrics *telemetry.Metrics, log *zap.Logger) *Stage {
	return &Stage{bk: bk, metrics: metrics, log: log}
}

// Run subscribes to cdr.processed and publishes to cdr.validated or
// cdr.rejected.
func (s *Stage) Run(ctx context.Context, durable string) error {
	return s.bk.Consume(ctx, broker.ConsumeOpts{
		Subject:    broker.TopicProcessed,
		Durable:    durable,
		BindStream: broker.StreamCDR,
	}, s.handle)
}

func (s *Stage) handle(ctx context.Context, subject string, data []byte) error {
	start := time.Now()
	s.metrics.MessagesConsumed.WithLabelValues(subject).Inc()

	var proc schema.ProcessedRecord
	if err := json.Unmarshal(data, &proc); err != nil {
		// A malformed envelope from ingestion is itself a poison pill — it
		// never reaches our own JSON/IMSI/MSISDN checks.
		return &broker.PoisonPillError{Msg: "malformed ProcessedRecord envelope: " + err.Error()}
	}

	valid, rejection := Validate(proc)
	if rejection != nil {
		out, err := json.Marshal(rejection)
		if err != nil {
			return err
		}
		if err := s.bk.PublishWithRetry(broker.TopicRejected, out); err != nil {
			s.metrics.ProcessingErrors.WithLabelValues("publish_rejected").Inc()
			return err
		}
		s.metrics.ProcessingErrors.WithLabelValues(string(rejection.Kind)).Inc()
		s.metrics.MessagesProduced.WithLabelValues(broker.TopicRejected).Inc()
		return nil
	}

	out, err := json.Marshal(valid)
	if err != nil {
		return err
	}
	if err := s.bk.PublishWithRetry(broker.TopicValidated, out); err != nil {
		s.metrics.ProcessingErrors.WithLabelValues("publish_validated").Inc()
		return err
	}

	s.metrics.MessagesProduced.WithLabelValues(broker.TopicValidated).Inc()
	s.metrics.ProcessingTime.WithLabelValues("validate").Observe(time.Since(start).Seconds())
	return nil
}
