package normalization

import (
	"context"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/orion-telecom/cdr-pipeline/internal/broker"
	"github.com/orion-telecom/cdr-pipeline/internal/schema"
	"github.com/orion-telecom/cdr-pipeline/internal/telemetry"
)

// Stage wires a broker client to the pure Normalize transform.
type Stage struct {
	bk      *broker.Client
	metrics *telemetry.Metrics
	log     *zap.Logger
}

// New constructs a normalization Stage.
func New(bk *broker.Client, metrics *telemetry.Metrics, log *zap.Logger) *Stage {
	return &Stage{bk: bk, metrics: metrics, log: log}
}

// Run subscribes to cdr.validated and publishes to cdr.normalized.
func (s *Stage) Run(ctx context.Context, durable string) error {
	return s.bk.Consume(ctx, broker.ConsumeOpts{
		Subject:    broker.TopicValidated,
		Durable:    durable,
		BindStream: broker.StreamCDR,
	}, s.handle)
}

func (s *Stage) handle(ctx context.Context, subject string, data []byte) error {
	start := time.Now()
	s.metrics.MessagesConsumed.WithLabelValues(subject).Inc()

	var v schema.ValidatedRecord
	if err := json.Unmarshal(data, &v); err != nil {
		return &broker.PoisonPillError{Msg: "malformed ValidatedRecord envelope: " + err.Error()}
	}

	unified := Normalize(&v)

	out, err := json.Marshal(unified)
	if err != nil {
		return err
	}
	if err := s.bk.PublishWithRetry(broker.TopicNormalized, out); err != nil {
		s.metrics.ProcessingErrors.WithLabelValues("publish_normalized").Inc()
		return err
	}

	s.metrics.MessagesProduced.WithLabelValues(broker.TopicNormalized).Inc()
	s.metrics.ProcessingTime.WithLabelValues("normalize").Observe(time.Since(start).Seconds())
	return nil
}
