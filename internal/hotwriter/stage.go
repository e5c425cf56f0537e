package hotwriter

import (
	"context"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/orion-telecom/cdr-pipeline/internal/broker"
	"github.com/orion-telecom/cdr-pipeline/internal/schema"
	"github.com/orion-telecom/cdr-pipeline/internal/telemetry"
)

// Stage wires a broker client to the Writer. Per-record write failures
// are counted and logged; the consumer Naks so the message is retried
// on the next poll rather than acknowledged and lost (spec.md §4.6).
type Stage struct {
	bk      *broker.Client
	writer  *Writer
	metrics *telemetry.Metrics
	log     *zap.Logger
}

// New constructs a hot-writer Stage.
func New(bk *broker.Client, writer *Writer, metrics *telemetry.Metrics, log *zap.Logger) *Stage {
	return &Stage{bk: bk, writer: writer, metrics: metrics, log: log}
}

// Run subscribes to cdr.enriched and upserts every record into the row
// store.
func (s *Stage) Run(ctx context.Context, durable string) error {
	return s.bk.Consume(ctx, broker.ConsumeOpts{
		Subject:    broker.TopicEnriched,
		Durable:    durable,
		BindStream: broker.StreamCDR,
	}, s.handle)
}

func (s *Stage) handle(ctx context.Context, subject string, data []byte) error {
	start := time.Now()
	s.metrics.MessagesConsumed.WithLabelValues(subject).Inc()

	var rec schema.EnrichedRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return &broker.PoisonPillError{Msg: "malformed EnrichedRecord envelope: " + err.Error()}
	}

	if err := s.writer.Upsert(ctx, &rec); err != nil {
		s.metrics.ProcessingErrors.WithLabelValues("hot_write").Inc()
		s.log.Error("hot write failed, will retry", zap.String("record_id", rec.RecordID), zap.Error(err))
		return err
	}

	s.metrics.MessagesProduced.WithLabelValues("row_store").Inc()
	s.metrics.ProcessingTime.WithLabelValues("hot_write").Observe(time.Since(start).Seconds())
	return nil
}
