package coldwriter

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/orion-telecom/cdr-pipeline/internal/broker"
	"github.com/orion-telecom/cdr-pipeline/internal/schema"
	"github.com/orion-telecom/cdr-pipeline/internal/telemetry"
)

// Stage wires a broker client to a Batch, flushing each full partition
// through the local-file-then-upload path.
type Stage struct {
	bk       *broker.Client
	batch    *Batch
	uploader *Uploader
	stageDir string
	metrics  *telemetry.Metrics
	log      *zap.Logger
}

// New constructs a cold-writer Stage. stageDir is the local staging root
// under which partition subdirectories are created.
func New(bk *broker.Client, uploader *Uploader, stageDir string, sizeThreshold int, metrics *telemetry.Metrics, log *zap.Logger) *Stage {
	s := &Stage{bk: bk, uploader: uploader, stageDir: stageDir, metrics: metrics, log: log}
	s.batch = NewBatch(sizeThreshold, s.flushPartition, log)
	return s
}

// Run subscribes to cdr.enriched, launches the timed-flush ticker, and
// blocks serving messages until ctx is canceled. On return, all partial
// batches are drained so no buffered record is lost on shutdown
// (spec.md §4.7: explicit shutdown drain).
func (s *Stage) Run(ctx context.Context, durable string, flushInterval time.Duration) error {
	go s.batch.Run(ctx, flushInterval)

	err := s.bk.Consume(ctx, broker.ConsumeOpts{
		Subject:    broker.TopicEnriched,
		Durable:    durable,
		BindStream: broker.StreamCDR,
	}, s.handle)
	if err != nil {
		return err
	}

	// Consume only establishes the subscription before returning; block
	// here until the caller cancels ctx (typically on shutdown signal) so
	// the explicit drain below runs at the right time.
	<-ctx.Done()

	if drainErr := s.batch.FlushAll(context.Background()); drainErr != nil {
		s.log.Error("shutdown drain failed", zap.Error(drainErr))
	}
	return err
}

func (s *Stage) handle(ctx context.Context, subject string, data []byte) error {
	s.metrics.MessagesConsumed.WithLabelValues(subject).Inc()

	var rec schema.EnrichedRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return &broker.PoisonPillError{Msg: "malformed EnrichedRecord envelope: " + err.Error()}
	}

	return s.batch.Add(ctx, &rec)
}

func (s *Stage) flushPartition(ctx context.Context, key partitionKey, records []*schema.EnrichedRecord) error {
	start := time.Now()
	partitionDir := partitionDirFor(s.stageDir, key)

	path, err := WriteLocalFile(partitionDir, time.Now().UnixMilli(), records)
	if err != nil {
		s.metrics.ProcessingErrors.WithLabelValues("cold_write_local").Inc()
		return err
	}

	objectKey := fmt.Sprintf("%s/%s", partitionPrefix(key), filepath.Base(path))
	if err := s.uploader.Upload(ctx, path, objectKey); err != nil {
		s.metrics.ProcessingErrors.WithLabelValues("cold_write_upload").Inc()
		s.log.Warn("archive upload failed, local file retained",
			zap.String("path", path), zap.Error(err))
		return err
	}

	s.metrics.MessagesProduced.WithLabelValues("object_store").Add(float64(len(records)))
	s.metrics.ProcessingTime.WithLabelValues("cold_flush").Observe(time.Since(start).Seconds())
	return nil
}

// partitionPrefix renders the year=Y/month=M/day=D/country=CC partition
// path segment.
func partitionPrefix(key partitionKey) string {
	year, month, day := key.Date[0:4], key.Date[5:7], key.Date[8:10]
	return fmt.Sprintf("year=%s/month=%s/day=%s/country=%s", year, month, day, key.Country)
}

func partitionDirFor(stageDir string, key partitionKey) string {
	return filepath.Join(stageDir, partitionPrefix(key))
}
