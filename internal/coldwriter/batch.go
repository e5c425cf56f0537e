// Package coldwriter implements the columnar-archive half of the
// dual-write stage (spec.md §4.7): an in-memory batch keyed by
// (start-date, origin-country) partition, flushed to a local Snappy
// parquet file and uploaded to an S3-compatible object store. Ground:
// other_examples/manifests/grafana-tempo/go.mod for the parquet-go and
// minio-go dependency pair; orion-storage-cold/src/service.rs for the
// swap-and-drain batching contract.
package coldwriter

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/orion-telecom/cdr-pipeline/internal/schema"
)

// partitionKey identifies one archive partition: start-date plus origin
// country.
type partitionKey struct {
	Date    string
	Country string
}

func partitionKeyFor(rec *schema.EnrichedRecord) partitionKey {
	return partitionKey{
		Date:    rec.StartTime.UTC().Format("2006-01-02"),
		Country: rec.OriginCountry,
	}
}

// FlushFunc is invoked with a full partition's worth of records, outside
// the batch's lock.
type FlushFunc func(ctx context.Context, key partitionKey, records []*schema.EnrichedRecord) error

// Batch accumulates EnrichedRecords per partition in memory, flushing a
// partition when it reaches sizeThreshold or when Run's ticker fires.
// The mutex is held only across the swap, never across the flush itself
// (spec.md §5 Shared resources).
type Batch struct {
	mu            sync.Mutex
	records       map[partitionKey][]*schema.EnrichedRecord
	sizeThreshold int
	flush         FlushFunc
	log           *zap.Logger
}

// NewBatch constructs a Batch with the given per-partition size
// threshold (default 1000 per spec.md §4.7).
func NewBatch(sizeThreshold int, flush FlushFunc, log *zap.Logger) *Batch {
	return &Batch{
		records:       make(map[partitionKey][]*schema.EnrichedRecord),
		sizeThreshold: sizeThreshold,
		flush:         flush,
		log:           log,
	}
}

// Add appends a record to its partition, flushing that partition
// immediately if it just reached the size threshold.
func (b *Batch) Add(ctx context.Context, rec *schema.EnrichedRecord) error {
	key := partitionKeyFor(rec)

	var toFlush []*schema.EnrichedRecord
	b.mu.Lock()
	b.records[key] = append(b.records[key], rec)
	if len(b.records[key]) >= b.sizeThreshold {
		toFlush = b.records[key]
		delete(b.records, key)
	}
	b.mu.Unlock()

	if toFlush == nil {
		return nil
	}
	return b.flush(ctx, key, toFlush)
}

// Run flushes every non-empty partition on each tick of interval until
// ctx is canceled. It is the time-threshold half of the size-or-time
// flush trigger (spec.md §4.7, default 30s).
func (b *Batch) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := b.FlushAll(ctx); err != nil {
				b.log.Error("timed batch flush failed", zap.Error(err))
			}
		}
	}
}

// FlushAll swaps out every partition and flushes each independently,
// returning the first error encountered. Used both by the timed tick and
// by an explicit shutdown drain.
func (b *Batch) FlushAll(ctx context.Context) error {
	b.mu.Lock()
	toFlush := b.records
	b.records = make(map[partitionKey][]*schema.EnrichedRecord)
	b.mu.Unlock()

	var firstErr error
	for key, recs := range toFlush {
		if len(recs) == 0 {
			continue
		}
		if err := b.flush(ctx, key, recs); err != nil {
			b.log.Error("partition flush failed", zap.String("partition_date", key.Date),
				zap.String("partition_country", key.Country), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
