package coldwriter

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/orion-telecom/cdr-pipeline/internal/schema"
)

func recordFor(country string, day int) *schema.EnrichedRecord {
	return &schema.EnrichedRecord{
		UnifiedRecord: schema.UnifiedRecord{
			RecordID:      "rec",
			OriginCountry: country,
			StartTime:     time.Date(2026, 1, day, 10, 0, 0, 0, time.UTC),
		},
	}
}

type flushCall struct {
	key     partitionKey
	records []*schema.EnrichedRecord
}

func TestBatchEmptyFlushIsNoOp(t *testing.T) {
	var calls []flushCall
	var mu sync.Mutex
	b := NewBatch(10, func(_ context.Context, key partitionKey, recs []*schema.EnrichedRecord) error {
		mu.Lock()
		calls = append(calls, flushCall{key, recs})
		mu.Unlock()
		return nil
	}, zap.NewNop())

	require.NoError(t, b.FlushAll(context.Background()))
	require.Empty(t, calls)
}

func TestBatchExactThresholdTriggersSingleFlush(t *testing.T) {
	var calls []flushCall
	var mu sync.Mutex
	b := NewBatch(3, func(_ context.Context, key partitionKey, recs []*schema.EnrichedRecord) error {
		mu.Lock()
		calls = append(calls, flushCall{key, recs})
		mu.Unlock()
		return nil
	}, zap.NewNop())

	ctx := context.Background()
	require.NoError(t, b.Add(ctx, recordFor("FR", 1)))
	require.NoError(t, b.Add(ctx, recordFor("FR", 1)))
	require.NoError(t, b.Add(ctx, recordFor("FR", 1)))

	require.Len(t, calls, 1)
	require.Len(t, calls[0].records, 3)
}

func TestBatchPartitionsByDateAndCountry(t *testing.T) {
	var calls []flushCall
	var mu sync.Mutex
	b := NewBatch(1000, func(_ context.Context, key partitionKey, recs []*schema.EnrichedRecord) error {
		mu.Lock()
		calls = append(calls, flushCall{key, recs})
		mu.Unlock()
		return nil
	}, zap.NewNop())

	ctx := context.Background()
	require.NoError(t, b.Add(ctx, recordFor("FR", 1)))
	require.NoError(t, b.Add(ctx, recordFor("TN", 1)))
	require.NoError(t, b.Add(ctx, recordFor("FR", 2)))

	require.NoError(t, b.FlushAll(ctx))
	require.Len(t, calls, 3)

	seen := map[partitionKey]int{}
	for _, c := range calls {
		seen[c.key] = len(c.records)
	}
	require.Equal(t, 1, seen[partitionKey{Date: "2026-01-01", Country: "FR"}])
	require.Equal(t, 1, seen[partitionKey{Date: "2026-01-01", Country: "TN"}])
	require.Equal(t, 1, seen[partitionKey{Date: "2026-01-02", Country: "FR"}])
}

func TestPartitionPrefixRendersYearMonthDayCountry(t *testing.T) {
	key := partitionKey{Date: "2026-03-07", Country: "CH"}
	require.Equal(t, "year=2026/month=03/day=07/country=CH", partitionPrefix(key))
}
