// Package hotwriter implements the row-store half of the dual-write stage
// (spec.md §4.6): idempotent upsert by record id, point lookup, and a
// country/time-range search. Ground: abc-service/internal/service/item_service.go
// for the pgxpool usage idiom.
package hotwriter

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orion-telecom/cdr-pipeline/internal/schema"
)

// Writer upserts EnrichedRecords into the row store.
type Writer struct {
	pool *pgxpool.Pool
}

// NewWriter constructs a Writer over an already-connected pool.
func NewWriter(pool *pgxpool.Pool) *Writer {
	return &Writer{pool: pool}
}

const upsertSQL = `
INSERT INTO enriched_records (
	record_id, imsi, msisdn, event_kind, service_class, start_time_ms,
	origin_country, source_topic, content_hash, fraud_score, risk_band,
	fraud_reasons, network_name, client_segment, raw_data, stored_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16
)
ON CONFLICT (record_id) DO UPDATE SET
	imsi           = EXCLUDED.imsi,
	msisdn         = EXCLUDED.msisdn,
	event_kind     = EXCLUDED.event_kind,
	service_class  = EXCLUDED.service_class,
	start_time_ms  = EXCLUDED.start_time_ms,
	origin_country = EXCLUDED.origin_country,
	source_topic   = EXCLUDED.source_topic,
	content_hash   = EXCLUDED.content_hash,
	fraud_score    = EXCLUDED.fraud_score,
	risk_band      = EXCLUDED.risk_band,
	fraud_reasons  = EXCLUDED.fraud_reasons,
	network_name   = EXCLUDED.network_name,
	client_segment = EXCLUDED.client_segment,
	raw_data       = EXCLUDED.raw_data,
	stored_at      = EXCLUDED.stored_at
`

// Upsert writes an EnrichedRecord keyed by record id. Re-inserting the
// same id overwrites every column — idempotence at the cost of
// last-writer-wins, per spec.md §4.6.
func (w *Writer) Upsert(ctx context.Context, rec *schema.EnrichedRecord) error {
	rawData, err := json.Marshal(rec.RawData)
	if err != nil {
		return fmt.Errorf("marshal raw_data: %w", err)
	}

	var fraudScore *float64
	var riskBand *string
	var fraudReasons []string
	if rec.Fraud != nil {
		fraudScore = &rec.Fraud.Score
		band := string(rec.Fraud.Band)
		riskBand = &band
		fraudReasons = rec.Fraud.Reasons
	}

	var networkName *string
	if rec.Network != nil {
		networkName = &rec.Network.NetworkName
	}

	var clientSegment *string
	if rec.Client != nil {
		clientSegment = &rec.Client.Segment
	}

	_, err = w.pool.Exec(ctx, upsertSQL,
		rec.RecordID, rec.IMSI, rec.MSISDN, string(rec.EventKind), string(rec.ServiceClass),
		rec.StartTime.UnixMilli(), rec.OriginCountry, rec.SourceTopic, rec.ContentHash,
		fraudScore, riskBand, fraudReasons, networkName, clientSegment, rawData, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert enriched_records: %w", err)
	}
	return nil
}

// GetByID is the point-lookup path, keyed by the record's primary key.
func (w *Writer) GetByID(ctx context.Context, recordID string) (*schema.EnrichedRecord, error) {
	row := w.pool.QueryRow(ctx, `SELECT record_id, imsi, msisdn, event_kind, service_class,
		start_time_ms, origin_country, source_topic, content_hash, raw_data
		FROM enriched_records WHERE record_id = $1`, recordID)

	rec, err := scanRecord(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get enriched_records by id: %w", err)
	}
	return rec, nil
}

// SearchByCountryAndTimeRange queries the time-range window in SQL, then
// filters by origin country in memory — the hot store has no composite
// (country, time-bucket) key, so a production design would push country
// into the index instead (spec.md §9 Open Questions).
func (w *Writer) SearchByCountryAndTimeRange(ctx context.Context, country string, from, to time.Time) ([]*schema.EnrichedRecord, error) {
	rows, err := w.pool.Query(ctx, `SELECT record_id, imsi, msisdn, event_kind, service_class,
		start_time_ms, origin_country, source_topic, content_hash, raw_data
		FROM enriched_records WHERE start_time_ms BETWEEN $1 AND $2`,
		from.UnixMilli(), to.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("search enriched_records: %w", err)
	}
	defer rows.Close()

	var out []*schema.EnrichedRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan enriched_records row: %w", err)
		}
		if rec.OriginCountry == country {
			out = append(out, rec)
		}
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*schema.EnrichedRecord, error) {
	var rec schema.EnrichedRecord
	var startMs int64
	var rawData []byte

	if err := row.Scan(&rec.RecordID, &rec.IMSI, &rec.MSISDN, &rec.EventKind, &rec.ServiceClass,
		&startMs, &rec.OriginCountry, &rec.SourceTopic, &rec.ContentHash, &rawData); err != nil {
		return nil, err
	}

	rec.StartTime = time.UnixMilli(startMs).UTC()
	if len(rawData) > 0 {
		if err := json.Unmarshal(rawData, &rec.RawData); err != nil {
			return nil, fmt.Errorf("unmarshal raw_data: %w", err)
		}
	}
	return &rec, nil
}
