package hotwriter

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const createTableDDL = `
CREATE TABLE IF NOT EXISTS enriched_records (
	record_id          TEXT PRIMARY KEY,
	imsi               TEXT NOT NULL,
	msisdn             TEXT NOT NULL,
	event_kind         TEXT NOT NULL,
	service_class      TEXT NOT NULL,
	start_time_ms      BIGINT NOT NULL,
	origin_country     TEXT NOT NULL,
	source_topic       TEXT NOT NULL,
	content_hash       TEXT NOT NULL,
	fraud_score        DOUBLE PRECISION,
	risk_band          TEXT,
	fraud_reasons      TEXT[],
	network_name       TEXT,
	client_segment     TEXT,
	raw_data           JSONB NOT NULL,
	stored_at          TIMESTAMPTZ NOT NULL DEFAULT now()
)`

var indexDDL = []string{
	`CREATE INDEX IF NOT EXISTS idx_enriched_records_subscriber ON enriched_records (imsi)`,
	`CREATE INDEX IF NOT EXISTS idx_enriched_records_start_time ON enriched_records (start_time_ms)`,
	`CREATE INDEX IF NOT EXISTS idx_enriched_records_risk_band ON enriched_records (risk_band)`,
}

// Bootstrap ensures the table and its three secondary indexes exist. It is
// idempotent and safe to call on every process startup (spec.md §4.6).
func Bootstrap(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, createTableDDL); err != nil {
		return fmt.Errorf("create enriched_records table: %w", err)
	}
	for _, stmt := range indexDDL {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}
