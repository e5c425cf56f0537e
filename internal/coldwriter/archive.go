// Ground: orion-storage-cold/src/writer.rs for the row shape and
// local-file-then-upload split.
package coldwriter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"github.com/orion-telecom/cdr-pipeline/internal/schema"
)

// archiveRow is the eleven-column archive schema from spec.md §4.7: id,
// country, timestamp (ms), duration, call-type, calling, called, cell,
// imsi, fraud-boolean, fraud-score.
type archiveRow struct {
	ID          string  `parquet:"id"`
	Country     string  `parquet:"country"`
	TimestampMs int64   `parquet:"timestamp_ms"`
	DurationSec int64   `parquet:"duration_sec"`
	CallType    string  `parquet:"call_type"`
	Calling     string  `parquet:"calling"`
	Called      string  `parquet:"called"`
	Cell        string  `parquet:"cell"`
	IMSI        string  `parquet:"imsi"`
	FraudFlag   bool    `parquet:"fraud_flag"`
	FraudScore  float64 `parquet:"fraud_score"`
}

// toArchiveRow flattens an EnrichedRecord into the eleven-column form.
// Voice-only fields are empty for data/SMS events.
func toArchiveRow(rec *schema.EnrichedRecord) archiveRow {
	row := archiveRow{
		ID:          rec.RecordID,
		Country:     rec.OriginCountry,
		TimestampMs: rec.StartTime.UnixMilli(),
		IMSI:        rec.IMSI,
	}

	if rec.Voice != nil {
		row.DurationSec = rec.Voice.DurationSec
		row.CallType = string(rec.Voice.CallType)
		row.Calling = rec.Voice.CallingNumber
		row.Called = rec.Voice.CalledNumber
	}
	if rec.Network != nil {
		row.Cell = rec.Network.CellLocation
	}
	if rec.Fraud != nil {
		row.FraudScore = rec.Fraud.Score
		row.FraudFlag = rec.Fraud.Band == schema.RiskHigh
	}

	return row
}

// WriteLocalFile writes records as a Snappy-compressed parquet file under
// dir, named cdr_{epoch_ms}.parquet, and returns the file path.
func WriteLocalFile(dir string, epochMs int64, records []*schema.EnrichedRecord) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create partition directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("cdr_%d.parquet", epochMs))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create archive file: %w", err)
	}
	defer f.Close()

	rows := make([]archiveRow, len(records))
	for i, rec := range records {
		rows[i] = toArchiveRow(rec)
	}

	writer := parquet.NewGenericWriter[archiveRow](f, parquet.Compression(&parquet.Snappy))
	if _, err := writer.Write(rows); err != nil {
		writer.Close()
		return "", fmt.Errorf("write archive rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close archive writer: %w", err)
	}

	return path, nil
}
