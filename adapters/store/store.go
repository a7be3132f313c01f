package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"

	// Result store drivers, selected by configuration
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"gocortex/domain/core"
	"gocortex/internal/errors"
	"gocortex/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS inference_results (
	id           TEXT PRIMARY KEY,
	stream_id    TEXT NOT NULL,
	sequence     INTEGER NOT NULL,
	recorded_at  TIMESTAMP NOT NULL,
	layer_input  TEXT,
	sdr          TEXT,
	anomaly_score REAL,
	predictions  TEXT
);
CREATE INDEX IF NOT EXISTS idx_inference_results_stream
	ON inference_results (stream_id, sequence);
`

// Repository persists finished inference results through sqlx. The driver
// is chosen by configuration: sqlite3 for embedded use, postgres for a
// shared store.
type Repository struct {
	db *sqlx.DB
}

// Open connects to the result store and ensures its schema exists
func Open(driver, dsn string) (*Repository, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, errors.StoreError("failed to connect to result store", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.StoreError("failed to create result schema", err)
	}
	return &Repository{db: db}, nil
}

// NewRepository wraps an existing connection
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Close releases the underlying connection
func (r *Repository) Close() error {
	return r.db.Close()
}

// resultRow is the database shape of one result; optional carrier fields
// map to nullable columns
type resultRow struct {
	ID           string          `db:"id"`
	StreamID     string          `db:"stream_id"`
	Sequence     int             `db:"sequence"`
	RecordedAt   string          `db:"recorded_at"`
	LayerInput   sql.NullString  `db:"layer_input"`
	SDR          sql.NullString  `db:"sdr"`
	AnomalyScore sql.NullFloat64 `db:"anomaly_score"`
	Predictions  sql.NullString  `db:"predictions"`
}

// Save implements ports.ResultRepository
func (r *Repository) Save(ctx context.Context, result *ports.Result) error {
	row, err := toRow(result)
	if err != nil {
		return err
	}

	query := r.db.Rebind(`
		INSERT INTO inference_results
			(id, stream_id, sequence, recorded_at, layer_input, sdr, anomaly_score, predictions)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err = r.db.ExecContext(ctx, query,
		row.ID, row.StreamID, row.Sequence, row.RecordedAt,
		row.LayerInput, row.SDR, row.AnomalyScore, row.Predictions)
	if err != nil {
		return errors.StoreError("failed to save inference result", err)
	}
	return nil
}

// ListByStream implements ports.ResultRepository
func (r *Repository) ListByStream(ctx context.Context, streamID core.StreamID, filters ports.ResultFilters) ([]ports.Result, error) {
	limit := filters.Limit
	if limit <= 0 {
		limit = 100
	}

	var rows []resultRow
	query := r.db.Rebind(`
		SELECT id, stream_id, sequence, recorded_at, layer_input, sdr, anomaly_score, predictions
		FROM inference_results
		WHERE stream_id = ?
		ORDER BY sequence ASC
		LIMIT ? OFFSET ?
	`)
	if err := r.db.SelectContext(ctx, &rows, query, streamID.String(), limit, filters.Offset); err != nil {
		return nil, errors.StoreError("failed to list inference results", err)
	}

	results := make([]ports.Result, 0, len(rows))
	for _, row := range rows {
		result, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		results = append(results, *result)
	}
	return results, nil
}

// Latest implements ports.ResultRepository
func (r *Repository) Latest(ctx context.Context, streamID core.StreamID) (*ports.Result, error) {
	var row resultRow
	query := r.db.Rebind(`
		SELECT id, stream_id, sequence, recorded_at, layer_input, sdr, anomaly_score, predictions
		FROM inference_results
		WHERE stream_id = ?
		ORDER BY sequence DESC
		LIMIT 1
	`)
	if err := r.db.GetContext(ctx, &row, query, streamID.String()); err != nil {
		if err == sql.ErrNoRows {
			return nil, core.ErrResultNotFound
		}
		return nil, errors.StoreError("failed to load latest inference result", err)
	}
	return fromRow(row)
}

// Scores implements ports.ResultRepository
func (r *Repository) Scores(ctx context.Context, streamID core.StreamID, limit int) ([]float64, error) {
	if limit <= 0 {
		limit = 1000
	}

	var scores []float64
	query := r.db.Rebind(`
		SELECT anomaly_score FROM (
			SELECT sequence, anomaly_score
			FROM inference_results
			WHERE stream_id = ? AND anomaly_score IS NOT NULL
			ORDER BY sequence DESC
			LIMIT ?
		) recent
		ORDER BY sequence ASC
	`)
	if err := r.db.SelectContext(ctx, &scores, query, streamID.String(), limit); err != nil {
		return nil, errors.StoreError("failed to load anomaly scores", err)
	}
	return scores, nil
}

func parseTimestamp(s string) (core.Timestamp, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return core.Timestamp{}, err
	}
	return core.NewTimestamp(t), nil
}

func toRow(result *ports.Result) (*resultRow, error) {
	row := &resultRow{
		ID:         result.ID.String(),
		StreamID:   result.StreamID.String(),
		Sequence:   result.Sequence,
		RecordedAt: result.RecordedAt.String(),
	}
	if result.LayerInput != nil {
		row.LayerInput = sql.NullString{String: *result.LayerInput, Valid: true}
	}
	if result.SDR != nil {
		encoded, err := json.Marshal(result.SDR)
		if err != nil {
			return nil, errors.StoreError("failed to encode SDR", err)
		}
		row.SDR = sql.NullString{String: string(encoded), Valid: true}
	}
	if result.AnomalyScore != nil {
		row.AnomalyScore = sql.NullFloat64{Float64: *result.AnomalyScore, Valid: true}
	}
	if result.Predictions != nil {
		encoded, err := json.Marshal(result.Predictions)
		if err != nil {
			return nil, errors.StoreError("failed to encode predictions", err)
		}
		row.Predictions = sql.NullString{String: string(encoded), Valid: true}
	}
	return row, nil
}

func fromRow(row resultRow) (*ports.Result, error) {
	result := &ports.Result{
		ID:       core.PassID(row.ID),
		StreamID: core.StreamID(row.StreamID),
		Sequence: row.Sequence,
	}
	if at, err := parseTimestamp(row.RecordedAt); err == nil {
		result.RecordedAt = at
	}
	if row.LayerInput.Valid {
		input := row.LayerInput.String
		result.LayerInput = &input
	}
	if row.SDR.Valid {
		if err := json.Unmarshal([]byte(row.SDR.String), &result.SDR); err != nil {
			return nil, errors.StoreError("failed to decode SDR", err)
		}
	}
	if row.AnomalyScore.Valid {
		score := row.AnomalyScore.Float64
		result.AnomalyScore = &score
	}
	if row.Predictions.Valid {
		if err := json.Unmarshal([]byte(row.Predictions.String), &result.Predictions); err != nil {
			return nil, errors.StoreError("failed to decode predictions", err)
		}
	}
	return result, nil
}
