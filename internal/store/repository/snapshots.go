package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/fortuna/courtvision/internal/engine"
	"github.com/fortuna/courtvision/internal/store"
)

// ErrNoSnapshots is returned when a season has no stored snapshot yet
var ErrNoSnapshots = errors.New("no snapshots stored")

// SnapshotRepository handles trend snapshot history
type SnapshotRepository struct {
	db *store.Database
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(db *store.Database) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// NewRow converts a snapshot into its persisted form
func NewRow(snap engine.Snapshot) (*store.TrendSnapshot, error) {
	payload, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	unavailable := snap.Unavailable
	if unavailable == nil {
		unavailable = []string{}
	}
	return &store.TrendSnapshot{
		Season:      snap.Season,
		GeneratedAt: snap.GeneratedAt,
		RecordCount: len(snap.Trends),
		Unavailable: unavailable,
		Payload:     payload,
	}, nil
}

// Insert appends a snapshot and returns its id
func (r *SnapshotRepository) Insert(ctx context.Context, snap engine.Snapshot) (int64, error) {
	row, err := NewRow(snap)
	if err != nil {
		return 0, err
	}

	query := `
		INSERT INTO trend_snapshots (season, generated_at, record_count, unavailable, payload)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING snapshot_id
	`
	err = r.db.DB().QueryRowContext(ctx, query,
		row.Season, row.GeneratedAt, row.RecordCount, pq.Array(row.Unavailable), []byte(row.Payload),
	).Scan(&row.SnapshotID)
	if err != nil {
		return 0, fmt.Errorf("inserting snapshot: %w", err)
	}
	return row.SnapshotID, nil
}

// List returns the most recent snapshots of a season, newest first,
// without payloads
func (r *SnapshotRepository) List(ctx context.Context, season string, limit int) ([]*store.TrendSnapshot, error) {
	query := `
		SELECT snapshot_id, season, generated_at, record_count, unavailable, created_at
		FROM trend_snapshots
		WHERE season = $1
		ORDER BY generated_at DESC
		LIMIT $2
	`

	rows, err := r.db.DB().QueryContext(ctx, query, season, limit)
	if err != nil {
		return nil, fmt.Errorf("querying snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := []*store.TrendSnapshot{}
	for rows.Next() {
		s := &store.TrendSnapshot{}
		if err := rows.Scan(&s.SnapshotID, &s.Season, &s.GeneratedAt, &s.RecordCount, pq.Array(&s.Unavailable), &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}

// Latest returns the newest snapshot of a season with its payload
func (r *SnapshotRepository) Latest(ctx context.Context, season string) (*store.TrendSnapshot, error) {
	query := `
		SELECT snapshot_id, season, generated_at, record_count, unavailable, payload, created_at
		FROM trend_snapshots
		WHERE season = $1
		ORDER BY generated_at DESC
		LIMIT 1
	`

	s := &store.TrendSnapshot{}
	var payload []byte
	err := r.db.DB().QueryRowContext(ctx, query, season).Scan(
		&s.SnapshotID, &s.Season, &s.GeneratedAt, &s.RecordCount, pq.Array(&s.Unavailable), &payload, &s.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("season %s: %w", season, ErrNoSnapshots)
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest snapshot: %w", err)
	}
	s.Payload = payload
	return s, nil
}

// PlayerHistory returns one player's trend records across stored snapshots,
// newest first. The name is matched case-insensitively as a substring
func (r *SnapshotRepository) PlayerHistory(ctx context.Context, season, player string, limit int) ([]*store.PlayerTrendPoint, error) {
	query := `
		SELECT s.snapshot_id, s.generated_at, rec
		FROM trend_snapshots s,
			jsonb_array_elements(s.payload->'trends') AS rec
		WHERE s.season = $1 AND rec->>'player' ILIKE $2
		ORDER BY s.generated_at DESC
		LIMIT $3
	`

	rows, err := r.db.DB().QueryContext(ctx, query, season, "%"+player+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("querying player history: %w", err)
	}
	defer rows.Close()

	points := []*store.PlayerTrendPoint{}
	for rows.Next() {
		var (
			id  int64
			at  time.Time
			raw []byte
		)
		if err := rows.Scan(&id, &at, &raw); err != nil {
			return nil, fmt.Errorf("scanning player history: %w", err)
		}
		p, err := decodePoint(id, at, raw)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func decodePoint(id int64, at time.Time, raw []byte) (*store.PlayerTrendPoint, error) {
	p := &store.PlayerTrendPoint{}
	if err := json.Unmarshal(raw, p); err != nil {
		return nil, fmt.Errorf("decoding trend record: %w", err)
	}
	p.SnapshotID = id
	p.GeneratedAt = at
	return p, nil
}

// Prune deletes snapshots generated before cutoff
func (r *SnapshotRepository) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.DB().ExecContext(ctx, `DELETE FROM trend_snapshots WHERE generated_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning snapshots: %w", err)
	}
	return result.RowsAffected()
}
