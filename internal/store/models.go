package store

import (
	"encoding/json"
	"time"
)

// TrendSnapshot is one persisted pipeline pass
type TrendSnapshot struct {
	SnapshotID  int64           `json:"snapshot_id" db:"snapshot_id"`
	Season      string          `json:"season" db:"season"`
	GeneratedAt time.Time       `json:"generated_at" db:"generated_at"`
	RecordCount int             `json:"record_count" db:"record_count"`
	Unavailable []string        `json:"unavailable" db:"unavailable"`
	Payload     json.RawMessage `json:"payload,omitempty" db:"payload"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// PlayerTrendPoint is one player's trend record as of one snapshot
type PlayerTrendPoint struct {
	SnapshotID  int64     `json:"snapshot_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Player      string    `json:"player"`
	Team        string    `json:"team"`
	SeasonValue float64   `json:"season_value"`
	RecentValue float64   `json:"recent_value"`
	Delta       float64   `json:"delta"`
	Status      string    `json:"status_label"`
	Matchup     string    `json:"matchup_label"`
}
