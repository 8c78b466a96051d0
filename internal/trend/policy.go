package trend

import (
	"fmt"

	"github.com/fortuna/courtvision/internal/defense"
	"github.com/fortuna/courtvision/internal/feeds"
	"github.com/fortuna/courtvision/internal/schedule"
)

// Metric selects the per-game value trends are computed on.
type Metric string

const (
	MetricPoints Metric = "pts"
	MetricPRA    Metric = "pra"
)

// ParseMetric accepts "pts" or "pra".
func ParseMetric(s string) (Metric, error) {
	switch m := Metric(s); m {
	case MetricPoints, MetricPRA:
		return m, nil
	}
	return "", fmt.Errorf("unknown metric %q", s)
}

// Value extracts the metric from a stat row.
func (m Metric) Value(row feeds.PlayerStatRow) float64 {
	if m == MetricPRA {
		return row.PRA()
	}
	return row.Points
}

// Matchup labels.
const (
	MatchupSoft    = "soft"
	MatchupTough   = "tough"
	MatchupAverage = "average"
	MatchupNoGame  = "No Game"
	MatchupUnknown = "unknown opponent"
)

// Status labels.
const (
	StatusSuperHot    = "super hot"
	StatusHeatingUp   = "heating up"
	StatusSteady      = "steady"
	StatusCoolingDown = "cooling down"
	StatusIceCold     = "ice cold"
)

// Policy holds the tunable thresholds of the aggregator.
type Policy struct {
	Metric   Metric
	MinGames int

	// Opponent ratings strictly above Soft are soft matchups, strictly
	// below Tough are tough ones.
	Soft  float64
	Tough float64

	SuperHot    float64
	HeatingUp   float64
	CoolingDown float64
	IceCold     float64
}

// DefaultPolicy is the canonical threshold table.
func DefaultPolicy() Policy {
	return Policy{
		Metric:      MetricPoints,
		MinGames:    3,
		Soft:        116.0,
		Tough:       112.0,
		SuperHot:    4.0,
		HeatingUp:   2.0,
		CoolingDown: -1.5,
		IceCold:     -3.0,
	}
}

// Status buckets a delta.
func (p Policy) Status(delta float64) string {
	switch {
	case delta >= p.SuperHot:
		return StatusSuperHot
	case delta >= p.HeatingUp:
		return StatusHeatingUp
	case delta <= p.IceCold:
		return StatusIceCold
	case delta <= p.CoolingDown:
		return StatusCoolingDown
	default:
		return StatusSteady
	}
}

// Rate labels an opponent rating.
func (p Policy) Rate(rating float64) string {
	switch {
	case rating > p.Soft:
		return MatchupSoft
	case rating < p.Tough:
		return MatchupTough
	default:
		return MatchupAverage
	}
}

// Opponent describes who a team plays today.
type Opponent struct {
	TeamID string  `json:"team_id"`
	Label  string  `json:"team_label"`
	Rating float64 `json:"defensive_rating"`
}

// Matchup classifies today's game for teamID. The opponent is nil when the
// team is idle or the opponent has no defense entry.
func (p Policy) Matchup(teamID string, sched schedule.Index, def defense.Table) (string, *Opponent) {
	oppID, ok := sched.Opponent(teamID)
	if !ok {
		return MatchupNoGame, nil
	}
	entry, ok := def.Lookup(oppID)
	if !ok {
		return MatchupUnknown, nil
	}
	return p.Rate(entry.Rating), &Opponent{TeamID: entry.TeamID, Label: entry.Label, Rating: entry.Rating}
}
