package engine

import (
	"time"

	"github.com/fortuna/courtvision/internal/config"
	"github.com/fortuna/courtvision/internal/defense"
	"github.com/fortuna/courtvision/internal/trend"
)

// TTLs are the freshness windows per data source.
type TTLs struct {
	Roster   time.Duration
	Injuries time.Duration
	Schedule time.Duration
	Defense  time.Duration
	Trends   time.Duration
	GameLog  time.Duration
}

// Options tune the engine.
type Options struct {
	// Season overrides the season derived from the clock when non-empty.
	Season            string
	LastN             int
	Policy            trend.Policy
	NeutralRating     float64
	ScheduleUTCOffset int
	TTL               TTLs
	Watchlist         []string
	LeadersLimit      int
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{
		LastN:             5,
		Policy:            trend.DefaultPolicy(),
		NeutralRating:     defense.NeutralRating,
		ScheduleUTCOffset: -5,
		TTL: TTLs{
			Roster:   24 * time.Hour,
			Injuries: time.Hour,
			Schedule: 15 * time.Minute,
			Defense:  24 * time.Hour,
			Trends:   10 * time.Minute,
			GameLog:  30 * time.Minute,
		},
		Watchlist:    []string{"LeBron James", "Joel Embiid", "Giannis Antetokounmpo", "Stephen Curry"},
		LeadersLimit: 30,
	}
}

// OptionsFromConfig maps validated configuration onto engine options.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	metric, err := trend.ParseMetric(cfg.TrendMetric)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Season: cfg.Season,
		LastN:  cfg.LastNGames,
		Policy: trend.Policy{
			Metric:      metric,
			MinGames:    cfg.MinGamesPlayed,
			Soft:        cfg.SoftMatchupRating,
			Tough:       cfg.ToughMatchupRating,
			SuperHot:    cfg.SuperHotDelta,
			HeatingUp:   cfg.HeatingUpDelta,
			CoolingDown: cfg.CoolingDownDelta,
			IceCold:     cfg.IceColdDelta,
		},
		NeutralRating:     cfg.NeutralDefRating,
		ScheduleUTCOffset: cfg.ScheduleUTCOffsetHours,
		TTL: TTLs{
			Roster:   cfg.TTLRoster,
			Injuries: cfg.TTLInjuries,
			Schedule: cfg.TTLSchedule,
			Defense:  cfg.TTLDefense,
			Trends:   cfg.TTLTrends,
			GameLog:  cfg.TTLGameLog,
		},
		Watchlist:    cfg.Watchlist,
		LeadersLimit: cfg.LeadersLimit,
	}, nil
}
