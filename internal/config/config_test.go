package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.MinGamesPlayed)
	assert.Equal(t, 5, cfg.LastNGames)
	assert.Equal(t, 116.0, cfg.SoftMatchupRating)
	assert.Equal(t, 112.0, cfg.ToughMatchupRating)
	assert.Equal(t, 114.0, cfg.NeutralDefRating)
	assert.Equal(t, time.Hour, cfg.TTLInjuries)
	assert.Equal(t, 24*time.Hour, cfg.TTLRoster)
	assert.Equal(t, 10*time.Minute, cfg.TTLTrends)
	assert.Equal(t, "pts", cfg.TrendMetric)
	assert.Contains(t, cfg.Watchlist, "LeBron James")
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("TREND_METRIC", "PRA")
	t.Setenv("TTL_SCHEDULE", "30m")
	t.Setenv("SOFT_MATCHUP_RATING", "117.5")
	t.Setenv("WATCHLIST", "Jayson Tatum, Luka Doncic")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "pra", cfg.TrendMetric)
	assert.Equal(t, 30*time.Minute, cfg.TTLSchedule)
	assert.Equal(t, 117.5, cfg.SoftMatchupRating)
	assert.Equal(t, []string{"Jayson Tatum", "Luka Doncic"}, cfg.Watchlist)
}

func TestLoadRejectsInvertedThresholds(t *testing.T) {
	t.Setenv("TOUGH_MATCHUP_RATING", "120")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TOUGH_MATCHUP_RATING")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			MinGamesPlayed:     3,
			LastNGames:         5,
			SoftMatchupRating:  116,
			ToughMatchupRating: 112,
			SuperHotDelta:      4,
			HeatingUpDelta:     2,
			CoolingDownDelta:   -1.5,
			IceColdDelta:       -3,
			TrendMetric:        "pts",
			ScheduleSource:     "nba",
			InjuryFetchMode:    "http",
			TTLInjuries:        time.Hour,
			TTLRoster:          time.Hour,
			TTLDefense:         time.Hour,
			TTLSchedule:        time.Hour,
			TTLTrends:          time.Hour,
			TTLGameLog:         time.Hour,
		}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"window below minimum", func(c *Config) { c.LastNGames = 2 }, "LAST_N_GAMES"},
		{"cold thresholds inverted", func(c *Config) { c.IceColdDelta = -1 }, "ICE_COLD_DELTA"},
		{"hot thresholds inverted", func(c *Config) { c.SuperHotDelta = 1 }, "HEATING_UP_DELTA"},
		{"unknown metric", func(c *Config) { c.TrendMetric = "reb" }, "TREND_METRIC"},
		{"unknown schedule source", func(c *Config) { c.ScheduleSource = "yahoo" }, "SCHEDULE_SOURCE"},
		{"zero ttl", func(c *Config) { c.TTLTrends = 0 }, "TTL_TRENDS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
