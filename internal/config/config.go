package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every tunable of the service. Values come from defaults,
// an optional .env file and the environment, in increasing precedence.
type Config struct {
	Env       string `mapstructure:"ENV"`
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	RESTPort string `mapstructure:"REST_PORT"`
	WSPort   string `mapstructure:"WS_PORT"`

	RedisURL    string `mapstructure:"REDIS_URL"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// Upstream providers
	NBAStatsBase            string        `mapstructure:"NBA_STATS_BASE"`
	ESPNAPIBase             string        `mapstructure:"ESPN_API_BASE"`
	InjuryURL               string        `mapstructure:"INJURY_URL"`
	InjuryFetchMode         string        `mapstructure:"INJURY_FETCH_MODE"`
	ScheduleSource          string        `mapstructure:"SCHEDULE_SOURCE"`
	ScheduleUTCOffsetHours  int           `mapstructure:"SCHEDULE_UTC_OFFSET_HOURS"`
	ExternalAPITimeout      time.Duration `mapstructure:"EXTERNAL_API_TIMEOUT"`
	CircuitBreakerThreshold int           `mapstructure:"CIRCUIT_BREAKER_THRESHOLD"`

	// Trend policy
	Season             string  `mapstructure:"SEASON"`
	LastNGames         int     `mapstructure:"LAST_N_GAMES"`
	MinGamesPlayed     int     `mapstructure:"MIN_GAMES_PLAYED"`
	TrendMetric        string  `mapstructure:"TREND_METRIC"`
	SoftMatchupRating  float64 `mapstructure:"SOFT_MATCHUP_RATING"`
	ToughMatchupRating float64 `mapstructure:"TOUGH_MATCHUP_RATING"`
	NeutralDefRating   float64 `mapstructure:"NEUTRAL_DEF_RATING"`
	SuperHotDelta      float64 `mapstructure:"SUPER_HOT_DELTA"`
	HeatingUpDelta     float64 `mapstructure:"HEATING_UP_DELTA"`
	CoolingDownDelta   float64 `mapstructure:"COOLING_DOWN_DELTA"`
	IceColdDelta       float64 `mapstructure:"ICE_COLD_DELTA"`
	LeadersLimit       int     `mapstructure:"LEADERS_LIMIT"`

	// Freshness cache
	TTLInjuries   time.Duration `mapstructure:"TTL_INJURIES"`
	TTLRoster     time.Duration `mapstructure:"TTL_ROSTER"`
	TTLDefense    time.Duration `mapstructure:"TTL_DEFENSE"`
	TTLSchedule   time.Duration `mapstructure:"TTL_SCHEDULE"`
	TTLTrends     time.Duration `mapstructure:"TTL_TRENDS"`
	TTLGameLog    time.Duration `mapstructure:"TTL_GAME_LOG"`
	CacheCapacity int           `mapstructure:"CACHE_CAPACITY"`

	// Presentation and assistant
	Watchlist       []string `mapstructure:"WATCHLIST"`
	AnthropicAPIKey string   `mapstructure:"ANTHROPIC_API_KEY"`
	AssistantModel  string   `mapstructure:"ASSISTANT_MODEL"`
	EnableScheduler bool     `mapstructure:"ENABLE_SCHEDULER"`
}

var defaults = map[string]interface{}{
	"ENV":        "development",
	"LOG_LEVEL":  "info",
	"LOG_FORMAT": "json",

	"REST_PORT": "8080",
	"WS_PORT":   "8081",

	"REDIS_URL":    "",
	"DATABASE_URL": "",

	"NBA_STATS_BASE":            "https://stats.nba.com/stats",
	"ESPN_API_BASE":             "https://site.api.espn.com/apis/site/v2/sports",
	"INJURY_URL":                "https://www.cbssports.com/nba/injuries/",
	"INJURY_FETCH_MODE":         "http",
	"SCHEDULE_SOURCE":           "nba",
	"SCHEDULE_UTC_OFFSET_HOURS": -5,
	"EXTERNAL_API_TIMEOUT":      "15s",
	"CIRCUIT_BREAKER_THRESHOLD": 5,

	"SEASON":               "",
	"LAST_N_GAMES":         5,
	"MIN_GAMES_PLAYED":     3,
	"TREND_METRIC":         "pts",
	"SOFT_MATCHUP_RATING":  116.0,
	"TOUGH_MATCHUP_RATING": 112.0,
	"NEUTRAL_DEF_RATING":   114.0,
	"SUPER_HOT_DELTA":      4.0,
	"HEATING_UP_DELTA":     2.0,
	"COOLING_DOWN_DELTA":   -1.5,
	"ICE_COLD_DELTA":       -3.0,
	"LEADERS_LIMIT":        30,

	"TTL_INJURIES":   "1h",
	"TTL_ROSTER":     "24h",
	"TTL_DEFENSE":    "24h",
	"TTL_SCHEDULE":   "15m",
	"TTL_TRENDS":     "10m",
	"TTL_GAME_LOG":   "30m",
	"CACHE_CAPACITY": 512,

	"WATCHLIST":         []string{"LeBron James", "Joel Embiid", "Giannis Antetokounmpo", "Stephen Curry"},
	"ANTHROPIC_API_KEY": "",
	"ASSISTANT_MODEL":   "claude-sonnet-4-5",
	"ENABLE_SCHEDULER":  true,
}

// Load reads configuration from the environment and an optional .env file
// in the working directory or its parent.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.Watchlist = splitList(cfg.Watchlist)
	cfg.TrendMetric = strings.ToLower(strings.TrimSpace(cfg.TrendMetric))
	cfg.ScheduleSource = strings.ToLower(strings.TrimSpace(cfg.ScheduleSource))
	cfg.InjuryFetchMode = strings.ToLower(strings.TrimSpace(cfg.InjuryFetchMode))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects threshold tables that would make classification ambiguous.
func (c *Config) Validate() error {
	var problems []string

	if c.MinGamesPlayed < 1 {
		problems = append(problems, "MIN_GAMES_PLAYED must be at least 1")
	}
	if c.LastNGames < c.MinGamesPlayed {
		problems = append(problems, "LAST_N_GAMES must be >= MIN_GAMES_PLAYED")
	}
	if c.ToughMatchupRating >= c.SoftMatchupRating {
		problems = append(problems, "TOUGH_MATCHUP_RATING must be below SOFT_MATCHUP_RATING")
	}
	if c.HeatingUpDelta <= 0 || c.SuperHotDelta <= c.HeatingUpDelta {
		problems = append(problems, "require 0 < HEATING_UP_DELTA < SUPER_HOT_DELTA")
	}
	if c.CoolingDownDelta >= 0 || c.IceColdDelta >= c.CoolingDownDelta {
		problems = append(problems, "require ICE_COLD_DELTA < COOLING_DOWN_DELTA < 0")
	}
	switch c.TrendMetric {
	case "pts", "pra":
	default:
		problems = append(problems, fmt.Sprintf("unknown TREND_METRIC %q", c.TrendMetric))
	}
	switch c.ScheduleSource {
	case "nba", "espn":
	default:
		problems = append(problems, fmt.Sprintf("unknown SCHEDULE_SOURCE %q", c.ScheduleSource))
	}
	switch c.InjuryFetchMode {
	case "http", "browser":
	default:
		problems = append(problems, fmt.Sprintf("unknown INJURY_FETCH_MODE %q", c.InjuryFetchMode))
	}
	for name, ttl := range map[string]time.Duration{
		"TTL_INJURIES": c.TTLInjuries,
		"TTL_ROSTER":   c.TTLRoster,
		"TTL_DEFENSE":  c.TTLDefense,
		"TTL_SCHEDULE": c.TTLSchedule,
		"TTL_TRENDS":   c.TTLTrends,
		"TTL_GAME_LOG": c.TTLGameLog,
	} {
		if ttl <= 0 {
			problems = append(problems, name+" must be positive")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// IsDevelopment reports whether the service runs outside production.
func (c *Config) IsDevelopment() bool {
	return c.Env != "production"
}

// splitList accepts both proper lists and a single comma-separated entry.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
