// Package feeds defines the rows the engine pulls from upstream providers and
// the interfaces those providers implement.
package feeds

import (
	"context"
	"time"
)

// PlayerTeamPair is one roster row.
type PlayerTeamPair struct {
	PlayerID string `json:"player_id"`
	FullName string `json:"full_name"`
	TeamCode string `json:"team_code"`
}

// TableRow is one row of a scraped HTML table keyed by column header.
type TableRow map[string]string

// GamePair is one scheduled game. IDs are canonical team IDs.
type GamePair struct {
	GameID     string `json:"game_id"`
	HomeTeamID string `json:"home_team_id"`
	AwayTeamID string `json:"away_team_id"`
}

// TeamRatingRow is one team's defensive efficiency.
type TeamRatingRow struct {
	TeamID          string  `json:"team_id"`
	TeamName        string  `json:"team_name"`
	DefensiveRating float64 `json:"defensive_rating"`
}

// PlayerStatRow is a per-game stat line aggregated over a window.
type PlayerStatRow struct {
	PlayerID         string  `json:"player_id"`
	PlayerName       string  `json:"player_name"`
	TeamID           string  `json:"team_id"`
	TeamAbbreviation string  `json:"team_abbreviation"`
	GamesPlayed      int     `json:"games_played"`
	Points           float64 `json:"points"`
	Rebounds         float64 `json:"rebounds"`
	Assists          float64 `json:"assists"`
}

// PRA is points + rebounds + assists.
func (r PlayerStatRow) PRA() float64 {
	return r.Points + r.Rebounds + r.Assists
}

// GameLogRow is a single game from a player's log.
type GameLogRow struct {
	GameID   string    `json:"game_id"`
	GameDate time.Time `json:"game_date"`
	Matchup  string    `json:"matchup"`
	Points   float64   `json:"points"`
	Rebounds float64   `json:"rebounds"`
	Assists  float64   `json:"assists"`
}

// PRA is points + rebounds + assists.
func (g GameLogRow) PRA() float64 {
	return g.Points + g.Rebounds + g.Assists
}

// WindowKind tags a stat window.
type WindowKind string

const (
	WindowSeason WindowKind = "season"
	WindowLastN  WindowKind = "last_n"
)

// Window is a span of games over which statistics are aggregated.
type Window struct {
	Kind  WindowKind `json:"kind"`
	Games int        `json:"games,omitempty"`
}

// SeasonWindow covers the whole season to date.
func SeasonWindow() Window {
	return Window{Kind: WindowSeason}
}

// LastN covers the player's last n games.
func LastN(n int) Window {
	return Window{Kind: WindowLastN, Games: n}
}

// RosterFeed returns every rostered player, not only active ones.
type RosterFeed interface {
	FetchRoster(ctx context.Context) ([]PlayerTeamPair, error)
}

// InjuryFeed returns the rows of every table on the injury page.
type InjuryFeed interface {
	FetchInjuryTables(ctx context.Context) ([]TableRow, error)
}

// ScheduleFeed returns the games scheduled on a calendar date.
type ScheduleFeed interface {
	FetchSchedule(ctx context.Context, date time.Time) ([]GamePair, error)
}

// DefenseFeed returns per-team defensive ratings for a season.
type DefenseFeed interface {
	FetchDefenseRatings(ctx context.Context, season string) ([]TeamRatingRow, error)
}

// StatsFeed returns per-game player statistics for a season window.
type StatsFeed interface {
	FetchPlayerStats(ctx context.Context, season string, window Window) ([]PlayerStatRow, error)
}

// GameLogFeed returns a player's game log, most recent game first.
type GameLogFeed interface {
	FetchGameLog(ctx context.Context, playerID, season string) ([]GameLogRow, error)
}
