package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fortuna/courtvision/internal/cache"
	"github.com/fortuna/courtvision/internal/feeds"
	"github.com/fortuna/courtvision/internal/roster"
	"github.com/fortuna/courtvision/internal/trend"
)

const chartGames = 10

var (
	// ErrPlayerNotFound is returned when a deep-dive query matches nobody.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrNoGames is returned when the player has no games this season.
	ErrNoGames = errors.New("no games played this season")
)

// GameLog returns a player's game log for the current season.
func (e *Engine) GameLog(ctx context.Context, playerID string) ([]feeds.GameLogRow, error) {
	s := e.Season()
	key := fmt.Sprintf("gamelog:%s:%s", s, playerID)
	return cache.Cached(ctx, e.cache, key, e.opts.TTL.GameLog, func(ctx context.Context) ([]feeds.GameLogRow, error) {
		rows, err := e.feeds.GameLog.FetchGameLog(ctx, playerID, s)
		if err != nil {
			return []feeds.GameLogRow{}, feeds.Unavailable("gamelog", playerID, err)
		}
		return rows, nil
	})
}

// DeepDive resolves query to a player with stats this season and compares
// their last games' PRA to their season average.
func (e *Engine) DeepDive(ctx context.Context, query string) (trend.DeepDive, error) {
	rows, err := e.Stats(ctx, feeds.SeasonWindow())
	if err != nil {
		return trend.DeepDive{}, err
	}

	byName := make(map[string]feeds.PlayerStatRow, len(rows))
	pairs := make([]feeds.PlayerTeamPair, 0, len(rows))
	for _, row := range rows {
		byName[strings.TrimSpace(row.PlayerName)] = row
		pairs = append(pairs, feeds.PlayerTeamPair{PlayerID: row.PlayerID, FullName: row.PlayerName, TeamCode: row.TeamAbbreviation})
	}

	hits := roster.NewMatcher(roster.Build(pairs)).Search(query, 1)
	if len(hits) == 0 {
		return trend.DeepDive{}, fmt.Errorf("%q: %w", query, ErrPlayerNotFound)
	}
	row, ok := byName[hits[0].Name]
	if !ok {
		return trend.DeepDive{}, fmt.Errorf("%q: %w", query, ErrPlayerNotFound)
	}

	games, err := e.GameLog(ctx, row.PlayerID)
	if err != nil {
		return trend.DeepDive{}, err
	}

	dive, ok := trend.Dive(row, games, e.opts.LastN, chartGames, e.opts.Policy)
	if !ok {
		return trend.DeepDive{}, fmt.Errorf("%s: %w", row.PlayerName, ErrNoGames)
	}
	return dive, nil
}
