package nbastats

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fortuna/courtvision/internal/feeds"
)

// dashParams are the filters leaguedash endpoints reject the request
// without.
func dashParams(season, measure string) url.Values {
	return url.Values{
		"LeagueID":         {LeagueID},
		"Season":           {season},
		"SeasonType":       {RegularSeason},
		"MeasureType":      {measure},
		"PerMode":          {"PerGame"},
		"LastNGames":       {"0"},
		"Month":            {"0"},
		"OpponentTeamID":   {"0"},
		"PaceAdjust":       {"N"},
		"Period":           {"0"},
		"PlusMinus":        {"N"},
		"Rank":             {"N"},
		"TeamID":           {"0"},
		"DateFrom":         {""},
		"DateTo":           {""},
		"GameSegment":      {""},
		"Location":         {""},
		"Outcome":          {""},
		"SeasonSegment":    {""},
		"VsConference":     {""},
		"VsDivision":       {""},
		"PlayerExperience": {""},
		"PlayerPosition":   {""},
		"StarterBench":     {""},
	}
}

// FetchRoster returns every player on a roster this season, including
// inactive and injured ones.
func (c *Client) FetchRoster(ctx context.Context) ([]feeds.PlayerTeamPair, error) {
	params := url.Values{
		"LeagueID":            {LeagueID},
		"Season":              {c.season()},
		"IsOnlyCurrentSeason": {"1"},
	}
	recs, err := c.fetch(ctx, "commonallplayers", params, "CommonAllPlayers")
	if err != nil {
		return nil, err
	}

	out := make([]feeds.PlayerTeamPair, 0, len(recs))
	for _, r := range recs {
		name := r.str("DISPLAY_FIRST_LAST")
		if name == "" {
			continue
		}
		out = append(out, feeds.PlayerTeamPair{
			PlayerID: r.id("PERSON_ID"),
			FullName: name,
			TeamCode: r.str("TEAM_ABBREVIATION"),
		})
	}
	return out, nil
}

// FetchPlayerStats returns per-game averages over window.
func (c *Client) FetchPlayerStats(ctx context.Context, season string, window feeds.Window) ([]feeds.PlayerStatRow, error) {
	params := dashParams(season, "Base")
	if window.Kind == feeds.WindowLastN && window.Games > 0 {
		params.Set("LastNGames", strconv.Itoa(window.Games))
	}

	recs, err := c.fetch(ctx, "leaguedashplayerstats", params, "LeagueDashPlayerStats")
	if err != nil {
		return nil, err
	}

	out := make([]feeds.PlayerStatRow, 0, len(recs))
	for _, r := range recs {
		out = append(out, feeds.PlayerStatRow{
			PlayerID:         r.id("PLAYER_ID"),
			PlayerName:       r.str("PLAYER_NAME"),
			TeamID:           r.id("TEAM_ID"),
			TeamAbbreviation: r.str("TEAM_ABBREVIATION"),
			GamesPlayed:      r.integer("GP"),
			Points:           r.num("PTS"),
			Rebounds:         r.num("REB"),
			Assists:          r.num("AST"),
		})
	}
	return out, nil
}

// FetchDefenseRatings returns each team's advanced defensive rating.
func (c *Client) FetchDefenseRatings(ctx context.Context, season string) ([]feeds.TeamRatingRow, error) {
	recs, err := c.fetch(ctx, "leaguedashteamstats", dashParams(season, "Advanced"), "LeagueDashTeamStats")
	if err != nil {
		return nil, err
	}

	out := make([]feeds.TeamRatingRow, 0, len(recs))
	for _, r := range recs {
		out = append(out, feeds.TeamRatingRow{
			TeamID:          r.id("TEAM_ID"),
			TeamName:        r.str("TEAM_NAME"),
			DefensiveRating: r.num("DEF_RATING"),
		})
	}
	return out, nil
}

// FetchSchedule returns the games on date.
func (c *Client) FetchSchedule(ctx context.Context, date time.Time) ([]feeds.GamePair, error) {
	params := url.Values{
		"LeagueID":  {LeagueID},
		"GameDate":  {date.Format("2006-01-02")},
		"DayOffset": {"0"},
	}
	recs, err := c.fetch(ctx, "scoreboardv2", params, "GameHeader")
	if err != nil {
		return nil, err
	}

	out := make([]feeds.GamePair, 0, len(recs))
	for _, r := range recs {
		out = append(out, feeds.GamePair{
			GameID:     r.str("GAME_ID"),
			HomeTeamID: r.id("HOME_TEAM_ID"),
			AwayTeamID: r.id("VISITOR_TEAM_ID"),
		})
	}
	return out, nil
}

// FetchGameLog returns a player's regular-season games, most recent first.
func (c *Client) FetchGameLog(ctx context.Context, playerID, season string) ([]feeds.GameLogRow, error) {
	params := url.Values{
		"LeagueID":   {LeagueID},
		"PlayerID":   {playerID},
		"Season":     {season},
		"SeasonType": {RegularSeason},
	}
	recs, err := c.fetch(ctx, "playergamelog", params, "PlayerGameLog")
	if err != nil {
		return nil, err
	}

	out := make([]feeds.GameLogRow, 0, len(recs))
	for _, r := range recs {
		out = append(out, feeds.GameLogRow{
			GameID:   r.str("GAME_ID"),
			GameDate: parseGameDate(r.str("GAME_DATE")),
			Matchup:  r.str("MATCHUP"),
			Points:   r.num("PTS"),
			Rebounds: r.num("REB"),
			Assists:  r.num("AST"),
		})
	}
	return out, nil
}

// parseGameDate accepts "OCT 22, 2024" and ISO dates.
func parseGameDate(s string) time.Time {
	for _, layout := range []string{"Jan 02, 2006", "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t
		}
	}
	return time.Time{}
}
