// Package trend merges season and recent-window statistics into ranked trend
// records.
package trend

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/fortuna/courtvision/internal/defense"
	"github.com/fortuna/courtvision/internal/feeds"
	"github.com/fortuna/courtvision/internal/schedule"
	"github.com/fortuna/courtvision/internal/teams"
)

// Record is one player's trend. Delta is derived from the two values on
// every read.
type Record struct {
	PlayerID    string    `json:"player_id"`
	Player      string    `json:"player"`
	TeamID      string    `json:"team_id"`
	Team        string    `json:"team"`
	Metric      Metric    `json:"metric"`
	SeasonValue float64   `json:"season_value"`
	RecentValue float64   `json:"recent_value"`
	RecentGames int       `json:"recent_games"`
	Matchup     string    `json:"matchup_label"`
	Opponent    *Opponent `json:"opponent,omitempty"`
	Status      string    `json:"status_label"`
}

// Delta is recent minus season.
func (r Record) Delta() float64 {
	return r.RecentValue - r.SeasonValue
}

// MarshalJSON adds the derived delta.
func (r Record) MarshalJSON() ([]byte, error) {
	type plain Record
	return json.Marshal(struct {
		plain
		Delta float64 `json:"delta"`
	}{plain(r), r.Delta()})
}

// Coverage counts what the join left out.
type Coverage struct {
	Season          int `json:"season_players"`
	Recent          int `json:"recent_players"`
	BelowMinGames   int `json:"below_min_games"`
	UnmatchedSeason int `json:"unmatched_season"`
	UnmatchedRecent int `json:"unmatched_recent"`
	Joined          int `json:"joined"`
}

// Compute joins the season window with the qualifying recent window,
// classifies each player and sorts by delta, largest first. The result is
// never nil.
func Compute(season, recent []feeds.PlayerStatRow, sched schedule.Index, def defense.Table, p Policy) ([]Record, Coverage) {
	cov := Coverage{}

	seasonBy := make(map[string]feeds.PlayerStatRow, len(season))
	for _, row := range season {
		seasonBy[playerKey(row)] = row
	}
	cov.Season = len(seasonBy)

	recentBy := make(map[string]feeds.PlayerStatRow, len(recent))
	for _, row := range recent {
		if row.GamesPlayed < p.MinGames {
			cov.BelowMinGames++
			continue
		}
		recentBy[playerKey(row)] = row
	}
	cov.Recent = len(recentBy)

	out := make([]Record, 0, len(recentBy))
	for key, r := range recentBy {
		s, ok := seasonBy[key]
		if !ok {
			cov.UnmatchedRecent++
			continue
		}

		teamID := teams.NormalizeID(r.TeamID)
		abbr := r.TeamAbbreviation
		if teamID == "" {
			teamID, abbr = teams.NormalizeID(s.TeamID), s.TeamAbbreviation
		}
		if abbr == "" {
			if team, ok := teams.ByID(teamID); ok {
				abbr = team.Abbreviation
			}
		}

		rec := Record{
			PlayerID:    s.PlayerID,
			Player:      strings.TrimSpace(s.PlayerName),
			TeamID:      teamID,
			Team:        abbr,
			Metric:      p.Metric,
			SeasonValue: p.Metric.Value(s),
			RecentValue: p.Metric.Value(r),
			RecentGames: r.GamesPlayed,
		}
		rec.Matchup, rec.Opponent = p.Matchup(teamID, sched, def)
		rec.Status = p.Status(rec.Delta())
		out = append(out, rec)
	}
	cov.Joined = len(out)
	cov.UnmatchedSeason = cov.Season - cov.Joined

	Sort(out)
	return out, cov
}

// Sort orders records by delta, largest first, then by player name.
func Sort(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		di, dj := records[i].Delta(), records[j].Delta()
		if di != dj {
			return di > dj
		}
		return records[i].Player < records[j].Player
	})
}

func playerKey(row feeds.PlayerStatRow) string {
	if id := teams.NormalizeID(row.PlayerID); id != "" {
		return id
	}
	return "name:" + strings.ToLower(strings.TrimSpace(row.PlayerName))
}
