package trend

import (
	"sort"

	"github.com/fortuna/courtvision/internal/feeds"
)

// Leader is one row of the scoring leaderboard.
type Leader struct {
	Rank        int     `json:"rank"`
	PlayerID    string  `json:"player_id"`
	Player      string  `json:"player"`
	Team        string  `json:"team"`
	GamesPlayed int     `json:"games_played"`
	Points      float64 `json:"points"`
	Rebounds    float64 `json:"rebounds"`
	Assists     float64 `json:"assists"`
}

// Leaders returns the top n scorers by points per game.
func Leaders(season []feeds.PlayerStatRow, n int) []Leader {
	rows := append([]feeds.PlayerStatRow(nil), season...)
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Points != rows[j].Points {
			return rows[i].Points > rows[j].Points
		}
		return rows[i].PlayerName < rows[j].PlayerName
	})
	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}

	out := make([]Leader, len(rows))
	for i, r := range rows {
		out[i] = Leader{
			Rank:        i + 1,
			PlayerID:    r.PlayerID,
			Player:      r.PlayerName,
			Team:        r.TeamAbbreviation,
			GamesPlayed: r.GamesPlayed,
			Points:      r.Points,
			Rebounds:    r.Rebounds,
			Assists:     r.Assists,
		}
	}
	return out
}
