package trend

import (
	"encoding/json"
	"time"

	"github.com/fortuna/courtvision/internal/feeds"
)

// Form labels for the deep dive.
const (
	FormHot  = "HOT"
	FormCold = "COLD"
)

// ChartPoint is one game on the PRA chart.
type ChartPoint struct {
	GameDate time.Time `json:"game_date"`
	Matchup  string    `json:"matchup"`
	PRA      float64   `json:"pra"`
}

// DeepDive is a single player's recent PRA form against their season line.
type DeepDive struct {
	PlayerID     string       `json:"player_id"`
	Player       string       `json:"player"`
	Team         string       `json:"team"`
	SeasonPoints float64      `json:"season_points"`
	SeasonPRA    float64      `json:"season_pra"`
	RecentPRA    float64      `json:"recent_pra"`
	RecentGames  int          `json:"recent_games"`
	Form         string       `json:"form"`
	Status       string       `json:"status_label"`
	Chart        []ChartPoint `json:"chart"`
}

// Delta is recent PRA minus season PRA.
func (d DeepDive) Delta() float64 {
	return d.RecentPRA - d.SeasonPRA
}

// MarshalJSON adds the derived delta.
func (d DeepDive) MarshalJSON() ([]byte, error) {
	type plain DeepDive
	return json.Marshal(struct {
		plain
		Delta float64 `json:"delta"`
	}{plain(d), d.Delta()})
}

// Dive averages the most recent games of a log (most recent first) and
// compares them to the season line. The chart covers up to chartGames games
// in chronological order. It reports false when there is nothing to compare.
func Dive(season feeds.PlayerStatRow, log []feeds.GameLogRow, recentGames, chartGames int, p Policy) (DeepDive, bool) {
	if len(log) == 0 {
		return DeepDive{}, false
	}
	if recentGames <= 0 {
		recentGames = 5
	}
	if recentGames > len(log) {
		recentGames = len(log)
	}

	var sum float64
	for _, g := range log[:recentGames] {
		sum += g.PRA()
	}

	d := DeepDive{
		PlayerID:     season.PlayerID,
		Player:       season.PlayerName,
		Team:         season.TeamAbbreviation,
		SeasonPoints: season.Points,
		SeasonPRA:    season.PRA(),
		RecentPRA:    sum / float64(recentGames),
		RecentGames:  recentGames,
	}
	d.Form = FormCold
	if d.Delta() > 0 {
		d.Form = FormHot
	}
	d.Status = p.Status(d.Delta())

	if chartGames <= 0 || chartGames > len(log) {
		chartGames = len(log)
	}
	d.Chart = make([]ChartPoint, chartGames)
	for i, g := range log[:chartGames] {
		d.Chart[chartGames-1-i] = ChartPoint{GameDate: g.GameDate, Matchup: g.Matchup, PRA: g.PRA()}
	}
	return d, true
}
