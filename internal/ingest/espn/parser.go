package espn

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fortuna/courtvision/internal/feeds"
	"github.com/fortuna/courtvision/internal/teams"
)

// Scoreboard dates come with and without seconds.
var eventDateLayouts = []string{time.RFC3339, "2006-01-02T15:04Z"}

// Games converts the scoreboard events. Events that cannot be read are
// returned in skipped; an empty board is not an error.
func (s *Scoreboard) Games() (games []Game, skipped []error) {
	games = make([]Game, 0, len(s.Events))
	for _, ev := range s.Events {
		g, err := ev.game()
		if err != nil {
			skipped = append(skipped, fmt.Errorf("event %s: %w", ev.ID, err))
			continue
		}
		games = append(games, g)
	}
	return games, skipped
}

func (ev Event) game() (Game, error) {
	if len(ev.Competitions) == 0 {
		return Game{}, errors.New("no competitions")
	}

	g := Game{
		EventID:    ev.ID,
		StartTime:  parseEventDate(ev.Date),
		Status:     ev.Status.label(),
		SeasonType: "regular",
	}
	if ev.Season != nil {
		switch ev.Season.Type {
		case 1:
			g.SeasonType = "preseason"
		case 3:
			g.SeasonType = "postseason"
		}
	}

	for _, c := range ev.Competitions[0].Competitors {
		c.Team.Abbreviation = strings.ToUpper(strings.TrimSpace(c.Team.Abbreviation))
		switch c.HomeAway {
		case "home":
			g.Home = c.Team
		case "away":
			g.Away = c.Team
		}
	}
	if g.Home.Abbreviation == "" || g.Away.Abbreviation == "" {
		return Game{}, errors.New("missing home or away team")
	}
	return g, nil
}

func (s EventStatus) label() string {
	if s.Type.Completed {
		return "final"
	}
	switch s.Type.State {
	case "in":
		return "in_progress"
	case "post":
		return "final"
	}
	return "scheduled"
}

func parseEventDate(raw string) time.Time {
	for _, layout := range eventDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// GamePair maps ESPN abbreviations onto canonical team IDs.
func (g Game) GamePair() (feeds.GamePair, error) {
	home, ok := teams.ByAbbreviation(g.Home.Abbreviation)
	if !ok {
		return feeds.GamePair{}, fmt.Errorf("unknown home team %q", g.Home.Abbreviation)
	}
	away, ok := teams.ByAbbreviation(g.Away.Abbreviation)
	if !ok {
		return feeds.GamePair{}, fmt.Errorf("unknown away team %q", g.Away.Abbreviation)
	}
	return feeds.GamePair{GameID: g.EventID, HomeTeamID: home.ID, AwayTeamID: away.ID}, nil
}
