package espn

import "time"

// Scoreboard is the subset of the scoreboard payload the schedule needs.
type Scoreboard struct {
	Events []Event `json:"events"`
}

type Event struct {
	ID           string        `json:"id"`
	Date         string        `json:"date"`
	Season       *EventSeason  `json:"season"`
	Status       EventStatus   `json:"status"`
	Competitions []Competition `json:"competitions"`
}

type EventSeason struct {
	Year int `json:"year"`
	Type int `json:"type"`
}

type EventStatus struct {
	Type struct {
		State     string `json:"state"`
		Completed bool   `json:"completed"`
	} `json:"type"`
}

type Competition struct {
	Competitors []Competitor `json:"competitors"`
}

type Competitor struct {
	HomeAway string   `json:"homeAway"`
	Team     TeamMeta `json:"team"`
}

// TeamMeta captures the ESPN identifiers of one side.
type TeamMeta struct {
	ID           string `json:"id"`
	Abbreviation string `json:"abbreviation"`
	DisplayName  string `json:"displayName"`
}

// Game is one scoreboard event reduced to what the schedule index uses.
type Game struct {
	EventID    string
	StartTime  time.Time
	Status     string
	SeasonType string
	Home       TeamMeta
	Away       TeamMeta
}
