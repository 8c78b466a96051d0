// Package defense builds the per-team defensive rating table.
package defense

import (
	"context"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/courtvision/internal/feeds"
	"github.com/fortuna/courtvision/internal/logging"
	"github.com/fortuna/courtvision/internal/teams"
)

// NeutralRating is the league-average rating used when live data is missing.
const NeutralRating = 114.0

// Entry sources.
const (
	SourceLive     = "live"
	SourceFallback = "fallback"
)

// Entry is one team's defensive efficiency. Lower is better.
type Entry struct {
	TeamID string  `json:"team_id"`
	Label  string  `json:"team_label"`
	Rating float64 `json:"defensive_rating"`
	Source string  `json:"source"`
}

// Table maps a canonical team ID to its entry.
type Table map[string]Entry

// Lookup returns the entry for teamID.
func (t Table) Lookup(teamID string) (Entry, bool) {
	e, ok := t[teams.NormalizeID(teamID)]
	return e, ok
}

// Worst returns the n most generous defenses, highest rating first. n <= 0
// returns every entry.
func (t Table) Worst(n int) []Entry {
	out := make([]Entry, 0, len(t))
	for _, e := range t {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].TeamID < out[j].TeamID
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Fallback synthesizes an entry for every known team at the neutral rating.
func Fallback(neutral float64) Table {
	t := make(Table, len(teams.All()))
	for _, team := range teams.All() {
		t[team.ID] = Entry{TeamID: team.ID, Label: team.Name, Rating: neutral, Source: SourceFallback}
	}
	return t
}

// FromRows builds a table from live rows. Known teams the feed omitted are
// filled at the neutral rating.
func FromRows(rows []feeds.TeamRatingRow, neutral float64) Table {
	t := Fallback(neutral)
	for _, row := range rows {
		id := teams.NormalizeID(row.TeamID)
		if id == "" {
			continue
		}
		label := strings.TrimSpace(row.TeamName)
		if label == "" {
			if team, ok := teams.ByID(id); ok {
				label = team.Name
			}
		}
		t[id] = Entry{TeamID: id, Label: label, Rating: row.DefensiveRating, Source: SourceLive}
	}
	return t
}

// Builder pulls the defense feed for a season.
type Builder struct {
	feed    feeds.DefenseFeed
	neutral float64
	log     *logrus.Entry
}

// NewBuilder creates a builder. A non-positive neutral rating selects
// NeutralRating.
func NewBuilder(feed feeds.DefenseFeed, neutral float64, log *logrus.Logger) *Builder {
	if neutral <= 0 {
		neutral = NeutralRating
	}
	return &Builder{feed: feed, neutral: neutral, log: logging.Component(log, "defense")}
}

// Ratings returns the table for season. On failure, or when the feed returns
// nothing, every known team is present at the neutral rating and the error
// is a *feeds.FetchError.
func (b *Builder) Ratings(ctx context.Context, season string) (Table, error) {
	rows, err := b.feed.FetchDefenseRatings(ctx, season)
	if err == nil && len(rows) == 0 {
		err = feeds.ErrEmptyResponse
	}
	if err != nil {
		b.log.WithError(err).WithField("season", season).
			Warn("Defense feed unavailable, using neutral ratings")
		return Fallback(b.neutral), feeds.Unavailable("defense", "fetch", err)
	}

	t := FromRows(rows, b.neutral)
	b.log.WithFields(logrus.Fields{
		"season": season,
		"rows":   len(rows),
		"teams":  len(t),
	}).Debug("Defense table built")
	return t, nil
}
