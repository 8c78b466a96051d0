// Package schedule builds the symmetric team -> opponent index for today's
// slate.
package schedule

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/courtvision/internal/feeds"
	"github.com/fortuna/courtvision/internal/logging"
	"github.com/fortuna/courtvision/internal/teams"
)

// Index maps a canonical team ID to its opponent. Both directions of every
// game are present.
type Index map[string]string

// Opponent returns the opponent of teamID, if it plays today.
func (i Index) Opponent(teamID string) (string, bool) {
	opp, ok := i[teams.NormalizeID(teamID)]
	return opp, ok
}

// Games returns the number of distinct games.
func (i Index) Games() int {
	return len(i) / 2
}

// Pairs returns each game once, lower team ID first, in ID order.
func (i Index) Pairs() []feeds.GamePair {
	out := make([]feeds.GamePair, 0, len(i)/2)
	for a, b := range i {
		if a < b {
			out = append(out, feeds.GamePair{HomeTeamID: a, AwayTeamID: b})
		}
	}
	sort.Slice(out, func(x, y int) bool { return out[x].HomeTeamID < out[y].HomeTeamID })
	return out
}

// Build unions the probes into one index. Probes are applied in order; a
// game involving a team already placed by an earlier probe is skipped so
// the index stays symmetric.
func Build(probes ...[]feeds.GamePair) Index {
	idx := make(Index)
	for _, games := range probes {
		for _, g := range games {
			home := teams.NormalizeID(g.HomeTeamID)
			away := teams.NormalizeID(g.AwayTeamID)
			if home == "" || away == "" || home == away {
				continue
			}
			if _, taken := idx[home]; taken {
				continue
			}
			if _, taken := idx[away]; taken {
				continue
			}
			idx[home] = away
			idx[away] = home
		}
	}
	return idx
}

// Builder probes the schedule feed around the current instant.
type Builder struct {
	feed feeds.ScheduleFeed
	zone *time.Location
	now  func() time.Time
	log  *logrus.Entry
}

// NewBuilder creates a builder that treats "today" as the calendar date at
// the given UTC offset.
func NewBuilder(feed feeds.ScheduleFeed, utcOffsetHours int, log *logrus.Logger) *Builder {
	return &Builder{
		feed: feed,
		zone: time.FixedZone(fmt.Sprintf("UTC%+d", utcOffsetHours), utcOffsetHours*3600),
		now:  time.Now,
		log:  logging.Component(log, "schedule"),
	}
}

// WithClock replaces the wall clock. Used by tests.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// ProbeDates returns today in the builder's zone followed by the next day.
func (b *Builder) ProbeDates() []time.Time {
	local := b.now().In(b.zone)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, b.zone)
	return []time.Time{today, today.AddDate(0, 0, 1)}
}

// Today fetches every probe date and unions the games. Any fetch failure
// yields an empty index and a *feeds.FetchError.
func (b *Builder) Today(ctx context.Context) (Index, error) {
	dates := b.ProbeDates()
	probes := make([][]feeds.GamePair, 0, len(dates))

	for _, date := range dates {
		games, err := b.feed.FetchSchedule(ctx, date)
		if err != nil {
			b.log.WithError(err).WithField("date", date.Format("2006-01-02")).
				Warn("Schedule feed unavailable, assuming no games")
			return Index{}, feeds.Unavailable("schedule", "fetch "+date.Format("2006-01-02"), err)
		}
		probes = append(probes, games)
	}

	idx := Build(probes...)
	b.log.WithFields(logrus.Fields{
		"dates": len(dates),
		"games": idx.Games(),
	}).Debug("Schedule index built")
	return idx, nil
}
