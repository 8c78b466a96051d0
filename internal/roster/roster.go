// Package roster resolves canonical player names to team codes.
package roster

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/courtvision/internal/feeds"
	"github.com/fortuna/courtvision/internal/logging"
)

// UnknownTeam is reported for players the roster cannot place.
const UnknownTeam = "Unknown"

// Roster maps a canonical full name to a team abbreviation.
type Roster map[string]string

// Team returns the team for a canonical name, or UnknownTeam.
func (r Roster) Team(name string) string {
	if team, ok := r[name]; ok && team != "" {
		return team
	}
	return UnknownTeam
}

// Build folds roster rows into a Roster. Later rows win when a name repeats.
func Build(pairs []feeds.PlayerTeamPair) Roster {
	out := make(Roster, len(pairs))
	for _, p := range pairs {
		name := strings.TrimSpace(p.FullName)
		if name == "" {
			continue
		}
		out[name] = strings.ToUpper(strings.TrimSpace(p.TeamCode))
	}
	return out
}

// Resolver pulls the roster feed and builds the canonical mapping.
type Resolver struct {
	feed feeds.RosterFeed
	log  *logrus.Entry
}

// NewResolver creates a resolver over feed.
func NewResolver(feed feeds.RosterFeed, log *logrus.Logger) *Resolver {
	return &Resolver{feed: feed, log: logging.Component(log, "roster")}
}

// Resolve returns the current roster. On fetch failure the roster is empty
// and the error is a *feeds.FetchError; callers treat every name as unknown.
func (r *Resolver) Resolve(ctx context.Context) (Roster, error) {
	pairs, err := r.feed.FetchRoster(ctx)
	if err != nil {
		r.log.WithError(err).Warn("Roster feed unavailable, continuing with empty roster")
		return Roster{}, feeds.Unavailable("roster", "fetch", err)
	}

	roster := Build(pairs)
	r.log.WithField("players", len(roster)).Debug("Roster resolved")
	return roster, nil
}
