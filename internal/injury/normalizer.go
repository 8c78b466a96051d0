// Package injury turns scraped injury tables into a report keyed by
// canonical player name.
package injury

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/courtvision/internal/feeds"
	"github.com/fortuna/courtvision/internal/logging"
	"github.com/fortuna/courtvision/internal/roster"
)

// Entry is one injured player.
type Entry struct {
	Name    string `json:"canonical_player_name"`
	Status  string `json:"status_text"`
	Team    string `json:"team_code"`
	RawName string `json:"raw_name"`
}

// UnknownStatus stands in for a row whose status cell is missing or blank.
const UnknownStatus = "Unknown"

// Display renders the entry as "status (team)".
func (e Entry) Display() string {
	status := e.Status
	if status == "" {
		status = UnknownStatus
	}
	return fmt.Sprintf("%s (%s)", status, e.Team)
}

// Report maps a canonical player name to its injury entry. A report is
// always rebuilt wholesale; it is never patched.
type Report map[string]Entry

// Statuses returns the name -> "status (team)" view handed to presentation
// and the assistant.
func (r Report) Statuses() map[string]string {
	out := make(map[string]string, len(r))
	for name, e := range r {
		out[name] = e.Display()
	}
	return out
}

// Names returns the report keys in order.
func (r Report) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Normalize parses raw table rows against the roster. Rows without a
// player-like column are ignored; the last row wins for a repeated name.
func Normalize(rows []feeds.TableRow, m *roster.Matcher) Report {
	report := make(Report)
	for _, row := range rows {
		playerCol := findColumn(row, "player")
		if playerCol == "" {
			continue
		}
		raw := strings.TrimSpace(row[playerCol])
		if raw == "" {
			continue
		}

		entry := Entry{
			Name:    raw,
			Team:    roster.UnknownTeam,
			RawName: raw,
			Status:  strings.Join(strings.Fields(row[statusColumn(row)]), " "),
		}
		if entry.Status == "" {
			entry.Status = UnknownStatus
		}
		if m != nil {
			if match, ok := m.Match(raw); ok {
				entry.Name = match.Name
				entry.Team = match.Team
			}
		}
		report[entry.Name] = entry
	}
	return report
}

// statusColumn prefers "Injury Status", then any status column, then "Injury".
func statusColumn(row feeds.TableRow) string {
	for key := range row {
		if strings.EqualFold(strings.TrimSpace(key), "injury status") {
			return key
		}
	}
	if col := findColumn(row, "status"); col != "" {
		return col
	}
	return findColumn(row, "injury")
}

// findColumn returns the header equal to name, or else the first header (in
// sorted order) that contains it, case-insensitively.
func findColumn(row feeds.TableRow, name string) string {
	keys := make([]string, 0, len(row))
	for key := range row {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if strings.EqualFold(strings.TrimSpace(key), name) {
			return key
		}
	}
	for _, key := range keys {
		if strings.Contains(strings.ToLower(key), name) {
			return key
		}
	}
	return ""
}

// Normalizer pulls the injury feed and builds reports.
type Normalizer struct {
	feed feeds.InjuryFeed
	log  *logrus.Entry
}

// NewNormalizer creates a normalizer over feed.
func NewNormalizer(feed feeds.InjuryFeed, log *logrus.Logger) *Normalizer {
	return &Normalizer{feed: feed, log: logging.Component(log, "injury")}
}

// Build fetches the injury tables and resolves names against r. A fetch or
// parse failure yields an empty report and a *feeds.FetchError.
func (n *Normalizer) Build(ctx context.Context, r roster.Roster) (Report, error) {
	rows, err := n.feed.FetchInjuryTables(ctx)
	if err != nil {
		n.log.WithError(err).Warn("Injury feed unavailable, reporting no injuries")
		return Report{}, feeds.Unavailable("injuries", "fetch", err)
	}

	report := Normalize(rows, roster.NewMatcher(r))
	unknown := 0
	for _, e := range report {
		if e.Team == roster.UnknownTeam {
			unknown++
		}
	}
	n.log.WithFields(logrus.Fields{
		"rows":      len(rows),
		"injuries":  len(report),
		"unmatched": unknown,
	}).Debug("Injury report built")
	return report, nil
}
