package roster

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// searchItems implements fuzzy.Source over canonical names.
type searchItems []string

func (s searchItems) Len() int {
	return len(s)
}

func (s searchItems) String(i int) string {
	return s[i]
}

// Search finds players for a free-text query. Names containing the query
// (case and accent insensitive) come first in name order; when none do, the
// fuzzy matches ranked by score are returned instead.
func (m *Matcher) Search(query string, limit int) []Match {
	q := Normalize(query)
	if q == "" {
		return nil
	}
	if limit <= 0 {
		limit = 10
	}

	var hits []Match
	for _, c := range m.candidates {
		if strings.Contains(c.normalized, q) {
			hits = append(hits, Match{Name: c.canonical, Team: m.roster.Team(c.canonical), Exact: c.normalized == q})
		}
	}
	if len(hits) > 0 {
		sort.SliceStable(hits, func(i, j int) bool {
			if hits[i].Exact != hits[j].Exact {
				return hits[i].Exact
			}
			return hits[i].Name < hits[j].Name
		})
		if len(hits) > limit {
			hits = hits[:limit]
		}
		return hits
	}

	items := make(searchItems, len(m.candidates))
	for i, c := range m.candidates {
		items[i] = c.normalized
	}
	for _, match := range fuzzy.FindFrom(q, items) {
		c := m.candidates[match.Index]
		hits = append(hits, Match{Name: c.canonical, Team: m.roster.Team(c.canonical)})
		if len(hits) == limit {
			break
		}
	}
	return hits
}
