package roster

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Match is a canonical roster entry found for a raw name.
type Match struct {
	Name  string `json:"name"`
	Team  string `json:"team"`
	Exact bool   `json:"exact"`
}

type candidate struct {
	canonical  string
	normalized string
}

// Matcher is a normalized-name index over a Roster. Lookups try an exact
// normalized match first, then the longest canonical name contained in the
// raw string; equal lengths are broken by canonical name order.
type Matcher struct {
	roster     Roster
	exact      map[string]string
	candidates []candidate
}

// NewMatcher indexes r.
func NewMatcher(r Roster) *Matcher {
	m := &Matcher{
		roster:     r,
		exact:      make(map[string]string, len(r)),
		candidates: make([]candidate, 0, len(r)),
	}

	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		n := Normalize(name)
		if n == "" {
			continue
		}
		// Two spellings may fold to the same key; the first in name order keeps it.
		if _, taken := m.exact[n]; !taken {
			m.exact[n] = name
		}
		m.candidates = append(m.candidates, candidate{canonical: name, normalized: n})
	}

	sort.SliceStable(m.candidates, func(i, j int) bool {
		li, lj := len(m.candidates[i].normalized), len(m.candidates[j].normalized)
		if li != lj {
			return li > lj
		}
		return m.candidates[i].canonical < m.candidates[j].canonical
	})
	return m
}

// Len returns the number of indexed names.
func (m *Matcher) Len() int {
	return len(m.candidates)
}

// Match resolves a raw, possibly garbled name to a roster entry.
func (m *Matcher) Match(raw string) (Match, bool) {
	n := Normalize(raw)
	if n == "" {
		return Match{}, false
	}

	if name, ok := m.exact[n]; ok {
		return Match{Name: name, Team: m.roster.Team(name), Exact: true}, true
	}

	for _, c := range m.candidates {
		if strings.Contains(n, c.normalized) {
			return Match{Name: c.canonical, Team: m.roster.Team(c.canonical)}, true
		}
	}
	return Match{}, false
}

// Normalize folds a name for comparison: accents stripped, lower-cased,
// punctuation turned into spaces, whitespace collapsed.
func Normalize(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range strings.ToLower(folded) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '\'' || r == '’':
			// O'Neale and O’Neale fold to "oneale"
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
