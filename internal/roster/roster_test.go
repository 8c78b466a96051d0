package roster

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/courtvision/internal/feeds"
	"github.com/fortuna/courtvision/internal/logging"
)

type stubRosterFeed struct {
	pairs []feeds.PlayerTeamPair
	err   error
}

func (s stubRosterFeed) FetchRoster(context.Context) ([]feeds.PlayerTeamPair, error) {
	return s.pairs, s.err
}

func TestBuildLastWriteWins(t *testing.T) {
	r := Build([]feeds.PlayerTeamPair{
		{FullName: "Jayson Tatum", TeamCode: "bos"},
		{FullName: "  ", TeamCode: "LAL"},
		{FullName: "Luka Doncic", TeamCode: "DAL"},
		{FullName: "Luka Doncic", TeamCode: "LAL"},
	})

	assert.Len(t, r, 2)
	assert.Equal(t, "BOS", r["Jayson Tatum"])
	assert.Equal(t, "LAL", r["Luka Doncic"])
	assert.Equal(t, UnknownTeam, r.Team("Nobody"))
}

func TestResolverFailureYieldsEmptyRoster(t *testing.T) {
	res := NewResolver(stubRosterFeed{err: errors.New("timeout")}, logging.Discard())

	r, err := res.Resolve(context.Background())
	require.Error(t, err)
	assert.True(t, feeds.IsUnavailable(err))
	assert.NotNil(t, r)
	assert.Empty(t, r)
	assert.Equal(t, UnknownTeam, r.Team("Jayson Tatum"))
}

func TestResolver(t *testing.T) {
	res := NewResolver(stubRosterFeed{pairs: []feeds.PlayerTeamPair{{FullName: "Jayson Tatum", TeamCode: "BOS"}}}, nil)

	r, err := res.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Roster{"Jayson Tatum": "BOS"}, r)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "nikola jokic", Normalize("Nikola Jokić"))
	assert.Equal(t, "j tatumjayson tatum", Normalize("J. TatumJayson Tatum"))
	assert.Equal(t, "royce oneale", Normalize("Royce O'Neale"))
	assert.Equal(t, "karl anthony towns", Normalize(" Karl-Anthony  Towns "))
	assert.Equal(t, "", Normalize(" .. "))
}

func TestMatcherConcatenatedName(t *testing.T) {
	m := NewMatcher(Roster{"Jayson Tatum": "BOS", "Jaylen Brown": "BOS"})

	match, ok := m.Match("J. TatumJayson Tatum")
	require.True(t, ok)
	assert.Equal(t, Match{Name: "Jayson Tatum", Team: "BOS"}, match)
}

func TestMatcherExactBeatsSubstring(t *testing.T) {
	m := NewMatcher(Roster{"Gary Payton": "SEA", "Gary Payton II": "GSW"})

	match, ok := m.Match("Gary Payton")
	require.True(t, ok)
	assert.Equal(t, "Gary Payton", match.Name)
	assert.True(t, match.Exact)

	match, ok = m.Match("G. Payton IIGary Payton II")
	require.True(t, ok)
	assert.Equal(t, "Gary Payton II", match.Name)
	assert.Equal(t, "GSW", match.Team)
}

func TestMatcherLongestThenLexicographic(t *testing.T) {
	m := NewMatcher(Roster{
		"Jalen Williams":  "OKC",
		"Jaylin Williams": "OKC",
		"Ja Morant":       "MEM",
	})

	// Both Williamses are contained; the longer canonical name wins.
	match, ok := m.Match("J. WilliamsJaylin WilliamsJalen Williams")
	require.True(t, ok)
	assert.Equal(t, "Jaylin Williams", match.Name)

	// Same-length collisions are resolved by name order, independent of
	// insertion order.
	m = NewMatcher(Roster{"Bbb Ccc": "X", "Aaa Ccc": "Y"})
	match, ok = m.Match("Bbb CccAaa Ccc")
	require.True(t, ok)
	assert.Equal(t, "Aaa Ccc", match.Name)
}

func TestMatcherAccents(t *testing.T) {
	m := NewMatcher(Roster{"Nikola Jokić": "DEN"})

	match, ok := m.Match("N. JokicNikola Jokic")
	require.True(t, ok)
	assert.Equal(t, "Nikola Jokić", match.Name)
}

func TestMatcherNoMatch(t *testing.T) {
	m := NewMatcher(Roster{"Jayson Tatum": "BOS"})

	_, ok := m.Match("Some Rookie")
	assert.False(t, ok)
	_, ok = m.Match("")
	assert.False(t, ok)
}

func TestSearch(t *testing.T) {
	m := NewMatcher(Roster{
		"Jayson Tatum":          "BOS",
		"Jaylen Brown":          "BOS",
		"LeBron James":          "LAL",
		"Bronny James":          "LAL",
		"Stephen Curry":         "GSW",
		"Seth Curry":            "CHA",
		"Dell Curry":            "",
		"Kevin Durant":          "PHX",
		"Anthony Davis":         "DAL",
		"Giannis Antetokounmpo": "MIL",
	})

	hits := m.Search("curry", 10)
	require.Len(t, hits, 3)
	assert.Equal(t, "Dell Curry", hits[0].Name)
	assert.Equal(t, UnknownTeam, hits[0].Team)

	hits = m.Search("lebron james", 10)
	require.NotEmpty(t, hits)
	assert.Equal(t, "LeBron James", hits[0].Name)
	assert.True(t, hits[0].Exact)

	hits = m.Search("gnnis", 5)
	require.NotEmpty(t, hits)
	assert.Equal(t, "Giannis Antetokounmpo", hits[0].Name)

	assert.Nil(t, m.Search("   ", 5))
	assert.Len(t, m.Search("a", 2), 2)
}
