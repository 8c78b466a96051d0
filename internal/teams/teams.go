// Package teams holds the static franchise table and the canonical form of
// team identifiers used as map keys across the engine.
package teams

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Team is a franchise as identified by stats.nba.com.
type Team struct {
	ID           string `json:"team_id"`
	Abbreviation string `json:"abbreviation"`
	Name         string `json:"name"`
}

var all = []Team{
	{"1610612737", "ATL", "Atlanta Hawks"},
	{"1610612738", "BOS", "Boston Celtics"},
	{"1610612739", "CLE", "Cleveland Cavaliers"},
	{"1610612740", "NOP", "New Orleans Pelicans"},
	{"1610612741", "CHI", "Chicago Bulls"},
	{"1610612742", "DAL", "Dallas Mavericks"},
	{"1610612743", "DEN", "Denver Nuggets"},
	{"1610612744", "GSW", "Golden State Warriors"},
	{"1610612745", "HOU", "Houston Rockets"},
	{"1610612746", "LAC", "LA Clippers"},
	{"1610612747", "LAL", "Los Angeles Lakers"},
	{"1610612748", "MIA", "Miami Heat"},
	{"1610612749", "MIL", "Milwaukee Bucks"},
	{"1610612750", "MIN", "Minnesota Timberwolves"},
	{"1610612751", "BKN", "Brooklyn Nets"},
	{"1610612752", "NYK", "New York Knicks"},
	{"1610612753", "ORL", "Orlando Magic"},
	{"1610612754", "IND", "Indiana Pacers"},
	{"1610612755", "PHI", "Philadelphia 76ers"},
	{"1610612756", "PHX", "Phoenix Suns"},
	{"1610612757", "POR", "Portland Trail Blazers"},
	{"1610612758", "SAC", "Sacramento Kings"},
	{"1610612759", "SAS", "San Antonio Spurs"},
	{"1610612760", "OKC", "Oklahoma City Thunder"},
	{"1610612761", "TOR", "Toronto Raptors"},
	{"1610612762", "UTA", "Utah Jazz"},
	{"1610612763", "MEM", "Memphis Grizzlies"},
	{"1610612764", "WAS", "Washington Wizards"},
	{"1610612765", "DET", "Detroit Pistons"},
	{"1610612766", "CHA", "Charlotte Hornets"},
}

// Abbreviations used by other feeds (ESPN mostly) that differ from ours.
var aliases = map[string]string{
	"GS":   "GSW",
	"NY":   "NYK",
	"NO":   "NOP",
	"SA":   "SAS",
	"UTAH": "UTA",
	"WSH":  "WAS",
	"PHO":  "PHX",
	"BRK":  "BKN",
	"CHO":  "CHA",
}

var (
	byID   = make(map[string]Team, len(all))
	byAbbr = make(map[string]Team, len(all))
)

func init() {
	for _, t := range all {
		byID[t.ID] = t
		byAbbr[t.Abbreviation] = t
	}
}

// All returns every franchise ordered by team ID.
func All() []Team {
	out := make([]Team, len(all))
	copy(out, all)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ByID looks up a franchise by any representation of its numeric ID.
func ByID(id string) (Team, bool) {
	t, ok := byID[NormalizeID(id)]
	return t, ok
}

// ByAbbreviation looks up a franchise by its abbreviation or a known alias.
func ByAbbreviation(abbr string) (Team, bool) {
	key := strings.ToUpper(strings.TrimSpace(abbr))
	if canonical, ok := aliases[key]; ok {
		key = canonical
	}
	t, ok := byAbbr[key]
	return t, ok
}

// NormalizeID coerces a team identifier into integer-string form, so
// "1610612747.0", " 1610612747" and "1.610612747e+09" all become "1610612747".
// Non-numeric identifiers are returned trimmed and otherwise untouched.
func NormalizeID(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(n, 10)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return s
	}
	// Outside int64 the conversion is undefined.
	if f >= 1<<63 || f < -(1<<63) {
		return s
	}
	return strconv.FormatInt(int64(f), 10)
}

// NormalizeValue normalizes an identifier decoded from JSON, where numbers
// arrive as float64.
func NormalizeValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return NormalizeID(val)
	case float64:
		return NormalizeID(strconv.FormatFloat(val, 'f', -1, 64))
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return ""
	}
}
