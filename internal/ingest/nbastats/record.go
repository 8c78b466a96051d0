package nbastats

import (
	"strconv"
	"strings"

	"github.com/fortuna/courtvision/internal/teams"
)

// record is one row keyed by upper-cased header.
type record map[string]interface{}

func (r record) str(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// id returns an identifier in canonical integer-string form.
func (r record) id(key string) string {
	return teams.NormalizeValue(r[key])
}

func (r record) num(key string) float64 {
	switch v := r[key].(type) {
	case float64:
		return v
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func (r record) integer(key string) int {
	return int(r.num(key))
}
