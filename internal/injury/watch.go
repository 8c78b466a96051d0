package injury

import (
	"strings"

	"github.com/fortuna/courtvision/internal/roster"
)

// Healthy is reported for watched players absent from the report.
const Healthy = "Healthy"

// WatchItem is the injury status of one watched player.
type WatchItem struct {
	Player  string `json:"player"`
	Status  string `json:"status"`
	Injured bool   `json:"injured"`
}

// Watch reports the status of each watched player. A canonical key match is
// used first; otherwise the first report name (in order) containing the
// watched name.
func (r Report) Watch(players []string) []WatchItem {
	names := r.Names()
	out := make([]WatchItem, 0, len(players))

	for _, player := range players {
		item := WatchItem{Player: player, Status: Healthy}
		if e, ok := r[player]; ok {
			item.Status, item.Injured = e.Display(), true
		} else if want := roster.Normalize(player); want != "" {
			for _, name := range names {
				if strings.Contains(roster.Normalize(name), want) {
					item.Status, item.Injured = r[name].Display(), true
					break
				}
			}
		}
		out = append(out, item)
	}
	return out
}
