// Package assistant hands the engine's output to the chat assistant: the
// context payload, an Anthropic chat sink and an MCP tool surface.
package assistant

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fortuna/courtvision/internal/engine"
	"github.com/fortuna/courtvision/internal/schedule"
	"github.com/fortuna/courtvision/internal/trend"
)

// Context is everything the assistant is told about today's slate. It
// carries data only; wording is left to the model.
type Context struct {
	Season      string            `json:"season"`
	GeneratedAt time.Time         `json:"generated_at"`
	Trends      []trend.Record    `json:"trends"`
	Injuries    map[string]string `json:"injuries"`
	Schedule    schedule.Index    `json:"schedule"`
	Unavailable []string          `json:"unavailable,omitempty"`
}

// FromSnapshot builds the payload from one pipeline pass.
func FromSnapshot(s engine.Snapshot) Context {
	c := Context{
		Season:      s.Season,
		GeneratedAt: s.GeneratedAt,
		Trends:      s.Trends,
		Injuries:    s.Injuries,
		Schedule:    s.Schedule,
		Unavailable: s.Unavailable,
	}
	if c.Trends == nil {
		c.Trends = []trend.Record{}
	}
	if c.Injuries == nil {
		c.Injuries = map[string]string{}
	}
	if c.Schedule == nil {
		c.Schedule = schedule.Index{}
	}
	return c
}

// JSON serialises the payload compactly.
func (c Context) JSON() ([]byte, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode assistant context: %w", err)
	}
	return b, nil
}

const systemPreamble = `You are CourtVision, an NBA analyst helping a user pick players for today's slate.
Answer only from the data below. Trends compare each player's recent average with the season average;
"delta" is recent minus season. Matchup says how generous tonight's opponent defense is.
Injuries map player names to their reported status. Schedule maps team ids to tonight's opponent.
If a source is listed under "unavailable", say that its data is missing instead of guessing.`

// SystemPrompt joins the fixed preamble and the serialised payload.
func (c Context) SystemPrompt() (string, error) {
	b, err := c.JSON()
	if err != nil {
		return "", err
	}
	return systemPreamble + "\n\nDATA:\n" + string(b), nil
}
