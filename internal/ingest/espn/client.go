// Package espn reads the ESPN scoreboard as an alternate schedule feed.
package espn

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/fortuna/courtvision/internal/feeds"
	"github.com/fortuna/courtvision/internal/ingest"
	"github.com/fortuna/courtvision/internal/logging"
)

const (
	BaseURL       = "https://site.api.espn.com/apis/site/v2/sports"
	BasketballNBA = "basketball/nba"
)

// Client handles ESPN API requests.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	log     *logrus.Entry
}

// New creates a new ESPN API client with a custom base URL.
func New(baseURL string, timeout time.Duration, breakerThreshold int, log *logrus.Logger) *Client {
	if baseURL == "" {
		baseURL = BaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	entry := logging.Component(log, "espn")
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		breaker: ingest.NewBreaker("espn", breakerThreshold, entry),
		log:     entry,
	}
}

// WithHTTPClient replaces the transport. Used by tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

// FetchScoreboard fetches the board for date. A zero date asks for the
// provider's own notion of today.
func (c *Client) FetchScoreboard(ctx context.Context, sportPath string, date time.Time) (*Scoreboard, error) {
	url := fmt.Sprintf("%s/%s/scoreboard", c.baseURL, sportPath)
	if !date.IsZero() {
		url += "?dates=" + date.Format("20060102")
	}

	body, err := ingest.Get(ctx, c.http, c.breaker, url, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, err
	}
	// Blocked requests come back as an HTML page with a 200.
	if len(body) > 0 && body[0] == '<' {
		return nil, fmt.Errorf("ESPN returned HTML error page: %s", string(body[:min(len(body), 200)]))
	}

	var board Scoreboard
	if err := json.Unmarshal(body, &board); err != nil {
		return nil, fmt.Errorf("decoding scoreboard: %w", err)
	}
	return &board, nil
}

// FetchSchedule returns the NBA games ESPN lists for date, keyed by
// canonical team IDs.
func (c *Client) FetchSchedule(ctx context.Context, date time.Time) ([]feeds.GamePair, error) {
	board, err := c.FetchScoreboard(ctx, BasketballNBA, date)
	if err != nil {
		return nil, err
	}

	games, skipped := board.Games()
	for _, err := range skipped {
		c.log.WithError(err).Warn("Skipping scoreboard event")
	}

	pairs := make([]feeds.GamePair, 0, len(games))
	for _, g := range games {
		pair, err := g.GamePair()
		if err != nil {
			c.log.WithError(err).WithField("event_id", g.EventID).Warn("Skipping unmapped game")
			continue
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}
