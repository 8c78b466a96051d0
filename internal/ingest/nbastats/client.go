// Package nbastats reads rosters, stat windows, team ratings, scoreboards
// and game logs from stats.nba.com.
package nbastats

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/fortuna/courtvision/internal/ingest"
	"github.com/fortuna/courtvision/internal/logging"
	"github.com/fortuna/courtvision/internal/season"
)

const (
	DefaultBaseURL = "https://stats.nba.com/stats"
	LeagueID       = "00"
	RegularSeason  = "Regular Season"
)

// stats.nba.com drops requests that do not look like they come from nba.com.
var browserHeaders = map[string]string{
	"Accept":             "application/json, text/plain, */*",
	"Accept-Language":    "en-US,en;q=0.9",
	"Origin":             "https://www.nba.com",
	"Referer":            "https://www.nba.com/",
	"x-nba-stats-origin": "stats",
	"x-nba-stats-token":  "true",
}

// Client handles stats.nba.com requests.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	season  func() string
	log     *logrus.Entry
}

// New creates a client. An empty baseURL selects DefaultBaseURL.
func New(baseURL string, timeout time.Duration, breakerThreshold int, log *logrus.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	entry := logging.Component(log, "nbastats")
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		breaker: ingest.NewBreaker("nbastats", breakerThreshold, entry),
		season:  func() string { return season.Current(time.Now()) },
		log:     entry,
	}
}

// WithSeason fixes the season used by calls that take none, such as the
// roster.
func (c *Client) WithSeason(fn func() string) *Client {
	c.season = fn
	return c
}

// WithHTTPClient replaces the transport. Used by tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

// resultSet is the tabular payload every stats endpoint returns.
type resultSet struct {
	Name    string          `json:"name"`
	Headers []string        `json:"headers"`
	RowSet  [][]interface{} `json:"rowSet"`
}

type response struct {
	ResultSets []resultSet `json:"resultSets"`
	ResultSet  *resultSet  `json:"resultSet"`
}

// set returns the named result set, or the first one when name is empty.
func (r response) set(name string) (resultSet, bool) {
	sets := r.ResultSets
	if r.ResultSet != nil {
		sets = append(sets, *r.ResultSet)
	}
	for _, s := range sets {
		if name == "" || strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return resultSet{}, false
}

// records zips headers with each row.
func (s resultSet) records() []record {
	out := make([]record, 0, len(s.RowSet))
	for _, row := range s.RowSet {
		rec := make(record, len(s.Headers))
		for i, h := range s.Headers {
			if i < len(row) {
				rec[strings.ToUpper(h)] = row[i]
			}
		}
		out = append(out, rec)
	}
	return out
}

// fetch GETs endpoint with params and decodes the named result set.
func (c *Client) fetch(ctx context.Context, endpoint string, params url.Values, set string) ([]record, error) {
	u := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode())

	started := time.Now()
	body, err := ingest.Get(ctx, c.http, c.breaker, u, browserHeaders)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}

	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", endpoint, err)
	}
	rs, ok := resp.set(set)
	if !ok {
		return nil, fmt.Errorf("%s: result set %q missing", endpoint, set)
	}

	c.log.WithFields(logrus.Fields{
		"endpoint": endpoint,
		"rows":     len(rs.RowSet),
		"duration": time.Since(started).String(),
	}).Debug("Fetched stats endpoint")
	return rs.records(), nil
}
