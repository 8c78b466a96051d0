// Package cbs scrapes the league injury report page.
package cbs

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/fortuna/courtvision/internal/feeds"
	"github.com/fortuna/courtvision/internal/ingest"
	"github.com/fortuna/courtvision/internal/logging"
)

// DefaultURL is the injury report page.
const DefaultURL = "https://www.cbssports.com/nba/injuries/"

// Fetcher returns the rendered HTML of a page.
type Fetcher interface {
	FetchHTML(ctx context.Context, url string) (string, error)
}

// HTTPFetcher fetches pages with a plain GET.
type HTTPFetcher struct {
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewHTTPFetcher creates a plain HTTP fetcher.
func NewHTTPFetcher(timeout time.Duration, breakerThreshold int, log *logrus.Logger) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPFetcher{
		http:    &http.Client{Timeout: timeout},
		breaker: ingest.NewBreaker("cbs", breakerThreshold, logging.Component(log, "cbs")),
	}
}

// FetchHTML implements Fetcher.
func (f *HTTPFetcher) FetchHTML(ctx context.Context, url string) (string, error) {
	body, err := ingest.Get(ctx, f.http, f.breaker, url, map[string]string{"Accept": "text/html"})
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Client reads injury tables through a Fetcher.
type Client struct {
	url     string
	fetcher Fetcher
	log     *logrus.Entry
}

// New creates an injury client for url. An empty url selects DefaultURL.
func New(url string, fetcher Fetcher, log *logrus.Logger) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{url: url, fetcher: fetcher, log: logging.Component(log, "cbs")}
}

// FetchInjuryTables implements feeds.InjuryFeed.
func (c *Client) FetchInjuryTables(ctx context.Context) ([]feeds.TableRow, error) {
	html, err := c.fetcher.FetchHTML(ctx, c.url)
	if err != nil {
		return nil, fmt.Errorf("fetching injury page: %w", err)
	}

	doc, err := ParseHTML(html)
	if err != nil {
		return nil, err
	}
	rows, err := ParseInjuryTables(doc)
	if err != nil {
		return nil, err
	}

	c.log.WithField("rows", len(rows)).Debug("Parsed injury tables")
	return rows, nil
}
