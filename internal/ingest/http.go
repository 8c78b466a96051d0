// Package ingest holds the plumbing shared by the upstream feed clients.
package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// UserAgent is sent by every client; several providers reject Go's default.
const UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// maxBody caps how much of a response is read.
const maxBody = 16 << 20

// NewBreaker returns a circuit breaker that opens after threshold
// consecutive failures and probes again after a minute.
func NewBreaker(name string, threshold int, log *logrus.Entry) *gobreaker.CircuitBreaker {
	if threshold <= 0 {
		threshold = 5
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    5 * time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(threshold)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if log == nil {
				return
			}
			log.WithFields(logrus.Fields{
				"breaker":    name,
				"from_state": from.String(),
				"to_state":   to.String(),
			}).Warn("Upstream circuit breaker state changed")
		},
	})
}

// StatusError is returned for non-2xx upstream responses.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s returned status %d: %s", e.URL, e.StatusCode, e.Body)
}

// Get performs a GET through the breaker and returns the body of a 2xx
// response.
func Get(ctx context.Context, client *http.Client, cb *gobreaker.CircuitBreaker, url string, headers map[string]string) ([]byte, error) {
	out, err := cb.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("building request: %w", err)
		}
		req.Header.Set("User-Agent", UserAgent)
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
		if err != nil {
			return nil, fmt.Errorf("reading response: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &StatusError{URL: url, StatusCode: resp.StatusCode, Body: snippet(body)}
		}
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	return out.([]byte), nil
}

func snippet(body []byte) string {
	if len(body) > 200 {
		return string(body[:200])
	}
	return string(body)
}
