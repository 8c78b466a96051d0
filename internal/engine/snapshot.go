package engine

import (
	"context"
	"errors"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fortuna/courtvision/internal/feeds"
	"github.com/fortuna/courtvision/internal/injury"
	"github.com/fortuna/courtvision/internal/schedule"
	"github.com/fortuna/courtvision/internal/trend"
)

// Snapshot is one full pass of the pipeline: everything the dashboard and
// the assistant consume.
type Snapshot struct {
	Season      string             `json:"season"`
	GeneratedAt time.Time          `json:"generated_at"`
	Trends      []trend.Record     `json:"trends"`
	Injuries    map[string]string  `json:"injuries"`
	Schedule    schedule.Index     `json:"schedule"`
	Watch       []injury.WatchItem `json:"watch"`
	Unavailable []string           `json:"unavailable,omitempty"`
}

// Snapshot runs trends and injuries concurrently. Failures degrade the
// affected section and are listed in Unavailable; the snapshot is always
// complete in shape.
func (e *Engine) Snapshot(ctx context.Context) Snapshot {
	var (
		records                []trend.Record
		report                 injury.Report
		sched                  schedule.Index
		trendErr, injErr, sErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		records, trendErr = e.Trends(gctx)
		return nil
	})
	g.Go(func() error {
		report, injErr = e.Injuries(gctx)
		return nil
	})
	g.Go(func() error {
		sched, sErr = e.Schedule(gctx)
		return nil
	})
	_ = g.Wait()

	if records == nil {
		records = []trend.Record{}
	}
	if sched == nil {
		sched = schedule.Index{}
	}

	return Snapshot{
		Season:      e.Season(),
		GeneratedAt: e.now().UTC(),
		Trends:      records,
		Injuries:    report.Statuses(),
		Schedule:    sched,
		Watch:       report.Watch(e.opts.Watchlist),
		Unavailable: Unavailable(errors.Join(trendErr, injErr, sErr)),
	}
}

// Unavailable lists, once each and in order, the sources behind err.
func Unavailable(err error) []string {
	seen := make(map[string]struct{})
	var walk func(error)
	walk = func(err error) {
		if err == nil {
			return
		}
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range joined.Unwrap() {
				walk(e)
			}
			return
		}
		var fe *feeds.FetchError
		if errors.As(err, &fe) {
			seen[fe.Source] = struct{}{}
			return
		}
		seen[err.Error()] = struct{}{}
	}
	walk(err)

	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
