// Package engine wires the feeds, the trend components and the freshness
// cache into the operations the service exposes.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/fortuna/courtvision/internal/cache"
	"github.com/fortuna/courtvision/internal/defense"
	"github.com/fortuna/courtvision/internal/feeds"
	"github.com/fortuna/courtvision/internal/injury"
	"github.com/fortuna/courtvision/internal/logging"
	"github.com/fortuna/courtvision/internal/roster"
	"github.com/fortuna/courtvision/internal/schedule"
	"github.com/fortuna/courtvision/internal/season"
	"github.com/fortuna/courtvision/internal/trend"
)

// Feeds are the upstream providers.
type Feeds struct {
	Roster   feeds.RosterFeed
	Injuries feeds.InjuryFeed
	Schedule feeds.ScheduleFeed
	Defense  feeds.DefenseFeed
	Stats    feeds.StatsFeed
	GameLog  feeds.GameLogFeed
}

// Engine produces trend snapshots from the feeds.
type Engine struct {
	feeds Feeds
	opts  Options
	cache *cache.Cache

	roster   *roster.Resolver
	injuries *injury.Normalizer
	schedule *schedule.Builder
	defense  *defense.Builder

	now func() time.Time
	log *logrus.Entry
}

// New creates an engine.
func New(f Feeds, c *cache.Cache, opts Options, log *logrus.Logger) *Engine {
	return &Engine{
		feeds:    f,
		opts:     opts,
		cache:    c,
		roster:   roster.NewResolver(f.Roster, log),
		injuries: injury.NewNormalizer(f.Injuries, log),
		schedule: schedule.NewBuilder(f.Schedule, opts.ScheduleUTCOffset, log),
		defense:  defense.NewBuilder(f.Defense, opts.NeutralRating, log),
		now:      time.Now,
		log:      logging.Component(log, "engine"),
	}
}

// WithClock replaces the wall clock. Used by tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	e.schedule.WithClock(now)
	return e
}

// Options returns the engine's options.
func (e *Engine) Options() Options {
	return e.opts
}

// Season is the season identifier in effect now.
func (e *Engine) Season() string {
	return season.Resolve(e.opts.Season, e.now())
}

// Roster returns the canonical roster.
func (e *Engine) Roster(ctx context.Context) (roster.Roster, error) {
	return cache.Cached(ctx, e.cache, "roster", e.opts.TTL.Roster, e.roster.Resolve)
}

// Injuries returns the injury report. An unavailable roster degrades
// matching but does not stop the report.
func (e *Engine) Injuries(ctx context.Context) (injury.Report, error) {
	return cache.Cached(ctx, e.cache, "injuries", e.opts.TTL.Injuries, func(ctx context.Context) (injury.Report, error) {
		r, rosterErr := e.Roster(ctx)
		report, err := e.injuries.Build(ctx, r)
		if err != nil {
			return report, err
		}
		return report, rosterErr
	})
}

// Watch reports the injury status of the watchlist.
func (e *Engine) Watch(ctx context.Context) ([]injury.WatchItem, error) {
	report, err := e.Injuries(ctx)
	return report.Watch(e.opts.Watchlist), err
}

// Schedule returns today's opponent index.
func (e *Engine) Schedule(ctx context.Context) (schedule.Index, error) {
	key := "schedule:" + e.schedule.ProbeDates()[0].Format("2006-01-02")
	return cache.Cached(ctx, e.cache, key, e.opts.TTL.Schedule, e.schedule.Today)
}

// Defense returns the defensive rating table for the current season.
func (e *Engine) Defense(ctx context.Context) (defense.Table, error) {
	s := e.Season()
	return cache.Cached(ctx, e.cache, "defense:"+s, e.opts.TTL.Defense, func(ctx context.Context) (defense.Table, error) {
		return e.defense.Ratings(ctx, s)
	})
}

// Stats returns player statistics for a window of the current season. A
// failure yields an empty slice and a *feeds.FetchError.
func (e *Engine) Stats(ctx context.Context, window feeds.Window) ([]feeds.PlayerStatRow, error) {
	s := e.Season()
	key := fmt.Sprintf("stats:%s:%s:%d", s, window.Kind, window.Games)
	return cache.Cached(ctx, e.cache, key, e.opts.TTL.Trends, func(ctx context.Context) ([]feeds.PlayerStatRow, error) {
		rows, err := e.feeds.Stats.FetchPlayerStats(ctx, s, window)
		if err != nil {
			e.log.WithError(err).WithField("window", window.Kind).Warn("Stats feed unavailable")
			return []feeds.PlayerStatRow{}, feeds.Unavailable("stats", string(window.Kind), err)
		}
		return rows, nil
	})
}

// Trends returns the ranked trend table. All four inputs are fetched
// concurrently and the join runs only once every one has settled. When the
// stats feed fails the table is empty; schedule and defense failures fall
// back to their degraded values. Any failure is reported and keeps the
// result out of the cache.
func (e *Engine) Trends(ctx context.Context) ([]trend.Record, error) {
	return cache.Cached(ctx, e.cache, "trends:"+e.Season(), e.opts.TTL.Trends, e.computeTrends)
}

func (e *Engine) computeTrends(ctx context.Context) ([]trend.Record, error) {
	var (
		seasonRows, recentRows []feeds.PlayerStatRow
		sched                  schedule.Index
		def                    defense.Table
		seasonErr, recentErr   error
		schedErr, defErr       error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		seasonRows, seasonErr = e.Stats(gctx, feeds.SeasonWindow())
		return nil
	})
	g.Go(func() error {
		recentRows, recentErr = e.Stats(gctx, feeds.LastN(e.opts.LastN))
		return nil
	})
	g.Go(func() error {
		sched, schedErr = e.Schedule(gctx)
		return nil
	})
	g.Go(func() error {
		def, defErr = e.Defense(gctx)
		return nil
	})
	_ = g.Wait()

	if err := errors.Join(seasonErr, recentErr); err != nil {
		return []trend.Record{}, err
	}

	records, cov := trend.Compute(seasonRows, recentRows, sched, def, e.opts.Policy)
	e.log.WithFields(logrus.Fields{
		"season":           e.Season(),
		"records":          len(records),
		"below_min_games":  cov.BelowMinGames,
		"unmatched_season": cov.UnmatchedSeason,
		"unmatched_recent": cov.UnmatchedRecent,
		"games_today":      sched.Games(),
	}).Info("Trends computed")
	return records, errors.Join(schedErr, defErr)
}

// Leaders returns the season's top scorers.
func (e *Engine) Leaders(ctx context.Context) ([]trend.Leader, error) {
	rows, err := e.Stats(ctx, feeds.SeasonWindow())
	return trend.Leaders(rows, e.opts.LeadersLimit), err
}

// Search finds rostered players matching a free-text query.
func (e *Engine) Search(ctx context.Context, query string, limit int) ([]roster.Match, error) {
	r, err := e.Roster(ctx)
	return roster.NewMatcher(r).Search(query, limit), err
}

// Refresh drops every cached value so the next read goes upstream.
func (e *Engine) Refresh(ctx context.Context) error {
	return e.cache.Invalidate(ctx)
}
