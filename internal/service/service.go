// Package service assembles the feeds, cache, engine and optional backing
// stores from configuration. Both binaries start from here.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/courtvision/internal/assistant"
	"github.com/fortuna/courtvision/internal/cache"
	"github.com/fortuna/courtvision/internal/config"
	"github.com/fortuna/courtvision/internal/engine"
	"github.com/fortuna/courtvision/internal/feeds"
	"github.com/fortuna/courtvision/internal/ingest"
	"github.com/fortuna/courtvision/internal/ingest/cbs"
	"github.com/fortuna/courtvision/internal/ingest/espn"
	"github.com/fortuna/courtvision/internal/ingest/nbastats"
	"github.com/fortuna/courtvision/internal/logging"
	"github.com/fortuna/courtvision/internal/publisher"
	"github.com/fortuna/courtvision/internal/store"
	"github.com/fortuna/courtvision/internal/store/repository"
)

// Version is reported by the health endpoint and the MCP server.
const Version = "1.0.0"

// Service holds every long-lived component. Redis, DB, Snapshots,
// Publisher and Chat are nil when not configured.
type Service struct {
	Config    *config.Config
	Engine    *engine.Engine
	Cache     *cache.Cache
	Redis     *cache.RedisStore
	DB        *store.Database
	Snapshots *repository.SnapshotRepository
	Publisher *publisher.RedisStreamPublisher
	Chat      *assistant.Chat

	closers []func()
	log     *logrus.Entry
}

// Options tune how much New connects to.
type Options struct {
	// SkipRedis keeps the cache in memory even when REDIS_URL is set.
	SkipRedis bool
	// SkipDatabase ignores DATABASE_URL.
	SkipDatabase bool
	// RedisAttempts bounds connection retries; 0 means one attempt.
	RedisAttempts int
	RedisDelay    time.Duration
}

// New builds the service. Optional backends that cannot be reached are
// logged and left nil; only invalid configuration is fatal.
func New(ctx context.Context, cfg *config.Config, opts Options, log *logrus.Logger) (*Service, error) {
	s := &Service{Config: cfg, log: logging.Component(log, "service")}

	if cfg.RedisURL != "" && !opts.SkipRedis {
		s.Redis = s.connectRedis(cfg.RedisURL, opts)
	}

	var shared cache.Store
	if s.Redis != nil {
		shared = s.Redis
		s.Publisher = publisher.NewRedisStreamPublisher(s.Redis.Client())
		s.closers = append(s.closers, func() { s.Redis.Close() })
	}

	c, err := cache.New(cfg.CacheCapacity, shared, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	s.Cache = c

	engineOpts, err := engine.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	nba := nbastats.New(cfg.NBAStatsBase, cfg.ExternalAPITimeout, cfg.CircuitBreakerThreshold, log)
	f := engine.Feeds{
		Roster:   nba,
		Injuries: s.injuryFeed(cfg, log),
		Schedule: scheduleFeed(cfg, nba, log),
		Defense:  nba,
		Stats:    nba,
		GameLog:  nba,
	}
	s.Engine = engine.New(f, c, engineOpts, log)
	nba.WithSeason(s.Engine.Season)

	if cfg.DatabaseURL != "" && !opts.SkipDatabase {
		if err := s.connectDatabase(ctx, cfg.DatabaseURL, log); err != nil {
			s.log.WithError(err).Warn("Snapshot history disabled")
		}
	}

	if cfg.AnthropicAPIKey != "" {
		chat, err := assistant.NewChat(cfg.AnthropicAPIKey, cfg.AssistantModel, log)
		if err != nil {
			return nil, err
		}
		s.Chat = chat
	}

	s.log.WithFields(logrus.Fields{
		"season":          s.Engine.Season(),
		"redis":           s.Redis != nil,
		"database":        s.DB != nil,
		"assistant":       s.Chat != nil,
		"schedule_source": cfg.ScheduleSource,
		"injury_mode":     cfg.InjuryFetchMode,
	}).Info("Service assembled")
	return s, nil
}

func (s *Service) connectRedis(url string, opts Options) *cache.RedisStore {
	attempts := opts.RedisAttempts
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		rs, err := cache.NewRedisStore(url)
		if err == nil {
			s.log.Info("Connected to Redis")
			return rs
		}
		if i < attempts-1 {
			s.log.WithError(err).WithField("attempt", i+1).Warn("Redis connection failed, retrying")
			time.Sleep(opts.RedisDelay)
			continue
		}
		s.log.WithError(err).Warn("Redis unavailable, cache stays in memory")
	}
	return nil
}

func (s *Service) connectDatabase(ctx context.Context, dsn string, log *logrus.Logger) error {
	db, err := store.NewDatabase(dsn, log)
	if err != nil {
		return err
	}
	if err := db.RunMigrations(ctx); err != nil {
		db.Close()
		return err
	}
	s.DB = db
	s.Snapshots = repository.NewSnapshotRepository(db)
	s.closers = append(s.closers, func() { db.Close() })
	return nil
}

func (s *Service) injuryFeed(cfg *config.Config, log *logrus.Logger) feeds.InjuryFeed {
	var fetcher cbs.Fetcher
	if cfg.InjuryFetchMode == "browser" {
		browser := cbs.NewBrowserFetcher(cfg.ExternalAPITimeout*2, log)
		s.closers = append(s.closers, browser.Close)
		fetcher = browser
	} else {
		fetcher = cbs.NewHTTPFetcher(cfg.ExternalAPITimeout, cfg.CircuitBreakerThreshold, log)
	}
	return cbs.New(cfg.InjuryURL, fetcher, log)
}

func scheduleFeed(cfg *config.Config, nba *nbastats.Client, log *logrus.Logger) feeds.ScheduleFeed {
	scoreboard := espn.New(cfg.ESPNAPIBase, cfg.ExternalAPITimeout, cfg.CircuitBreakerThreshold, log)
	if cfg.ScheduleSource == "espn" {
		return ingest.NewFallbackSchedule("espn", scoreboard, "nba", nba, log)
	}
	return ingest.NewFallbackSchedule("nba", nba, "espn", scoreboard, log)
}

// Persist appends a snapshot to history. It is a no-op without a database.
func (s *Service) Persist(ctx context.Context, snap engine.Snapshot) error {
	if s.Snapshots == nil {
		return nil
	}
	id, err := s.Snapshots.Insert(ctx, snap)
	if err != nil {
		return err
	}
	s.log.WithField("snapshot_id", id).Debug("Snapshot stored")
	return nil
}

// Publish appends a snapshot to the Redis stream. It is a no-op without Redis.
func (s *Service) Publish(ctx context.Context, snap engine.Snapshot) error {
	if s.Publisher == nil {
		return nil
	}
	_, err := s.Publisher.PublishSnapshot(ctx, snap)
	return err
}

// Health returns the checks the health endpoint runs.
func (s *Service) Health() map[string]func() error {
	checks := map[string]func() error{}
	if s.Redis != nil {
		checks["redis"] = func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return s.Redis.HealthCheck(ctx)
		}
	}
	if s.DB != nil {
		checks["postgres"] = s.DB.HealthCheck
	}
	return checks
}

// Close releases connections in reverse order of acquisition.
func (s *Service) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
