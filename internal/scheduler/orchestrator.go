package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/courtvision/internal/engine"
	"github.com/fortuna/courtvision/internal/logging"
)

// Source produces snapshots. *engine.Engine satisfies it
type Source interface {
	Snapshot(ctx context.Context) engine.Snapshot
	Refresh(ctx context.Context) error
}

// Sink receives every fresh snapshot
type Sink func(ctx context.Context, snap engine.Snapshot) error

// Pruner drops history older than a cutoff
type Pruner func(ctx context.Context, cutoff time.Time) (int64, error)

// Config holds scheduler configuration
type Config struct {
	WarmSchedule    string        // Default: every 10 minutes
	RefreshSchedule string        // Default: 09:00 daily, full invalidation
	PruneSchedule   string        // Default: 04:00 daily
	Retention       time.Duration // Default: 30 days
	JobTimeout      time.Duration // Default: 2m
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		WarmSchedule:    "*/10 * * * *",
		RefreshSchedule: "0 9 * * *",
		PruneSchedule:   "0 4 * * *",
		Retention:       30 * 24 * time.Hour,
		JobTimeout:      2 * time.Minute,
	}
}

// JobInfo reports a registered job
type JobInfo struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Schedule string    `json:"schedule"`
	LastRun  time.Time `json:"last_run,omitempty"`
	NextRun  time.Time `json:"next_run"`
	LastErr  string    `json:"last_error,omitempty"`
}

type namedSink struct {
	name string
	fn   Sink
}

// Orchestrator keeps the cache warm and fans snapshots out to sinks
type Orchestrator struct {
	source Source
	sinks  []namedSink
	prune  Pruner
	config Config
	cron   *cron.Cron
	log    *logrus.Entry
	now    func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	jobs     map[string]*JobInfo
	entryIDs map[cron.EntryID]string
	running  bool
}

// NewOrchestrator creates a new scheduler orchestrator
func NewOrchestrator(source Source, config Config, log *logrus.Logger) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	entry := logging.Component(log, "scheduler")
	return &Orchestrator{
		source:   source,
		config:   config,
		cron:     cron.New(cron.WithLogger(cron.VerbosePrintfLogger(entry))),
		log:      entry,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
		jobs:     make(map[string]*JobInfo),
		entryIDs: make(map[cron.EntryID]string),
	}
}

// AddSink registers a snapshot consumer. Sinks run in registration order
func (o *Orchestrator) AddSink(name string, sink Sink) {
	o.sinks = append(o.sinks, namedSink{name: name, fn: sink})
}

// SetPruner enables the history retention job
func (o *Orchestrator) SetPruner(p Pruner) {
	o.prune = p
}

// Start schedules the jobs and runs one warm pass immediately
func (o *Orchestrator) Start() error {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return fmt.Errorf("scheduler is already running")
	}

	if err := o.addJob("warm_snapshot", o.config.WarmSchedule, "Warm caches and publish snapshot", o.warmJob); err != nil {
		o.mu.Unlock()
		return err
	}
	if err := o.addJob("daily_refresh", o.config.RefreshSchedule, "Invalidate caches and rebuild", o.refreshJob); err != nil {
		o.mu.Unlock()
		return err
	}
	if o.prune != nil {
		if err := o.addJob("prune_history", o.config.PruneSchedule, "Prune snapshot history", o.pruneJob); err != nil {
			o.mu.Unlock()
			return err
		}
	}

	o.cron.Start()
	o.running = true
	o.mu.Unlock()

	o.log.WithField("jobs", len(o.cron.Entries())).Info("Scheduler started")
	go o.runJob("warm_snapshot", o.warmJob)
	return nil
}

// Stop waits briefly for running jobs and stops the scheduler
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.running {
		return
	}

	done := o.cron.Stop()
	select {
	case <-done.Done():
	case <-time.After(5 * time.Second):
		o.log.Warn("Scheduler stop timed out")
	}
	o.cancel()
	o.running = false
	o.log.Info("Scheduler stopped")
}

// Jobs returns a copy of the registered jobs
func (o *Orchestrator) Jobs() []JobInfo {
	o.mu.Lock()
	defer o.mu.Unlock()

	next := make(map[string]time.Time)
	for _, e := range o.cron.Entries() {
		next[o.entryIDs[e.ID]] = e.Next
	}

	out := make([]JobInfo, 0, len(o.jobs))
	for _, id := range []string{"warm_snapshot", "daily_refresh", "prune_history"} {
		if j, ok := o.jobs[id]; ok {
			info := *j
			info.NextRun = next[id]
			out = append(out, info)
		}
	}
	return out
}

func (o *Orchestrator) addJob(id, schedule, name string, job func(context.Context) error) error {
	entryID, err := o.cron.AddFunc(schedule, func() {
		o.runJob(id, job)
	})
	if err != nil {
		return fmt.Errorf("failed to add job %s: %w", id, err)
	}
	o.entryIDs[entryID] = id
	o.jobs[id] = &JobInfo{ID: id, Name: name, Schedule: schedule}
	return nil
}

func (o *Orchestrator) runJob(id string, job func(context.Context) error) {
	ctx, cancel := context.WithTimeout(o.ctx, o.config.JobTimeout)
	defer cancel()

	start := o.now()
	err := job(ctx)

	o.mu.Lock()
	if j, ok := o.jobs[id]; ok {
		j.LastRun = start
		j.LastErr = ""
		if err != nil {
			j.LastErr = err.Error()
		}
	}
	o.mu.Unlock()

	fields := logrus.Fields{"job": id, "duration": time.Since(start).String()}
	if err != nil {
		o.log.WithFields(fields).WithError(err).Warn("Job failed")
		return
	}
	o.log.WithFields(fields).Debug("Job finished")
}

func (o *Orchestrator) warmJob(ctx context.Context) error {
	_, err := o.WarmOnce(ctx)
	return err
}

func (o *Orchestrator) refreshJob(ctx context.Context) error {
	if err := o.source.Refresh(ctx); err != nil {
		o.log.WithError(err).Warn("Cache invalidation incomplete")
	}
	_, err := o.WarmOnce(ctx)
	return err
}

func (o *Orchestrator) pruneJob(ctx context.Context) error {
	n, err := o.prune(ctx, o.now().Add(-o.config.Retention))
	if err != nil {
		return err
	}
	o.log.WithField("deleted", n).Info("Pruned snapshot history")
	return nil
}

// WarmOnce builds a snapshot and hands it to every sink. A failing sink
// does not stop the others; the first sink error is returned
func (o *Orchestrator) WarmOnce(ctx context.Context) (engine.Snapshot, error) {
	snap := o.source.Snapshot(ctx)
	o.log.WithFields(logrus.Fields{
		"season":      snap.Season,
		"records":     len(snap.Trends),
		"unavailable": snap.Unavailable,
	}).Info("Snapshot built")

	var first error
	for _, s := range o.sinks {
		if err := s.fn(ctx, snap); err != nil {
			o.log.WithField("sink", s.name).WithError(err).Warn("Snapshot sink failed")
			if first == nil {
				first = fmt.Errorf("sink %s: %w", s.name, err)
			}
		}
	}
	return snap, first
}
