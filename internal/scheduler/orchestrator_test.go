package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/courtvision/internal/engine"
	"github.com/fortuna/courtvision/internal/logging"
	"github.com/fortuna/courtvision/internal/trend"
)

type fakeSource struct {
	mu        sync.Mutex
	snapshots int
	refreshes int
}

func (f *fakeSource) Snapshot(context.Context) engine.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots++
	return engine.Snapshot{Season: "2026-27", Trends: []trend.Record{{Player: "Hot Hand"}}}
}

func (f *fakeSource) Refresh(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	return nil
}

func (f *fakeSource) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshots, f.refreshes
}

func TestWarmOnceFansOutToEverySink(t *testing.T) {
	src := &fakeSource{}
	o := NewOrchestrator(src, DefaultConfig(), logging.Discard())

	var got []string
	o.AddSink("stream", func(_ context.Context, snap engine.Snapshot) error {
		got = append(got, "stream:"+snap.Season)
		return errors.New("redis down")
	})
	o.AddSink("websocket", func(_ context.Context, snap engine.Snapshot) error {
		got = append(got, "websocket:"+snap.Trends[0].Player)
		return nil
	})

	snap, err := o.WarmOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sink stream")
	assert.Equal(t, "2026-27", snap.Season)
	assert.Equal(t, []string{"stream:2026-27", "websocket:Hot Hand"}, got)
}

func TestRefreshJobInvalidatesThenWarms(t *testing.T) {
	src := &fakeSource{}
	o := NewOrchestrator(src, DefaultConfig(), logging.Discard())

	require.NoError(t, o.refreshJob(context.Background()))
	snaps, refreshes := src.counts()
	assert.Equal(t, 1, snaps)
	assert.Equal(t, 1, refreshes)
}

func TestPruneJobUsesRetention(t *testing.T) {
	o := NewOrchestrator(&fakeSource{}, DefaultConfig(), logging.Discard())
	now := time.Date(2026, 11, 30, 4, 0, 0, 0, time.UTC)
	o.now = func() time.Time { return now }

	var cutoff time.Time
	o.SetPruner(func(_ context.Context, c time.Time) (int64, error) {
		cutoff = c
		return 3, nil
	})
	require.NoError(t, o.pruneJob(context.Background()))
	assert.Equal(t, now.Add(-30*24*time.Hour), cutoff)
}

func TestStartRegistersJobs(t *testing.T) {
	src := &fakeSource{}
	o := NewOrchestrator(src, DefaultConfig(), logging.Discard())
	o.SetPruner(func(context.Context, time.Time) (int64, error) { return 0, nil })

	require.NoError(t, o.Start())
	defer o.Stop()
	assert.Error(t, o.Start())

	jobs := o.Jobs()
	require.Len(t, jobs, 3)
	assert.Equal(t, "warm_snapshot", jobs[0].ID)
	assert.Equal(t, "prune_history", jobs[2].ID)
	assert.False(t, jobs[0].NextRun.IsZero())

	assert.Eventually(t, func() bool {
		snaps, _ := src.counts()
		return snaps >= 1
	}, time.Second, 10*time.Millisecond, "warm pass runs on start")
}

func TestStartRejectsBadSchedule(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WarmSchedule = "every now and then"
	o := NewOrchestrator(&fakeSource{}, cfg, logging.Discard())
	assert.Error(t, o.Start())
}
