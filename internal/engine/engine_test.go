package engine

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/courtvision/internal/cache"
	"github.com/fortuna/courtvision/internal/feeds"
	"github.com/fortuna/courtvision/internal/logging"
	"github.com/fortuna/courtvision/internal/trend"
)

const (
	lakers   = "1610612747"
	warriors = "1610612744"
	celtics  = "1610612738"
)

// fakeFeeds serves every upstream from memory and counts calls.
type fakeFeeds struct {
	mu    sync.Mutex
	calls map[string]int

	roster   []feeds.PlayerTeamPair
	injuries []feeds.TableRow
	games    map[string][]feeds.GamePair
	ratings  []feeds.TeamRatingRow
	season   []feeds.PlayerStatRow
	recent   []feeds.PlayerStatRow
	logs     map[string][]feeds.GameLogRow

	failStats    bool
	failSchedule bool
	failInjuries bool
}

func (f *fakeFeeds) hit(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[name]++
}

func (f *fakeFeeds) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeFeeds) FetchRoster(context.Context) ([]feeds.PlayerTeamPair, error) {
	f.hit("roster")
	return f.roster, nil
}

func (f *fakeFeeds) FetchInjuryTables(context.Context) ([]feeds.TableRow, error) {
	f.hit("injuries")
	if f.failInjuries {
		return nil, errors.New("403")
	}
	return f.injuries, nil
}

func (f *fakeFeeds) FetchSchedule(_ context.Context, date time.Time) ([]feeds.GamePair, error) {
	f.hit("schedule")
	if f.failSchedule {
		return nil, errors.New("timeout")
	}
	return f.games[date.Format("2006-01-02")], nil
}

func (f *fakeFeeds) FetchDefenseRatings(context.Context, string) ([]feeds.TeamRatingRow, error) {
	f.hit("defense")
	return f.ratings, nil
}

func (f *fakeFeeds) FetchPlayerStats(_ context.Context, _ string, window feeds.Window) ([]feeds.PlayerStatRow, error) {
	f.hit("stats:" + string(window.Kind))
	if f.failStats {
		return nil, errors.New("stats.nba.com timed out")
	}
	if window.Kind == feeds.WindowLastN {
		return f.recent, nil
	}
	return f.season, nil
}

func (f *fakeFeeds) FetchGameLog(_ context.Context, playerID, _ string) ([]feeds.GameLogRow, error) {
	f.hit("gamelog")
	return f.logs[playerID], nil
}

func newFakeFeeds() *fakeFeeds {
	return &fakeFeeds{
		roster: []feeds.PlayerTeamPair{
			{PlayerID: "1", FullName: "Hot Hand", TeamCode: "LAL"},
			{PlayerID: "2", FullName: "Steady Eddie", TeamCode: "BOS"},
			{PlayerID: "3", FullName: "LeBron James", TeamCode: "LAL"},
		},
		injuries: []feeds.TableRow{
			{"Player": "L. JamesLeBron James", "Injury Status": "Out"},
		},
		games: map[string][]feeds.GamePair{
			"2026-11-02": {{GameID: "g1", HomeTeamID: lakers + ".0", AwayTeamID: warriors}},
		},
		ratings: []feeds.TeamRatingRow{{TeamID: warriors, TeamName: "Golden State Warriors", DefensiveRating: 118.0}},
		season: []feeds.PlayerStatRow{
			{PlayerID: "1", PlayerName: "Hot Hand", TeamID: lakers, TeamAbbreviation: "LAL", GamesPlayed: 10, Points: 20},
			{PlayerID: "2", PlayerName: "Steady Eddie", TeamID: celtics, TeamAbbreviation: "BOS", GamesPlayed: 10, Points: 15},
		},
		recent: []feeds.PlayerStatRow{
			{PlayerID: "1", PlayerName: "Hot Hand", TeamID: lakers, GamesPlayed: 5, Points: 26},
			{PlayerID: "2", PlayerName: "Steady Eddie", TeamID: celtics, GamesPlayed: 5, Points: 15.5},
		},
		logs: map[string][]feeds.GameLogRow{
			"1": {
				{GameID: "a", GameDate: time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC), Points: 30, Rebounds: 5, Assists: 5},
				{GameID: "b", GameDate: time.Date(2026, 10, 30, 0, 0, 0, 0, time.UTC), Points: 20, Rebounds: 5, Assists: 5},
			},
		},
	}
}

func newTestEngine(t *testing.T, f *fakeFeeds) *Engine {
	t.Helper()
	c, err := cache.New(64, nil, logging.Discard())
	require.NoError(t, err)

	clock := func() time.Time { return time.Date(2026, 11, 2, 18, 0, 0, 0, time.UTC) }
	c.WithClock(clock)

	opts := DefaultOptions()
	opts.Watchlist = []string{"LeBron James", "Stephen Curry"}
	return New(Feeds{Roster: f, Injuries: f, Schedule: f, Defense: f, Stats: f, GameLog: f}, c, opts, logging.Discard()).WithClock(clock)
}

func TestTrendsEndToEnd(t *testing.T) {
	f := newFakeFeeds()
	e := newTestEngine(t, f)

	records, err := e.Trends(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Hot Hand", records[0].Player)
	assert.InDelta(t, 6.0, records[0].Delta(), 1e-9)
	assert.Equal(t, trend.StatusSuperHot, records[0].Status)
	assert.Equal(t, trend.MatchupSoft, records[0].Matchup)

	assert.Equal(t, trend.StatusSteady, records[1].Status)
	assert.Equal(t, trend.MatchupNoGame, records[1].Matchup)
	assert.Equal(t, "2026-27", e.Season())
}

func TestTrendsAreCachedUntilRefresh(t *testing.T) {
	f := newFakeFeeds()
	e := newTestEngine(t, f)
	ctx := context.Background()

	first, err := e.Trends(ctx)
	require.NoError(t, err)
	second, err := e.Trends(ctx)
	require.NoError(t, err)

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	assert.Equal(t, string(a), string(b))
	assert.Equal(t, 1, f.count("stats:season"))
	assert.Equal(t, 2, f.count("schedule"), "one fetch per probe date")

	require.NoError(t, e.Refresh(ctx))
	f.recent[0].Points = 21

	third, err := e.Trends(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, f.count("stats:season"))
	require.Len(t, third, 2)
	assert.InDelta(t, 1.0, third[0].Delta(), 1e-9)

	var shapeA, shapeC []map[string]interface{}
	c, _ := json.Marshal(third)
	require.NoError(t, json.Unmarshal(a, &shapeA))
	require.NoError(t, json.Unmarshal(c, &shapeC))
	for k := range shapeA[0] {
		assert.Contains(t, shapeC[0], k)
	}
}

func TestTrendsStatsFailureIsEmptyAndNotCached(t *testing.T) {
	f := newFakeFeeds()
	f.failStats = true
	e := newTestEngine(t, f)
	ctx := context.Background()

	records, err := e.Trends(ctx)
	require.Error(t, err)
	assert.True(t, feeds.IsUnavailable(err))
	assert.NotNil(t, records)
	assert.Empty(t, records)

	f.failStats = false
	records, err = e.Trends(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestTrendsScheduleFailureDegrades(t *testing.T) {
	f := newFakeFeeds()
	f.failSchedule = true
	e := newTestEngine(t, f)

	records, err := e.Trends(context.Background())
	require.Error(t, err)
	require.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, trend.MatchupNoGame, r.Matchup)
	}
}

func TestSnapshot(t *testing.T) {
	f := newFakeFeeds()
	f.failInjuries = true
	e := newTestEngine(t, f)

	snap := e.Snapshot(context.Background())
	assert.Equal(t, "2026-27", snap.Season)
	assert.Len(t, snap.Trends, 2)
	assert.NotNil(t, snap.Injuries)
	assert.Empty(t, snap.Injuries)
	assert.Equal(t, warriors, snap.Schedule[lakers])
	assert.Equal(t, []string{"injuries"}, snap.Unavailable)
	require.Len(t, snap.Watch, 2)
	assert.Equal(t, "Healthy", snap.Watch[0].Status)
}

func TestInjuriesAndWatch(t *testing.T) {
	f := newFakeFeeds()
	e := newTestEngine(t, f)

	report, err := e.Injuries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"LeBron James": "Out (LAL)"}, report.Statuses())

	watch, err := e.Watch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Out (LAL)", watch[0].Status)
	assert.Equal(t, "Healthy", watch[1].Status)
}

func TestLeadersAndSearch(t *testing.T) {
	f := newFakeFeeds()
	e := newTestEngine(t, f)

	leaders, err := e.Leaders(context.Background())
	require.NoError(t, err)
	require.Len(t, leaders, 2)
	assert.Equal(t, "Hot Hand", leaders[0].Player)

	hits, err := e.Search(context.Background(), "lebron", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "LAL", hits[0].Team)
}

func TestDeepDive(t *testing.T) {
	f := newFakeFeeds()
	e := newTestEngine(t, f)
	ctx := context.Background()

	dive, err := e.DeepDive(ctx, "hot")
	require.NoError(t, err)
	assert.Equal(t, "Hot Hand", dive.Player)
	assert.InDelta(t, 35.0, dive.RecentPRA, 1e-9)
	assert.InDelta(t, 20.0, dive.SeasonPRA, 1e-9)
	assert.Equal(t, trend.FormHot, dive.Form)
	require.Len(t, dive.Chart, 2)
	assert.Equal(t, 30.0, dive.Chart[0].PRA, "chart runs oldest game first")

	_, err = e.DeepDive(ctx, "nobody at all")
	assert.ErrorIs(t, err, ErrPlayerNotFound)

	_, err = e.DeepDive(ctx, "steady")
	assert.ErrorIs(t, err, ErrNoGames)
}

func TestUnavailable(t *testing.T) {
	err := errors.Join(
		feeds.Unavailable("stats", "season", errors.New("x")),
		feeds.Unavailable("stats", "last_n", errors.New("y")),
		nil,
		feeds.Unavailable("defense", "fetch", errors.New("z")),
	)
	assert.Equal(t, []string{"defense", "stats"}, Unavailable(err))
	assert.Nil(t, Unavailable(nil))
}
