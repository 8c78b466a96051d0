package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/courtvision/internal/feeds"
	"github.com/fortuna/courtvision/internal/logging"
)

type stubSchedule struct {
	games []feeds.GamePair
	err   error
	calls int
}

func (s *stubSchedule) FetchSchedule(context.Context, time.Time) ([]feeds.GamePair, error) {
	s.calls++
	return s.games, s.err
}

var day = time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC)

func TestFallbackSchedule(t *testing.T) {
	game := []feeds.GamePair{{GameID: "g1", HomeTeamID: "1610612747", AwayTeamID: "1610612744"}}
	other := []feeds.GamePair{{GameID: "g2", HomeTeamID: "1610612738", AwayTeamID: "1610612752"}}

	tests := []struct {
		name          string
		primary       *stubSchedule
		fallback      *stubSchedule
		want          []feeds.GamePair
		wantErr       bool
		fallbackCalls int
	}{
		{"primary answers", &stubSchedule{games: game}, &stubSchedule{games: other}, game, false, 0},
		{"primary fails", &stubSchedule{err: errors.New("403")}, &stubSchedule{games: other}, other, false, 1},
		{"primary empty", &stubSchedule{}, &stubSchedule{games: other}, other, false, 1},
		{"primary empty and fallback down", &stubSchedule{}, &stubSchedule{err: errors.New("timeout")}, nil, false, 1},
		{"both fail", &stubSchedule{err: errors.New("403")}, &stubSchedule{err: errors.New("timeout")}, nil, true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFallbackSchedule("nba", tt.primary, "espn", tt.fallback, logging.Discard())
			got, err := f.FetchSchedule(context.Background(), day)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.fallbackCalls, tt.fallback.calls)
		})
	}
}

func TestFallbackScheduleWithoutFallback(t *testing.T) {
	f := NewFallbackSchedule("nba", &stubSchedule{err: errors.New("403")}, "", nil, logging.Discard())
	_, err := f.FetchSchedule(context.Background(), day)
	assert.Error(t, err)

	f = NewFallbackSchedule("nba", &stubSchedule{}, "", nil, logging.Discard())
	games, err := f.FetchSchedule(context.Background(), day)
	assert.NoError(t, err)
	assert.Empty(t, games)
}
