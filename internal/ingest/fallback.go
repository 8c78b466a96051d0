package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/courtvision/internal/feeds"
	"github.com/fortuna/courtvision/internal/logging"
)

// FallbackSchedule asks the primary schedule feed first and the fallback
// when the primary fails or reports no games for the date.
type FallbackSchedule struct {
	primary      feeds.ScheduleFeed
	fallback     feeds.ScheduleFeed
	primaryName  string
	fallbackName string
	log          *logrus.Entry
}

// NewFallbackSchedule creates a schedule feed with failover. A nil fallback
// makes it a pass-through.
func NewFallbackSchedule(primaryName string, primary feeds.ScheduleFeed, fallbackName string, fallback feeds.ScheduleFeed, log *logrus.Logger) *FallbackSchedule {
	return &FallbackSchedule{
		primary:      primary,
		fallback:     fallback,
		primaryName:  primaryName,
		fallbackName: fallbackName,
		log:          logging.Component(log, "schedule_feed"),
	}
}

// FetchSchedule implements feeds.ScheduleFeed.
func (f *FallbackSchedule) FetchSchedule(ctx context.Context, date time.Time) ([]feeds.GamePair, error) {
	games, primaryErr := f.primary.FetchSchedule(ctx, date)
	if primaryErr == nil && (len(games) > 0 || f.fallback == nil) {
		return games, nil
	}
	if f.fallback == nil {
		return nil, primaryErr
	}

	fields := logrus.Fields{"date": date.Format("2006-01-02"), "primary": f.primaryName, "fallback": f.fallbackName}
	if primaryErr != nil {
		f.log.WithFields(fields).WithError(primaryErr).Warn("Primary schedule feed failed, falling back")
	} else {
		f.log.WithFields(fields).Debug("Primary schedule feed empty, checking fallback")
	}

	backup, fallbackErr := f.fallback.FetchSchedule(ctx, date)
	if fallbackErr != nil {
		if primaryErr == nil {
			// An empty primary answer stands when the fallback is down.
			return games, nil
		}
		return nil, errors.Join(primaryErr, fallbackErr)
	}
	return backup, nil
}
