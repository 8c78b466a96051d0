package season

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCurrent(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{"opening week", time.Date(2024, time.October, 22, 12, 0, 0, 0, time.UTC), "2024-25"},
		{"first of october", time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC), "2024-25"},
		{"last day of september", time.Date(2024, time.September, 30, 23, 59, 0, 0, time.UTC), "2023-24"},
		{"new year", time.Date(2025, time.January, 3, 9, 0, 0, 0, time.UTC), "2024-25"},
		{"playoffs", time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC), "2024-25"},
		{"century rollover", time.Date(2099, time.November, 1, 0, 0, 0, 0, time.UTC), "2099-00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Current(tt.now))
		})
	}
}

func TestResolve(t *testing.T) {
	now := time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-27", Resolve("", now))
	assert.Equal(t, "2023-24", Resolve("2023-24", now))
}
