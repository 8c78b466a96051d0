// Package season derives NBA season identifiers from calendar dates.
package season

import (
	"fmt"
	"time"
)

// RolloverMonth is the first month of a new season. Games played from
// October onward belong to the season that starts that calendar year.
const RolloverMonth = time.October

// Current returns the season identifier ("2024-25") that contains now.
func Current(now time.Time) string {
	start := now.Year()
	if now.Month() < RolloverMonth {
		start--
	}
	return Format(start)
}

// Format renders the season that starts in startYear.
func Format(startYear int) string {
	return fmt.Sprintf("%d-%02d", startYear, (startYear+1)%100)
}

// Resolve returns override when it is set, otherwise the season containing now.
func Resolve(override string, now time.Time) string {
	if override != "" {
		return override
	}
	return Current(now)
}
