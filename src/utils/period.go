package utils

import (
	"fmt"
	"time"
)

// DefaultPeriod is used when a history pull does not specify one
const DefaultPeriod = time.Hour

// ValidPeriods defines the lookback windows a client may request
var ValidPeriods = map[string]time.Duration{
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
	"4h":  4 * time.Hour,
	"12h": 12 * time.Hour,
	"1d":  24 * time.Hour,
	"1w":  7 * 24 * time.Hour,
}

// -----------------------------------------------------------------------------

// ParsePeriod parses a period string into a duration
func ParsePeriod(periodStr string) (time.Duration, error) {
	if periodStr == "" {
		return DefaultPeriod, nil
	}

	if duration, exists := ValidPeriods[periodStr]; exists {
		return duration, nil
	}

	return 0, fmt.Errorf("invalid period %q", periodStr)
}

// -----------------------------------------------------------------------------

// PeriodRange returns the [from, to] timestamps covering one period back from now
func PeriodRange(period time.Duration) (time.Time, time.Time) {
	now := time.Now()
	return now.Add(-period), now
}
