// Package util provides shared duration helpers for telwatch.
package util

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// ParseDuration parses human-friendly duration strings.
// Supports: 500ms, 30s, 5m, 1h, 1d, 1w and standard Go durations (e.g., 1h30m).
func ParseDuration(s string) (time.Duration, error) {
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration: %s", s)
	}

	unit := s[len(s)-1]
	value, err := strconv.Atoi(s[:len(s)-1])
	if err != nil {
		// Not a simple unit, try standard Go duration
		return time.ParseDuration(s)
	}

	switch unit {
	case 's':
		return time.Duration(value) * time.Second, nil
	case 'm':
		return time.Duration(value) * time.Minute, nil
	case 'h':
		return time.Duration(value) * time.Hour, nil
	case 'd':
		return time.Duration(value) * 24 * time.Hour, nil
	case 'w':
		return time.Duration(value) * 7 * 24 * time.Hour, nil
	default:
		return time.ParseDuration(s)
	}
}

// ParseDurationWithDefault parses a duration string, treating a bare number
// as a count of defaultUnit. A warning naming flagName is printed to stderr
// when the bare form is used.
//
//	ParseDurationWithDefault("250ms", time.Millisecond, "interval") -> 250ms, no warning
//	ParseDurationWithDefault("250", time.Millisecond, "interval")   -> 250ms, warning printed
func ParseDurationWithDefault(s string, defaultUnit time.Duration, flagName string) (time.Duration, error) {
	if d, err := ParseDuration(s); err == nil {
		return d, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration: %s (use units like 500ms, 2s, 1m)", s)
	}

	unitName := suggestUnit(defaultUnit)
	fmt.Fprintf(os.Stderr, "Warning: bare number '%s' for --%s is interpreted as %s. Use explicit units: --%s=%d%s\n",
		s, flagName, unitName, flagName, n, unitName)

	return time.Duration(n) * defaultUnit, nil
}

// FormatClock renders d as zero-padded HH:MM:SS. Hours are not wrapped at
// 24 and negative durations render as 00:00:00.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// suggestUnit returns the short unit suffix for a time.Duration.
func suggestUnit(d time.Duration) string {
	switch d {
	case time.Millisecond:
		return "ms"
	case time.Second:
		return "s"
	case time.Minute:
		return "m"
	case time.Hour:
		return "h"
	default:
		return "s"
	}
}
