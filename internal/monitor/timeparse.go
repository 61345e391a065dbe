package monitor

import (
	"fmt"
	"strings"
	"time"
)

// TimeLayout is the minute-precision format accepted for range bounds.
const TimeLayout = "2006-01-02 15:04"

// ParseTime accepts RFC 3339 or TimeLayout (read as UTC). The empty string
// yields the zero time.
func ParseTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation(TimeLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("time must be RFC 3339 or %q: %q", TimeLayout, value)
	}
	return t, nil
}
