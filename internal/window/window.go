package window

import (
	"time"

	"github.com/jaxxstorm/rollovermon/internal/model"
)

// Start truncates t down to the nearest multiple of width since the Unix
// epoch. The result is in UTC.
func Start(t time.Time, width time.Duration) (time.Time, error) {
	if err := Validate(width); err != nil {
		return time.Time{}, err
	}
	return start(t, width), nil
}

// StartFrom truncates t down to the nearest multiple of width since anchor.
// A zero anchor means the Unix epoch.
func StartFrom(anchor, t time.Time, width time.Duration) (time.Time, error) {
	if err := Validate(width); err != nil {
		return time.Time{}, err
	}
	if anchor.IsZero() {
		return start(t, width), nil
	}
	rem := t.Sub(anchor) % width
	if rem < 0 {
		rem += width
	}
	return t.Add(-rem).UTC(), nil
}

// Range returns the start of every window of [from, to), anchored at from.
// That is ceil((to-from)/width) windows, the first starting at from.
func Range(from, to time.Time, width time.Duration) ([]time.Time, error) {
	if err := Validate(width); err != nil {
		return nil, err
	}
	out := []time.Time{}
	for ws := from.UTC(); ws.Before(to); ws = ws.Add(width) {
		out = append(out, ws)
	}
	return out, nil
}

func start(t time.Time, width time.Duration) time.Time {
	ns := t.UnixNano()
	w := int64(width)
	rem := ns % w
	if rem < 0 {
		rem += w
	}
	return time.Unix(0, ns-rem).UTC()
}

// Validate fails with a ConfigurationError unless width is positive.
func Validate(width time.Duration) error {
	if width <= 0 {
		return &model.ConfigurationError{Field: "window width", Reason: "must be a positive duration, got " + width.String()}
	}
	return nil
}
