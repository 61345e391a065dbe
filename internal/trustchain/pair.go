package trustchain

import (
	"time"

	"github.com/jaxxstorm/rollovermon/internal/model"
	"github.com/jaxxstorm/rollovermon/internal/window"
)

// Instant is the state derived for one valid sample.
type Instant struct {
	Timestamp time.Time
	State     model.State
}

// ResolvePairs classifies every valid sample of a single vantage point and
// address family. Partner candidates are the bogus samples within
// ±opts.Combination of the valid sample that fall in the same window. The
// latest candidate at or before the valid sample is preferred, otherwise
// the earliest one after it. Equal timestamps resolve to the latest
// arrival. Valid samples without a candidate are unknown.
func ResolvePairs(samples []Sample, opts Options) ([]Instant, error) {
	opts = opts.withDefaults()
	if opts.Combination <= 0 {
		return nil, &model.ConfigurationError{Field: "combination window", Reason: "must be a positive duration, got " + opts.Combination.String()}
	}
	if err := window.Validate(opts.Width); err != nil {
		return nil, err
	}

	sorted := sortSamples(samples)
	bogus := make([]Sample, 0, len(sorted))
	for _, s := range sorted {
		if s.Label == model.LabelBogus {
			bogus = append(bogus, s)
		}
	}

	out := []Instant{}
	for _, valid := range sorted {
		if valid.Label != model.LabelValid {
			continue
		}
		ws, err := window.StartFrom(opts.Anchor, valid.Timestamp, opts.Width)
		if err != nil {
			return nil, err
		}
		state := model.StateUnknown
		if partner, ok := partnerOf(valid.Timestamp, bogus, ws, ws.Add(opts.Width), opts.Combination); ok {
			state = DefineState(valid.Outcome, partner.Outcome)
		}
		out = append(out, Instant{Timestamp: valid.Timestamp, State: state})
	}
	return out, nil
}

// partnerOf picks the bogus partner of a valid sample taken at ref from
// bogus, which is sorted by time in arrival order.
func partnerOf(ref time.Time, bogus []Sample, from, to time.Time, combination time.Duration) (Sample, bool) {
	var before, after *Sample
	for i := range bogus {
		c := &bogus[i]
		if c.Timestamp.Before(from) || !c.Timestamp.Before(to) || distance(c.Timestamp, ref) > combination {
			continue
		}
		if !c.Timestamp.After(ref) {
			if before == nil || !c.Timestamp.Before(before.Timestamp) {
				before = c
			}
			continue
		}
		if after == nil || !c.Timestamp.After(after.Timestamp) {
			after = c
		}
	}
	switch {
	case before != nil:
		return *before, true
	case after != nil:
		return *after, true
	}
	return Sample{}, false
}

func distance(a, b time.Time) time.Duration {
	d := a.Sub(b)
	if d < 0 {
		return -d
	}
	return d
}
