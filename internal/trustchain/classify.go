package trustchain

import (
	"sort"
	"time"

	"github.com/jaxxstorm/rollovermon/internal/model"
	"github.com/jaxxstorm/rollovermon/internal/window"
)

type Options struct {
	// Width of a trust-chain window, twice the DNSKEY TTL.
	Width time.Duration
	// Combination is the pairing neighbourhood used in ModePair.
	Combination time.Duration
	Mode        Mode
	// Anchor is where windows start, usually the start of the requested
	// range. The zero value anchors windows at the Unix epoch.
	Anchor time.Time
}

// withDefaults fills Mode and lets Width and Combination stand in for each
// other when only one is set.
func (o Options) withDefaults() Options {
	if o.Mode == "" {
		o.Mode = ModeWindow
	}
	if o.Combination == 0 {
		o.Combination = o.Width
	}
	if o.Width == 0 {
		o.Width = o.Combination
	}
	return o
}

// Result is the state of one vantage point and family in one window.
type Result struct {
	VantagePoint string
	Family       model.Family
	Window       time.Time
	State        model.State
	Inconsistent bool
}

type seriesKey struct {
	vantagePoint string
	family       model.Family
}

// Classify reduces samples to at most one Result per vantage point, family
// and window. Vantage points without a valid sample in a window are left
// out of that window.
func Classify(samples []Sample, opts Options) ([]Result, error) {
	if err := window.Validate(opts.Width); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	groups := map[seriesKey][]Sample{}
	for _, s := range samples {
		key := seriesKey{vantagePoint: s.VantagePoint, family: s.Family}
		groups[key] = append(groups[key], s)
	}

	out := []Result{}
	for key, group := range groups {
		var results []Result
		var err error
		switch opts.Mode {
		case ModePair:
			results, err = classifyPairs(key, group, opts)
		default:
			results, err = classifyWindows(key, group, opts)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, results...)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Window.Equal(out[j].Window) {
			return out[i].Window.Before(out[j].Window)
		}
		if out[i].Family != out[j].Family {
			return out[i].Family < out[j].Family
		}
		return out[i].VantagePoint < out[j].VantagePoint
	})
	return out, nil
}

func classifyWindows(key seriesKey, group []Sample, opts Options) ([]Result, error) {
	buckets := map[time.Time][]Sample{}
	for _, s := range sortSamples(group) {
		ws, err := window.StartFrom(opts.Anchor, s.Timestamp, opts.Width)
		if err != nil {
			return nil, err
		}
		buckets[ws] = append(buckets[ws], s)
	}

	out := []Result{}
	for ws, bucket := range buckets {
		if !hasValid(bucket) {
			continue
		}
		verdict := ReduceWindow(bucket)
		out = append(out, Result{
			VantagePoint: key.vantagePoint,
			Family:       key.family,
			Window:       ws,
			State:        verdict.State,
			Inconsistent: verdict.Inconsistent,
		})
	}
	return out, nil
}

// classifyPairs keeps the state of the latest valid sample of each window.
func classifyPairs(key seriesKey, group []Sample, opts Options) ([]Result, error) {
	instants, err := ResolvePairs(group, opts)
	if err != nil {
		return nil, err
	}

	latest := map[time.Time]Result{}
	for _, instant := range instants {
		ws, err := window.StartFrom(opts.Anchor, instant.Timestamp, opts.Width)
		if err != nil {
			return nil, err
		}
		latest[ws] = Result{
			VantagePoint: key.vantagePoint,
			Family:       key.family,
			Window:       ws,
			State:        instant.State,
		}
	}

	out := make([]Result, 0, len(latest))
	for _, r := range latest {
		out = append(out, r)
	}
	return out, nil
}

func hasValid(samples []Sample) bool {
	for _, s := range samples {
		if s.Label == model.LabelValid {
			return true
		}
	}
	return false
}
