package trustchain

import (
	"sort"

	"github.com/jaxxstorm/rollovermon/internal/model"
)

// Flag returns the sorted vantage points that were bogus or inconsistent in
// at least one window. Windows are always reduced in bulk, whatever
// opts.Mode says.
func Flag(samples []Sample, opts Options) ([]string, error) {
	opts.Mode = ModeWindow
	results, err := Classify(samples, opts)
	if err != nil {
		return nil, err
	}
	flagged := map[string]struct{}{}
	for _, r := range results {
		if r.State == model.StateBogus || r.Inconsistent {
			flagged[r.VantagePoint] = struct{}{}
		}
	}
	return sortedSet(flagged), nil
}

// GroundTruth merges the flagged vantage points of samples into denylist.
// The result has set semantics, so running it twice on the same input
// yields the same list.
func GroundTruth(samples []Sample, opts Options, denylist []string) ([]string, error) {
	flagged, err := Flag(samples, opts)
	if err != nil {
		return nil, err
	}
	return Merge(denylist, flagged), nil
}

func Merge(lists ...[]string) []string {
	set := map[string]struct{}{}
	for _, list := range lists {
		for _, v := range list {
			set[v] = struct{}{}
		}
	}
	return sortedSet(set)
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
