package aggregate

import (
	"sort"
	"strconv"
	"time"

	"github.com/jaxxstorm/rollovermon/internal/window"
)

// Range is the requested time range [From, To) cut into windows of Width,
// the first of which starts at From.
type Range struct {
	From  time.Time
	To    time.Time
	Width time.Duration
}

// Group is the dimension shares are normalized over: a target and record
// category for visibility, an address family for the trust chain.
type Group struct {
	Dimension string
	Category  string
}

type KeyCount struct {
	Key    string
	Probes int
}

type GroupCount struct {
	Group
	// Total is the number of distinct vantage points of the group in the
	// window, the denominator of every share.
	Total  int
	Counts []KeyCount
}

type Window struct {
	Start  time.Time
	Groups []GroupCount
}

type Table struct {
	Width   time.Duration
	Windows []Window
}

// Lookup returns the counts of g in w.
func (w Window) Lookup(g Group) (GroupCount, bool) {
	for _, gc := range w.Groups {
		if gc.Group == g {
			return gc, true
		}
	}
	return GroupCount{}, false
}

type bucket struct {
	total  map[string]struct{}
	perKey map[string]map[string]struct{}
}

// accumulator is the window -> group -> counter pass.
type accumulator struct {
	rng     Range
	starts  []time.Time
	inRange map[time.Time]bool
	buckets map[time.Time]map[Group]*bucket
	keys    map[Group]map[string]struct{}
	order   func(a, b string) bool
}

func newAccumulator(rng Range, order func(a, b string) bool) (*accumulator, error) {
	starts, err := window.Range(rng.From, rng.To, rng.Width)
	if err != nil {
		return nil, err
	}
	acc := &accumulator{
		rng:     rng,
		starts:  starts,
		inRange: map[time.Time]bool{},
		buckets: map[time.Time]map[Group]*bucket{},
		keys:    map[Group]map[string]struct{}{},
		order:   order,
	}
	for _, ws := range starts {
		acc.inRange[ws] = true
		acc.buckets[ws] = map[Group]*bucket{}
	}
	return acc, nil
}

func (a *accumulator) seed(g Group, keys ...string) {
	if _, ok := a.keys[g]; !ok {
		a.keys[g] = map[string]struct{}{}
	}
	for _, k := range keys {
		a.keys[g][k] = struct{}{}
	}
}

func (a *accumulator) add(ws time.Time, g Group, key, vantagePoint string) {
	if !a.inRange[ws] {
		return
	}
	a.seed(g, key)
	b, ok := a.buckets[ws][g]
	if !ok {
		b = &bucket{total: map[string]struct{}{}, perKey: map[string]map[string]struct{}{}}
		a.buckets[ws][g] = b
	}
	b.total[vantagePoint] = struct{}{}
	if _, ok := b.perKey[key]; !ok {
		b.perKey[key] = map[string]struct{}{}
	}
	b.perKey[key][vantagePoint] = struct{}{}
}

// table fills every window with every group and key seen in the range, so
// the time axis has no gaps.
func (a *accumulator) table() Table {
	groups := make([]Group, 0, len(a.keys))
	for g := range a.keys {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Dimension != groups[j].Dimension {
			return groups[i].Dimension < groups[j].Dimension
		}
		return groups[i].Category < groups[j].Category
	})

	sortedKeys := map[Group][]string{}
	for _, g := range groups {
		keys := make([]string, 0, len(a.keys[g]))
		for k := range a.keys[g] {
			keys = append(keys, k)
		}
		sort.SliceStable(keys, func(i, j int) bool { return a.order(keys[i], keys[j]) })
		sortedKeys[g] = keys
	}

	out := Table{Width: a.rng.Width, Windows: make([]Window, 0, len(a.starts))}
	for _, ws := range a.starts {
		w := Window{Start: ws, Groups: make([]GroupCount, 0, len(groups))}
		for _, g := range groups {
			gc := GroupCount{Group: g, Counts: make([]KeyCount, 0, len(sortedKeys[g]))}
			b := a.buckets[ws][g]
			if b != nil {
				gc.Total = len(b.total)
			}
			for _, k := range sortedKeys[g] {
				kc := KeyCount{Key: k}
				if b != nil {
					kc.Probes = len(b.perKey[k])
				}
				gc.Counts = append(gc.Counts, kc)
			}
			w.Groups = append(w.Groups, gc)
		}
		out.Windows = append(out.Windows, w)
	}
	return out
}

func (a *accumulator) contains(t time.Time) bool {
	return !t.Before(a.rng.From) && t.Before(a.rng.To)
}

func numericOrder(a, b string) bool {
	x, errX := strconv.Atoi(a)
	y, errY := strconv.Atoi(b)
	if errX == nil && errY == nil {
		return x < y
	}
	return a < b
}
