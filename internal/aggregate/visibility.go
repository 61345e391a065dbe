package aggregate

import (
	"strconv"

	"github.com/jaxxstorm/rollovermon/internal/classify"
	"github.com/jaxxstorm/rollovermon/internal/window"
)

// Visibility counts distinct vantage points per (target, category, key tag)
// and window. The denominator of a window is the number of distinct vantage
// points that saw any key of the same target and category. Seeded groups
// are reported even if nothing was observed for them.
func Visibility(entries []classify.Visibility, rng Range, seed ...Group) (Table, error) {
	acc, err := newAccumulator(rng, numericOrder)
	if err != nil {
		return Table{}, err
	}
	for _, g := range seed {
		acc.seed(g)
	}
	for _, e := range entries {
		if !acc.contains(e.Timestamp) {
			continue
		}
		ws, err := window.StartFrom(rng.From, e.Timestamp, rng.Width)
		if err != nil {
			return Table{}, err
		}
		g := Group{Dimension: e.Target, Category: string(e.Key.Category)}
		acc.add(ws, g, strconv.Itoa(int(e.Key.Tag)), e.VantagePoint)
	}
	return acc.table(), nil
}
