package aggregate

import (
	"github.com/jaxxstorm/rollovermon/internal/model"
	"github.com/jaxxstorm/rollovermon/internal/trustchain"
	"github.com/jaxxstorm/rollovermon/internal/window"
)

// CategoryState is the category of every trust-chain group.
const CategoryState = "state"

// TrustChain counts distinct vantage points per (family, state) and
// window. Both families and all states are always present.
func TrustChain(results []trustchain.Result, rng Range) (Table, error) {
	acc, err := newAccumulator(rng, stateOrder)
	if err != nil {
		return Table{}, err
	}
	keys := make([]string, 0, len(model.States))
	for _, s := range model.States {
		keys = append(keys, string(s))
	}
	for _, f := range []model.Family{model.FamilyIPv4, model.FamilyIPv6} {
		acc.seed(Group{Dimension: f.String(), Category: CategoryState}, keys...)
	}
	for _, r := range results {
		ws, err := window.StartFrom(rng.From, r.Window, rng.Width)
		if err != nil {
			return Table{}, err
		}
		g := Group{Dimension: r.Family.String(), Category: CategoryState}
		acc.add(ws, g, string(r.State), r.VantagePoint)
	}
	return acc.table(), nil
}

func stateOrder(a, b string) bool {
	return stateRank(a) < stateRank(b)
}

func stateRank(s string) int {
	for i, state := range model.States {
		if string(state) == s {
			return i
		}
	}
	return len(model.States)
}
