package aggregate

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/jaxxstorm/rollovermon/internal/classify"
	"github.com/jaxxstorm/rollovermon/internal/model"
	"github.com/jaxxstorm/rollovermon/internal/trustchain"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

func seen(vp string, at time.Time, target string, category model.Category, tag uint16) classify.Visibility {
	return classify.Visibility{
		VantagePoint: vp,
		Timestamp:    at,
		Target:       target,
		Key:          classify.Key{Category: category, Tag: tag},
	}
}

func TestShare(t *testing.T) {
	require.Nil(t, Share(3, 0))
	require.Equal(t, 33.33, *Share(1, 3))
	require.Equal(t, 66.67, *Share(2, 3))
	require.Equal(t, 100.0, *Share(4, 4))
	require.Equal(t, 0.0, *Share(0, 4))
}

func TestVisibilityDenominatorIgnoresKeyTag(t *testing.T) {
	entries := []classify.Visibility{
		seen("1_a", t0.Add(time.Minute), "4", model.CategoryZSK, 11),
		seen("1_a", t0.Add(time.Minute), "4", model.CategoryZSK, 22),
		seen("2_b", t0.Add(2*time.Minute), "4", model.CategoryZSK, 22),
		seen("2_b", t0.Add(3*time.Minute), "4", model.CategoryZSK, 22),
		seen("2_b", t0.Add(3*time.Minute), "4", model.CategoryKSK, 33),
	}
	table, err := Visibility(entries, Range{From: t0, To: t0.Add(time.Hour), Width: time.Hour})
	require.NoError(t, err)
	require.Len(t, table.Windows, 1)

	zsk, ok := table.Windows[0].Lookup(Group{Dimension: "4", Category: "ZSK"})
	require.True(t, ok)
	require.Equal(t, 2, zsk.Total)
	require.Equal(t, []KeyCount{{Key: "11", Probes: 1}, {Key: "22", Probes: 2}}, zsk.Counts)

	ksk, ok := table.Windows[0].Lookup(Group{Dimension: "4", Category: "KSK"})
	require.True(t, ok)
	require.Equal(t, 1, ksk.Total)
}

func TestVisibilityGapFreeAxis(t *testing.T) {
	entries := []classify.Visibility{
		seen("1_a", t0.Add(10*time.Minute), "192.0.2.53", model.CategoryZSK, 9),
		seen("1_a", t0.Add(130*time.Minute), "192.0.2.53", model.CategoryZSK, 10),
	}
	table, err := Visibility(entries, Range{From: t0, To: t0.Add(3 * time.Hour), Width: time.Hour})
	require.NoError(t, err)
	require.Len(t, table.Windows, 3)

	middle := table.Windows[1]
	require.Equal(t, t0.Add(time.Hour), middle.Start)
	gc, ok := middle.Lookup(Group{Dimension: "192.0.2.53", Category: "ZSK"})
	require.True(t, ok)
	require.Equal(t, 0, gc.Total)
	require.Equal(t, []KeyCount{{Key: "9"}, {Key: "10"}}, gc.Counts)
}

func TestVisibilityIgnoresEntriesOutsideRange(t *testing.T) {
	entries := []classify.Visibility{
		seen("1_a", t0.Add(-time.Second), "4", model.CategoryDS, 1),
		seen("1_a", t0.Add(time.Hour), "4", model.CategoryDS, 1),
	}
	table, err := Visibility(entries, Range{From: t0, To: t0.Add(time.Hour), Width: time.Hour})
	require.NoError(t, err)
	require.Len(t, table.Windows, 1)
	require.Empty(t, table.Windows[0].Groups)
}

func TestVisibilitySeededGroup(t *testing.T) {
	g := Group{Dimension: "192.0.2.53", Category: "DS"}
	table, err := Visibility(nil, Range{From: t0, To: t0.Add(time.Hour), Width: 30 * time.Minute}, g)
	require.NoError(t, err)
	require.Len(t, table.Windows, 2)
	for _, w := range table.Windows {
		gc, ok := w.Lookup(g)
		require.True(t, ok)
		require.Zero(t, gc.Total)
	}
}

func TestVisibilityRejectsBadWidth(t *testing.T) {
	_, err := Visibility(nil, Range{From: t0, To: t0.Add(time.Hour)})
	require.Error(t, err)
}

func TestTrustChainGapFreeAxis(t *testing.T) {
	width := 2 * time.Hour
	from, to := t0, t0.Add(7*time.Hour)
	table, err := TrustChain(nil, Range{From: from, To: to, Width: width})
	require.NoError(t, err)

	want := int(math.Ceil(float64(to.Sub(from)) / float64(width)))
	require.Len(t, table.Windows, want)
	for _, w := range table.Windows {
		require.Len(t, w.Groups, 2)
		for _, gc := range w.Groups {
			require.Zero(t, gc.Total)
			require.Len(t, gc.Counts, len(model.States))
			for _, kc := range gc.Counts {
				require.Nil(t, Share(kc.Probes, gc.Total))
			}
		}
	}
}

func TestTrustChainUnalignedRange(t *testing.T) {
	from, to := t0.Add(90*time.Minute), t0.Add(150*time.Minute)
	table, err := TrustChain(nil, Range{From: from, To: to, Width: 2 * time.Hour})
	require.NoError(t, err)
	require.Len(t, table.Windows, 1)
	require.Equal(t, from, table.Windows[0].Start)

	from, to = t0.Add(17*time.Minute), t0.Add(7*time.Hour)
	table, err = TrustChain(nil, Range{From: from, To: to, Width: 2 * time.Hour})
	require.NoError(t, err)
	require.Len(t, table.Windows, 4)
	for i, w := range table.Windows {
		require.Equal(t, from.Add(time.Duration(i)*2*time.Hour), w.Start)
	}
}

func TestVisibilityUnalignedRangeKeepsWholeWindows(t *testing.T) {
	from := t0.Add(40 * time.Minute)
	entries := []classify.Visibility{
		seen("1_a", from.Add(time.Minute), "4", model.CategoryZSK, 7),
		seen("2_b", from.Add(59*time.Minute), "4", model.CategoryZSK, 7),
		seen("3_c", from.Add(61*time.Minute), "4", model.CategoryZSK, 8),
	}
	table, err := Visibility(entries, Range{From: from, To: from.Add(90 * time.Minute), Width: time.Hour})
	require.NoError(t, err)
	require.Len(t, table.Windows, 2)
	require.Equal(t, from, table.Windows[0].Start)
	require.Equal(t, from.Add(time.Hour), table.Windows[1].Start)

	first, ok := table.Windows[0].Lookup(Group{Dimension: "4", Category: string(model.CategoryZSK)})
	require.True(t, ok)
	require.Equal(t, 2, first.Total)
	second, ok := table.Windows[1].Lookup(Group{Dimension: "4", Category: string(model.CategoryZSK)})
	require.True(t, ok)
	require.Equal(t, 1, second.Total)
}

func TestTrustChainSharesSumToHundred(t *testing.T) {
	states := []model.State{model.StateSecure, model.StateSecure, model.StateInsecure, model.StateBogus, model.StateUnknown, model.StateSecure, model.StateInsecure}
	results := []trustchain.Result{}
	for i, s := range states {
		for _, f := range []model.Family{model.FamilyIPv4, model.FamilyIPv6} {
			if f == model.FamilyIPv6 && i%2 == 1 {
				continue
			}
			results = append(results, trustchain.Result{
				VantagePoint: fmt.Sprintf("%d_addr", i),
				Family:       f,
				Window:       t0.Add(time.Duration(i%2) * 2 * time.Hour),
				State:        s,
			})
		}
	}
	table, err := TrustChain(results, Range{From: t0, To: t0.Add(4 * time.Hour), Width: 2 * time.Hour})
	require.NoError(t, err)
	require.Len(t, table.Windows, 2)

	for _, w := range table.Windows {
		for _, gc := range w.Groups {
			if gc.Total == 0 {
				for _, kc := range gc.Counts {
					require.Nil(t, Share(kc.Probes, gc.Total))
				}
				continue
			}
			sum := 0.0
			for _, kc := range gc.Counts {
				sum += *Share(kc.Probes, gc.Total)
			}
			require.InDelta(t, 100.0, sum, 0.02, "window %s group %s", w.Start, gc.Dimension)
		}
	}

	v4, ok := table.Windows[0].Lookup(Group{Dimension: "ipv4", Category: CategoryState})
	require.True(t, ok)
	require.Equal(t, 4, v4.Total)
	require.Equal(t, []KeyCount{{Key: "secure", Probes: 1}, {Key: "insecure", Probes: 2}, {Key: "bogus", Probes: 0}, {Key: "unknown", Probes: 1}}, v4.Counts)
}
