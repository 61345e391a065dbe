package report

import (
	"fmt"
	"time"

	"github.com/jaxxstorm/rollovermon/internal/aggregate"
)

type Metric struct {
	Probes int      `json:"probes"`
	Share  *float64 `json:"share"`
}

type Entry struct {
	Key string
	Metric
}

type Category struct {
	Name    string
	Total   int
	Entries []Entry
}

type Dimension struct {
	Name       string
	Categories []Category
}

type Window struct {
	Start      time.Time
	Dimensions []Dimension
}

// Report is the time -> dimension -> category -> key tree of a table.
// Every level keeps the order of the aggregated table.
type Report struct {
	Width   time.Duration
	Windows []Window
}

// Build converts an aggregated table into a report. Dimensions found in
// labels are shown as "label (dimension)".
func Build(table aggregate.Table, labels map[string]string) Report {
	out := Report{Width: table.Width, Windows: make([]Window, 0, len(table.Windows))}
	for _, w := range table.Windows {
		rw := Window{Start: w.Start}
		for _, gc := range w.Groups {
			name := Label(gc.Dimension, labels)
			if len(rw.Dimensions) == 0 || rw.Dimensions[len(rw.Dimensions)-1].Name != name {
				rw.Dimensions = append(rw.Dimensions, Dimension{Name: name})
			}
			dim := &rw.Dimensions[len(rw.Dimensions)-1]
			dim.Categories = append(dim.Categories, category(gc))
		}
		out.Windows = append(out.Windows, rw)
	}
	return out
}

// Summarize folds all windows of table into a single window starting at
// the first window. Probes and totals are summed, so shares are relative to
// vantage point windows.
func Summarize(table aggregate.Table, labels map[string]string) Report {
	if len(table.Windows) == 0 {
		return Report{Width: table.Width}
	}
	merged := aggregate.Window{Start: table.Windows[0].Start}
	index := map[aggregate.Group]int{}
	for _, w := range table.Windows {
		for _, gc := range w.Groups {
			i, ok := index[gc.Group]
			if !ok {
				i = len(merged.Groups)
				index[gc.Group] = i
				merged.Groups = append(merged.Groups, aggregate.GroupCount{Group: gc.Group})
			}
			target := &merged.Groups[i]
			target.Total += gc.Total
			for _, kc := range gc.Counts {
				found := false
				for j := range target.Counts {
					if target.Counts[j].Key == kc.Key {
						target.Counts[j].Probes += kc.Probes
						found = true
						break
					}
				}
				if !found {
					target.Counts = append(target.Counts, kc)
				}
			}
		}
	}
	width := table.Width * time.Duration(len(table.Windows))
	return Build(aggregate.Table{Width: width, Windows: []aggregate.Window{merged}}, labels)
}

func Label(dimension string, labels map[string]string) string {
	if label, ok := labels[dimension]; ok && label != "" {
		return fmt.Sprintf("%s (%s)", label, dimension)
	}
	return dimension
}

func category(gc aggregate.GroupCount) Category {
	c := Category{Name: gc.Category, Total: gc.Total, Entries: make([]Entry, 0, len(gc.Counts))}
	for _, kc := range gc.Counts {
		c.Entries = append(c.Entries, Entry{
			Key:    kc.Key,
			Metric: Metric{Probes: kc.Probes, Share: aggregate.Share(kc.Probes, gc.Total)},
		})
	}
	return c
}
