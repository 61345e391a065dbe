package report

import (
	"fmt"
	"time"
)

// Y axis range of trust-chain and visibility plots, in percent.
const (
	YMin = 0.0
	YMax = 105.0
)

type Point struct {
	Time    time.Time `json:"time"`
	Percent *float64  `json:"percent"`
}

type Line struct {
	Key    string  `json:"key"`
	Points []Point `json:"points"`
}

type Plot struct {
	Title     string  `json:"title"`
	Dimension string  `json:"dimension"`
	Category  string  `json:"category"`
	YMin      float64 `json:"y_min"`
	YMax      float64 `json:"y_max"`
	Lines     []Line  `json:"lines"`
}

// Series returns one plot per dimension and category with one line per key.
func Series(r Report) []Plot {
	plots := []Plot{}
	index := map[string]int{}
	for _, w := range r.Windows {
		for _, d := range w.Dimensions {
			for _, c := range d.Categories {
				id := d.Name + "\x00" + c.Name
				pi, ok := index[id]
				if !ok {
					pi = len(plots)
					index[id] = pi
					plots = append(plots, Plot{
						Title:     fmt.Sprintf("%s %s", d.Name, c.Name),
						Dimension: d.Name,
						Category:  c.Name,
						YMin:      YMin,
						YMax:      YMax,
					})
				}
				plot := &plots[pi]
				for _, e := range c.Entries {
					li := -1
					for i := range plot.Lines {
						if plot.Lines[i].Key == e.Key {
							li = i
							break
						}
					}
					if li == -1 {
						li = len(plot.Lines)
						plot.Lines = append(plot.Lines, Line{Key: e.Key})
					}
					plot.Lines[li].Points = append(plot.Lines[li].Points, Point{Time: w.Start, Percent: e.Share})
				}
			}
		}
	}
	return plots
}
