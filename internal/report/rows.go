package report

import "time"

type Row struct {
	Timestamp time.Time
	Dimension string
	Category  string
	Key       string
	Probes    int
	Total     int
	Share     *float64
}

// Rows flattens the report in tree order.
func Rows(r Report) []Row {
	out := []Row{}
	for _, w := range r.Windows {
		for _, d := range w.Dimensions {
			for _, c := range d.Categories {
				for _, e := range c.Entries {
					out = append(out, Row{
						Timestamp: w.Start,
						Dimension: d.Name,
						Category:  c.Name,
						Key:       e.Key,
						Probes:    e.Probes,
						Total:     c.Total,
						Share:     e.Share,
					})
				}
			}
		}
	}
	return out
}
