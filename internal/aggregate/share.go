package aggregate

import "math"

// Share returns count/total as a percentage rounded to two decimals. It
// returns nil when total is zero, the share is undefined then.
func Share(count, total int) *float64 {
	if total <= 0 {
		return nil
	}
	v := math.Round(float64(count)/float64(total)*100*100) / 100
	return &v
}
