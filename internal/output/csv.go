package output

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/jaxxstorm/rollovermon/internal/report"
)

var csvHeader = []string{"timestamp", "dimension", "category", "key", "probes", "total", "share"}

// RenderCSV writes one row per window, dimension, category and key. An
// undefined share is left empty.
func RenderCSV(r report.Report) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return "", err
	}
	for _, row := range report.Rows(r) {
		share := ""
		if row.Share != nil {
			share = strconv.FormatFloat(*row.Share, 'f', 2, 64)
		}
		record := []string{
			strconv.FormatInt(row.Timestamp.Unix(), 10),
			row.Dimension,
			row.Category,
			row.Key,
			strconv.Itoa(row.Probes),
			strconv.Itoa(row.Total),
			share,
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
