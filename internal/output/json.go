package output

import (
	"encoding/json"

	"github.com/jaxxstorm/rollovermon/internal/report"
)

func RenderJSON(r report.Report) (string, error) {
	return marshal(r)
}

func RenderSeriesJSON(r report.Report) (string, error) {
	return marshal(report.Series(r))
}

func RenderList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	return marshal(values)
}

func marshal(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
