package metrics

import (
	"net/http"

	"github.com/jaxxstorm/rollovermon/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the monitor's collectors on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	classified    *prometheus.CounterVec
	skipped       prometheus.Counter
	states        *prometheus.CounterVec
	denylistSize  prometheus.Gauge
	importSkipped prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		classified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rollovermon_observations_classified_total",
			Help: "Answer records classified as visible keys, by category.",
		}, []string{"category"}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rollovermon_observations_skipped_total",
			Help: "Observations that yielded no classified record.",
		}),
		states: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rollovermon_trustchain_states_total",
			Help: "Trust chain verdicts per vantage point and window.",
		}, []string{"family", "state"}),
		denylistSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rollovermon_denylist_size",
			Help: "Number of denylisted vantage points.",
		}),
		importSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rollovermon_import_skipped_total",
			Help: "Imported results skipped for errors or missing answers.",
		}),
	}
	m.reg.MustRegister(
		m.classified,
		m.skipped,
		m.states,
		m.denylistSize,
		m.importSkipped,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) Classified(category model.Category) {
	m.classified.WithLabelValues(string(category)).Inc()
}

func (m *Metrics) Skipped() {
	m.skipped.Inc()
}

func (m *Metrics) State(family model.Family, state model.State) {
	m.states.WithLabelValues(family.String(), string(state)).Inc()
}

func (m *Metrics) DenylistSize(n int) {
	m.denylistSize.Set(float64(n))
}

func (m *Metrics) ImportSkipped(n int) {
	m.importSkipped.Add(float64(n))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.InstrumentMetricHandler(m.reg, promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{}))
}
