// Package metrics exposes shelf state and mutation counts to Prometheus.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	dom "bookshelf/internal/domain"
	"bookshelf/internal/view"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry  *prometheus.Registry
	mutations *prometheus.CounterVec
	shelf     *prometheus.GaugeVec
	degraded  prometheus.Gauge
}

// New registers the bookshelf collectors, plus the Go and process collectors,
// on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookshelf",
			Name:      "mutations_total",
			Help:      "Successful collection mutations by operation.",
		}, []string{"op"}),
		shelf: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "bookshelf",
			Name:      "shelf_books",
			Help:      "Books on each shelf at the last render.",
		}, []string{"shelf"}),
		degraded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bookshelf",
			Name:      "storage_degraded",
			Help:      "1 when storage is unavailable and the collection is memory-only.",
		}),
	}
	reg.MustRegister(
		m.mutations, m.shelf, m.degraded,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Mutation(op string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(op).Inc()
}

func (m *Metrics) Degraded(on bool) {
	if m == nil {
		return
	}
	if on {
		m.degraded.Set(1)
		return
	}
	m.degraded.Set(0)
}

// Replace implements view.Sink.
func (m *Metrics) Replace(s view.Shelves) {
	if m == nil {
		return
	}
	m.shelf.WithLabelValues(dom.ShelfIncomplete).Set(float64(len(s.Incomplete)))
	m.shelf.WithLabelValues(dom.ShelfComplete).Set(float64(len(s.Complete)))
}
