// Package metrics exports engine activity as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/roach88/cinemad/internal/engine"
)

const namespace = "cinemad"

// Load results.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Observer implements engine.Observer with Prometheus collectors.
type Observer struct {
	loads        *prometheus.CounterVec
	records      *prometheus.GaugeVec
	loadDuration prometheus.Histogram
	passes       *prometheus.CounterVec
	selected     *prometheus.GaugeVec
}

var _ engine.Observer = (*Observer)(nil)

// NewObserver registers the collectors with reg. A nil reg uses
// prometheus.DefaultRegisterer.
func NewObserver(reg prometheus.Registerer) *Observer {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Observer{
		// Labels: source, result (ok, error)
		loads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_loads_total",
			Help:      "Completed source loads by result",
		}, []string{"source", "result"}),

		records: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "source_records",
			Help:      "Records held by each source after its last load",
		}, []string{"source"}),

		loadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Source load latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}),

		passes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intersection_passes_total",
			Help:      "Intersection passes run by each display",
		}, []string{"display"}),

		selected: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "intersection_selected",
			Help:      "Records selected by each display's last intersection pass",
		}, []string{"display"}),
	}
}

// SourceLoaded implements engine.Observer.
func (o *Observer) SourceLoaded(source string, records int, elapsed time.Duration, err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	o.loads.WithLabelValues(source, result).Inc()
	o.records.WithLabelValues(source).Set(float64(records))
	o.loadDuration.Observe(elapsed.Seconds())
}

// IntersectionPass implements engine.Observer.
func (o *Observer) IntersectionPass(display string, _, selected int) {
	o.passes.WithLabelValues(display).Inc()
	o.selected.WithLabelValues(display).Set(float64(selected))
}
