package app

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/km-arc/go-zelasli/framework/routing"
)

// Metrics records controller dispatches on its own prometheus registry.
type Metrics struct {
	registry   *prometheus.Registry
	dispatches *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics registers the dispatch collectors on reg, or on a fresh
// registry when reg is nil.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		dispatches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "zelasli_dispatch_total",
			Help: "Controller dispatches by controller, action and status",
		}, []string{"controller", "action", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "zelasli_dispatch_duration_seconds",
			Help:    "Controller dispatch duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		}, []string{"controller", "action"}),
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observe(route routing.Route, status int, elapsed time.Duration) {
	m.dispatches.WithLabelValues(route.Controller, route.Action, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(route.Controller, route.Action).Observe(elapsed.Seconds())
}
