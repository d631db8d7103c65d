package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type PrometheusMetricsHandler struct {
	registry *prometheus.Registry
}

// NewPrometheusMetricsHandler serves the process wide collectors plus the queue gauges
// computed from s on every scrape.
func NewPrometheusMetricsHandler(s StatsProvider) *PrometheusMetricsHandler {
	registry := prometheus.NewRegistry()
	registry.MustRegister(newQueueStatsCollector(s))

	return &PrometheusMetricsHandler{registry: registry}
}

func (h *PrometheusMetricsHandler) Handler() http.Handler {
	return promhttp.HandlerFor(
		prometheus.Gatherers{prometheus.DefaultGatherer, h.registry},
		promhttp.HandlerOpts{},
	)
}
