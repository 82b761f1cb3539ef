// Package metrics exposes Prometheus collectors for Tracker Core.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FixesIngestedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tracker_fixes_ingested_total",
		Help: "Fixes stored, by ingestion source",
	}, []string{"source"})
	FixesRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tracker_fixes_rejected_total",
		Help: "Payloads rejected at ingestion, by source and reason (payload, fix)",
	}, []string{"source", "reason"})
	EntitiesRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tracker_classification_rejected_total",
		Help: "Zones or fixes excluded from classification runs",
	}, []string{"entity"})
	ClassificationRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tracker_classification_runs_total",
		Help: "Classification runs, by kind and outcome",
	}, []string{"kind", "outcome"})
	ClassificationDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tracker_classification_duration_ms",
		Help:    "Classification run duration in milliseconds, including store reads",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 5000},
	}, []string{"kind"})
	TelemetryPointsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tracker_telemetry_points_total",
		Help: "Fix telemetry points sent to InfluxDB, by outcome (written, failed)",
	}, []string{"outcome"})
	LiveClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tracker_live_clients",
		Help: "Connected live feed WebSocket clients",
	})
)

func init() {
	prometheus.MustRegister(FixesIngestedTotal)
	prometheus.MustRegister(FixesRejectedTotal)
	prometheus.MustRegister(EntitiesRejectedTotal)
	prometheus.MustRegister(ClassificationRunsTotal)
	prometheus.MustRegister(ClassificationDurationMs)
	prometheus.MustRegister(TelemetryPointsTotal)
	prometheus.MustRegister(LiveClients)
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
