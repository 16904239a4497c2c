// Package metrics provides Prometheus metrics collection for the prediction
// service. It defines the training, prediction, ingestion and HTTP metrics
// exposed on the metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Prediction metrics
	MLPredictions      *prometheus.CounterVec // Predictions served, by sport and model
	MLFailures         *prometheus.CounterVec // Failed predictions, by sport and reason
	MLLatency          prometheus.Histogram   // End-to-end prediction latency in seconds
	MLPredictionScores prometheus.Histogram   // Distribution of prediction confidence
	MLTimeouts         prometheus.Counter     // Predictions aborted by their deadline
	MLFallbackUse      *prometheus.CounterVec // Heuristic answers, by sport

	// Training metrics
	TrainingRuns     *prometheus.CounterVec   // Training runs, by sport, algorithm and outcome
	TrainingDuration *prometheus.HistogramVec // Training wall time, by algorithm
	ModelAccuracy    *prometheus.GaugeVec     // Held-out accuracy of each slot
	ActiveModel      *prometheus.GaugeVec     // 1 for the active algorithm of each sport

	// Data metrics
	DatasetRows   *prometheus.GaugeVec   // Stored match records per sport
	IngestFetches *prometheus.CounterVec // Upstream fetches, by source and status

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec // API requests, by route and status code

	gatherer prometheus.Gatherer
}

// New creates and registers all Prometheus metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	m := &Metrics{
		MLPredictions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ml_predictions_total",
			Help: "Total number of predictions served",
		}, []string{"sport", "model"}),
		MLFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ml_failures_total",
			Help: "Total number of failed predictions",
		}, []string{"sport", "reason"}),
		MLLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ml_latency_seconds",
			Help:    "Prediction latency in seconds (end-to-end)",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
		MLPredictionScores: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ml_prediction_confidence",
			Help:    "Distribution of prediction confidence",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		MLTimeouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "ml_timeouts_total",
			Help: "Total number of predictions aborted by their deadline",
		}),
		MLFallbackUse: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ml_fallback_use_total",
			Help: "Total number of heuristic fallback answers",
		}, []string{"sport"}),
		TrainingRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "training_runs_total",
			Help: "Total number of training runs by outcome",
		}, []string{"sport", "algorithm", "outcome"}),
		TrainingDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "training_duration_seconds",
			Help:    "Duration of successful training runs in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 15),
		}, []string{"algorithm"}),
		ModelAccuracy: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "model_accuracy",
			Help: "Held-out accuracy of the model in each slot",
		}, []string{"sport", "algorithm"}),
		ActiveModel: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "active_model",
			Help: "Set to 1 for the active algorithm of each sport",
		}, []string{"sport", "algorithm"}),
		DatasetRows: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dataset_rows",
			Help: "Number of stored match records per sport",
		}, []string{"sport"}),
		IngestFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ingest_fetches_total",
			Help: "Total number of upstream data fetches",
		}, []string{"source", "status"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of API requests",
		}, []string{"route", "code"}),
		gatherer: prometheus.DefaultGatherer,
	}
	if g, ok := registerer.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m
}

// SetActive marks algorithm as the active model of sport and clears the
// other algorithms listed in all.
func (m *Metrics) SetActive(sport, algorithm string, all []string) {
	for _, a := range all {
		v := 0.0
		if a == algorithm {
			v = 1
		}
		m.ActiveModel.WithLabelValues(sport, a).Set(v)
	}
}

// GetErrorRate returns failed predictions over all prediction attempts, or 0
// when nothing was recorded.
func (m *Metrics) GetErrorRate() float64 {
	var served, failed float64

	families, err := m.gatherer.Gather()
	if err != nil {
		return 0
	}
	for _, mf := range families {
		switch mf.GetName() {
		case "ml_predictions_total":
			for _, metric := range mf.Metric {
				served += metric.GetCounter().GetValue()
			}
		case "ml_failures_total":
			for _, metric := range mf.Metric {
				failed += metric.GetCounter().GetValue()
			}
		}
	}

	total := served + failed
	if total == 0 {
		return 0
	}
	return failed / total
}
