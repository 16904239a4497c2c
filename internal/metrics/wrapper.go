package metrics

import "sports-ai/internal/ml"

// MetricsWrapper adapts Metrics to ml.MetricsInterface.
type MetricsWrapper struct {
	m *Metrics
}

var _ ml.MetricsInterface = (*MetricsWrapper)(nil)

func NewWrapper(m *Metrics) *MetricsWrapper {
	return &MetricsWrapper{m: m}
}

func (w *MetricsWrapper) MLPredictionsInc(sport, algorithm string) {
	w.m.MLPredictions.WithLabelValues(sport, algorithm).Inc()
}

func (w *MetricsWrapper) MLFailuresInc(sport, reason string) {
	w.m.MLFailures.WithLabelValues(sport, reason).Inc()
}

func (w *MetricsWrapper) MLLatencyObserve(seconds float64) {
	w.m.MLLatency.Observe(seconds)
}

func (w *MetricsWrapper) MLPredictionScoresObserve(confidence float64) {
	w.m.MLPredictionScores.Observe(confidence)
}

func (w *MetricsWrapper) MLTimeoutsInc() {
	w.m.MLTimeouts.Inc()
}

func (w *MetricsWrapper) MLFallbackUseInc(sport string) {
	w.m.MLFallbackUse.WithLabelValues(sport).Inc()
}

func (w *MetricsWrapper) MLTrainingRunsInc(sport, algorithm, outcome string) {
	w.m.TrainingRuns.WithLabelValues(sport, algorithm, outcome).Inc()
}

func (w *MetricsWrapper) MLTrainingDurationObserve(algorithm string, seconds float64) {
	w.m.TrainingDuration.WithLabelValues(algorithm).Observe(seconds)
}

func (w *MetricsWrapper) MLModelAccuracySet(sport, algorithm string, accuracy float64) {
	w.m.ModelAccuracy.WithLabelValues(sport, algorithm).Set(accuracy)
}

func (w *MetricsWrapper) MLActiveModelSet(sport, algorithm string) {
	all := make([]string, 0, 2)
	for _, a := range ml.Algorithms() {
		all = append(all, string(a))
	}
	w.m.SetActive(sport, algorithm, all)
}

// DatasetRowsSet records how many matches are stored for sport.
func (w *MetricsWrapper) DatasetRowsSet(sport string, rows int) {
	w.m.DatasetRows.WithLabelValues(sport).Set(float64(rows))
}

// IngestFetchInc counts one upstream fetch.
func (w *MetricsWrapper) IngestFetchInc(source, status string) {
	w.m.IngestFetches.WithLabelValues(source, status).Inc()
}

// HTTPRequestInc counts one API request.
func (w *MetricsWrapper) HTTPRequestInc(route, code string) {
	w.m.HTTPRequests.WithLabelValues(route, code).Inc()
}

// ErrorRate exposes Metrics.GetErrorRate.
func (w *MetricsWrapper) ErrorRate() float64 {
	return w.m.GetErrorRate()
}
