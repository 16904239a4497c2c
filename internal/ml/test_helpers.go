package ml

import "sync"

// MockMetrics implements MetricsInterface for testing
type MockMetrics struct {
	mu               sync.Mutex
	Predictions      map[string]int
	Failures         map[string]int
	LatencySum       float64
	Timeouts         int
	FallbackUse      int
	TrainingRuns     map[string]int
	TrainingSeconds  float64
	Accuracy         map[string]float64
	Active           map[string]string
	PredictionScores []float64
}

// NewMockMetrics returns an empty MockMetrics.
func NewMockMetrics() *MockMetrics {
	return &MockMetrics{
		Predictions:  make(map[string]int),
		Failures:     make(map[string]int),
		TrainingRuns: make(map[string]int),
		Accuracy:     make(map[string]float64),
		Active:       make(map[string]string),
	}
}

func (m *MockMetrics) MLPredictionsInc(sport, algorithm string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Predictions[sport+"/"+algorithm]++
}

func (m *MockMetrics) MLFailuresInc(sport, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Failures[sport+"/"+reason]++
}

func (m *MockMetrics) MLLatencyObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LatencySum += v
}

func (m *MockMetrics) MLPredictionScoresObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PredictionScores = append(m.PredictionScores, v)
}

func (m *MockMetrics) MLTimeoutsInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Timeouts++
}

func (m *MockMetrics) MLFallbackUseInc(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FallbackUse++
}

func (m *MockMetrics) MLTrainingRunsInc(sport, algorithm, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TrainingRuns[sport+"/"+algorithm+"/"+outcome]++
}

func (m *MockMetrics) MLTrainingDurationObserve(_ string, seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TrainingSeconds += seconds
}

func (m *MockMetrics) MLModelAccuracySet(sport, algorithm string, accuracy float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Accuracy[sport+"/"+algorithm] = accuracy
}

func (m *MockMetrics) MLActiveModelSet(sport, algorithm string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Active[sport] = algorithm
}

// Count returns a snapshot of one counter map entry under the lock.
func (m *MockMetrics) Count(counter map[string]int, key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return counter[key]
}
