// Package ml trains, evaluates, stores and serves the per-sport outcome
// classifiers.
//
// Each sport has one slot per Algorithm in the Registry. A slot holds an
// immutable Entry (fitted model plus its evaluation bundle) that is replaced
// wholesale by a successful training run. One slot per sport is active and
// answers predictions through the Predictor.
package ml

import (
	"sports-ai/internal/features"
	"sports-ai/internal/sport"
)

// Model is a fitted classifier. Implementations are immutable after Fit and
// safe for concurrent use.
type Model interface {
	Algorithm() Algorithm

	// Classes is the full label set of the sport the model was trained for.
	Classes() []sport.Label

	// PredictProba returns one probability per Classes() entry. Classes that
	// were absent from the training subset get probability zero.
	PredictProba(x features.Vector) []float64

	// Importance returns one non-negative weight per feature.
	Importance() []float64
}

// MetricsInterface receives prediction and training telemetry.
type MetricsInterface interface {
	MLPredictionsInc(sport, algorithm string)
	MLFailuresInc(sport, reason string)
	MLLatencyObserve(seconds float64)
	MLPredictionScoresObserve(confidence float64)
	MLTimeoutsInc()
	MLFallbackUseInc(sport string)
	MLTrainingRunsInc(sport, algorithm, outcome string)
	MLTrainingDurationObserve(algorithm string, seconds float64)
	MLModelAccuracySet(sport, algorithm string, accuracy float64)
	MLActiveModelSet(sport, algorithm string)
}
