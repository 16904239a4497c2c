package ml

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sports-ai/internal/features"
	"sports-ai/internal/sport"

	"github.com/rs/zerolog/log"
)

// DefaultPredictTimeout bounds a single prediction.
const DefaultPredictTimeout = 5 * time.Second

// Prediction is the answer for one match.
type Prediction struct {
	Prediction    sport.Label             `json:"prediction"`
	Confidence    float64                 `json:"confidence"`
	Score         float64                 `json:"score"`
	Probabilities map[sport.Label]float64 `json:"probabilities"`
	Model         string                  `json:"model"`
	MatchID       string                  `json:"match_id,omitempty"`
}

// Predictor serves predictions from the active model of each sport.
type Predictor struct {
	registry *Registry
	fallback *FallbackPredictor
	metrics  MetricsInterface
	timeout  time.Duration
}

// PredictorOption configures a Predictor.
type PredictorOption func(*Predictor)

// WithMetrics reports prediction telemetry to m.
func WithMetrics(m MetricsInterface) PredictorOption {
	return func(p *Predictor) { p.metrics = m }
}

// WithFallback answers with f when a sport has no active model.
func WithFallback(f *FallbackPredictor) PredictorOption {
	return func(p *Predictor) { p.fallback = f }
}

// WithPredictTimeout overrides DefaultPredictTimeout.
func WithPredictTimeout(d time.Duration) PredictorOption {
	return func(p *Predictor) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// FallbackUsage returns how many heuristic predictions were served per sport,
// or nil when no fallback is configured.
func (p *Predictor) FallbackUsage() map[sport.Sport]int {
	if p.fallback == nil {
		return nil
	}
	return p.fallback.Usage()
}

// NewPredictor returns a predictor reading from registry.
func NewPredictor(registry *Registry, opts ...PredictorOption) *Predictor {
	p := &Predictor{registry: registry, timeout: DefaultPredictTimeout}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Predict scores x with the active model of s. x must follow the schema of s.
func (p *Predictor) Predict(ctx context.Context, s sport.Sport, x features.Vector) (*Prediction, error) {
	start := time.Now()

	pred, err := p.predict(ctx, s, x)
	if err != nil {
		p.recordFailure(s, err)
		return nil, err
	}

	if p.metrics != nil {
		p.metrics.MLPredictionsInc(string(s), pred.Model)
		p.metrics.MLLatencyObserve(time.Since(start).Seconds())
		p.metrics.MLPredictionScoresObserve(pred.Confidence)
	}
	return pred, nil
}

// PredictPayload encodes payload into the schema of s and predicts.
func (p *Predictor) PredictPayload(ctx context.Context, s sport.Sport, payload map[string]float64) (*Prediction, error) {
	x, err := features.EncodePayload(payload, s)
	if err != nil {
		p.recordFailure(s, err)
		return nil, err
	}
	return p.Predict(ctx, s, x)
}

func (p *Predictor) predict(ctx context.Context, s sport.Sport, x features.Vector) (*Prediction, error) {
	x, err := features.FromVector(x, s)
	if err != nil {
		return nil, err
	}

	entry, err := p.registry.ActiveEntry(s)
	if errors.Is(err, ErrNoActiveModel) && p.fallback != nil {
		if p.metrics != nil {
			p.metrics.MLFallbackUseInc(string(s))
		}
		log.Debug().Str("sport", string(s)).Msg("No active model, using fallback heuristic")
		return p.fallback.Predict(s, x)
	}
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	done := make(chan []float64, 1)
	go func() {
		done <- entry.Model.PredictProba(x)
	}()

	select {
	case probs := <-done:
		return newPrediction(entry, probs), nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && p.metrics != nil {
			p.metrics.MLTimeoutsInc()
		}
		return nil, fmt.Errorf("prediction for %s aborted: %w", s, ctx.Err())
	}
}

func newPrediction(entry *Entry, probs []float64) *Prediction {
	classes := entry.Model.Classes()
	pred := &Prediction{
		Probabilities: make(map[sport.Label]float64, len(classes)),
		Model:         string(entry.Algorithm),
	}
	best := argmax(probs)
	for i, label := range classes {
		pred.Probabilities[label] = probs[i]
	}
	pred.Prediction = classes[best]
	pred.Confidence = probs[best]
	pred.Score = pred.Probabilities[sport.HomeWin] - pred.Probabilities[sport.AwayWin]
	return pred
}

func (p *Predictor) recordFailure(s sport.Sport, err error) {
	if p.metrics == nil {
		return
	}
	reason := "error"
	switch {
	case errors.Is(err, ErrNoActiveModel):
		reason = "no_active_model"
	case errors.Is(err, features.ErrSchemaMismatch):
		reason = "schema_mismatch"
	case errors.Is(err, sport.ErrUnknownSport):
		reason = "unknown_sport"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		reason = "timeout"
	}
	p.metrics.MLFailuresInc(string(s), reason)
}
