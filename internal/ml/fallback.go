package ml

import (
	"fmt"
	"sync"

	"sports-ai/internal/features"
	"sports-ai/internal/sport"
)

// FallbackModelName is reported as the model of heuristic predictions.
const FallbackModelName = "fallback"

const (
	fallbackFavored = 0.55
	fallbackDraw    = 0.25
	fallbackOther   = 0.20
)

// FallbackPredictor answers from team strength alone when a sport has no
// trained model. The side with the higher (or equal) strength_a/strength_b
// is favored.
type FallbackPredictor struct {
	mu    sync.RWMutex
	usage map[sport.Sport]int
}

// NewFallbackPredictor creates a new fallback predictor
func NewFallbackPredictor() *FallbackPredictor {
	return &FallbackPredictor{usage: make(map[sport.Sport]int)}
}

// Predict scores x, which must follow the schema of s.
func (f *FallbackPredictor) Predict(s sport.Sport, x features.Vector) (*Prediction, error) {
	p, err := sport.Lookup(s)
	if err != nil {
		return nil, err
	}
	if len(x) != p.NumFeatures() {
		return nil, fmt.Errorf("%w: %s expects %d features, got %d", features.ErrSchemaMismatch, s, p.NumFeatures(), len(x))
	}

	// strength is the first stem of every profile.
	favored, other := sport.HomeWin, sport.AwayWin
	if x[0] < x[1] {
		favored, other = sport.AwayWin, sport.HomeWin
	}

	probs := make(map[sport.Label]float64, len(p.Labels))
	if p.HasDraw() {
		probs[favored] = fallbackFavored
		probs[sport.Draw] = fallbackDraw
		probs[other] = fallbackOther
	} else {
		probs[favored] = fallbackFavored
		probs[other] = 1 - fallbackFavored
	}

	f.mu.Lock()
	f.usage[s]++
	f.mu.Unlock()

	return &Prediction{
		Prediction:    favored,
		Confidence:    fallbackFavored,
		Score:         probs[sport.HomeWin] - probs[sport.AwayWin],
		Probabilities: probs,
		Model:         FallbackModelName,
	}, nil
}

// Usage returns how many predictions were served per sport.
func (f *FallbackPredictor) Usage() map[sport.Sport]int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make(map[sport.Sport]int, len(f.usage))
	for k, v := range f.usage {
		out[k] = v
	}
	return out
}
