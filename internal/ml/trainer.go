package ml

import (
	"context"
	"fmt"
	"math"

	"sports-ai/internal/dataset"
)

// TrainerConfig holds the hyperparameters of both algorithms. Zero fields take
// the defaults of DefaultTrainerConfig.
type TrainerConfig struct {
	LogisticMaxIter      int     `yaml:"logistic_max_iter"`
	LogisticLearningRate float64 `yaml:"logistic_learning_rate"`
	LogisticC            float64 `yaml:"logistic_c"`
	LogisticTolerance    float64 `yaml:"logistic_tolerance"`

	ForestTrees    int   `yaml:"forest_trees"`
	ForestMaxDepth int   `yaml:"forest_max_depth"` // 0 grows until leaves are pure
	ForestMinSplit int   `yaml:"forest_min_split"`
	ForestSeed     int64 `yaml:"forest_seed"`
}

// DefaultTrainerConfig returns the standard hyperparameters.
func DefaultTrainerConfig() TrainerConfig {
	return TrainerConfig{
		LogisticMaxIter:      500,
		LogisticLearningRate: 0.5,
		LogisticC:            1.0,
		LogisticTolerance:    1e-7,
		ForestTrees:          220,
		ForestMinSplit:       2,
		ForestSeed:           42,
	}
}

func (c TrainerConfig) withDefaults() TrainerConfig {
	d := DefaultTrainerConfig()
	if c.LogisticMaxIter <= 0 {
		c.LogisticMaxIter = d.LogisticMaxIter
	}
	if c.LogisticLearningRate <= 0 {
		c.LogisticLearningRate = d.LogisticLearningRate
	}
	if c.LogisticC <= 0 {
		c.LogisticC = d.LogisticC
	}
	if c.LogisticTolerance <= 0 {
		c.LogisticTolerance = d.LogisticTolerance
	}
	if c.ForestTrees <= 0 {
		c.ForestTrees = d.ForestTrees
	}
	if c.ForestMinSplit < 2 {
		c.ForestMinSplit = d.ForestMinSplit
	}
	if c.ForestSeed == 0 {
		c.ForestSeed = d.ForestSeed
	}
	if c.ForestMaxDepth < 0 {
		c.ForestMaxDepth = 0
	}
	return c
}

// Trainer fits one algorithm on the training subset of a dataset.
type Trainer interface {
	Algorithm() Algorithm
	Fit(ctx context.Context, ds *dataset.Dataset) (Model, error)
}

// NewTrainer returns the trainer for algo.
func NewTrainer(algo Algorithm, cfg TrainerConfig) (Trainer, error) {
	cfg = cfg.withDefaults()
	switch algo {
	case Logistic:
		return &logisticTrainer{cfg: cfg}, nil
	case RandomForest:
		return &forestTrainer{cfg: cfg}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, string(algo))
	}
}

func checkTrainable(ds *dataset.Dataset) error {
	if ds == nil || len(ds.Train) == 0 {
		return fmt.Errorf("%w: empty training set", ErrInsufficientData)
	}
	if n := ds.TrainClasses(); n < 2 {
		return fmt.Errorf("%w: training set has %d distinct class(es), need 2", ErrInsufficientData, n)
	}
	return nil
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

// softmax writes the normalized exponentials of the active logits into out and
// leaves inactive entries at zero.
func softmax(logits []float64, active []bool, out []float64) {
	maxLogit := math.Inf(-1)
	for k, z := range logits {
		if active[k] && z > maxLogit {
			maxLogit = z
		}
	}
	var sum float64
	for k, z := range logits {
		if !active[k] {
			out[k] = 0
			continue
		}
		out[k] = math.Exp(z - maxLogit)
		sum += out[k]
	}
	for k := range out {
		out[k] /= sum
	}
}
