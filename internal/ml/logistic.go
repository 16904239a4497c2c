package ml

import (
	"context"
	"math"

	"sports-ai/internal/dataset"
	"sports-ai/internal/features"
	"sports-ai/internal/sport"

	"github.com/rs/zerolog/log"
)

// LogisticModel is a multinomial logistic regression over standardized
// features.
type LogisticModel struct {
	Labels     []sport.Label `json:"labels"`
	Present    []bool        `json:"present"`
	Mean       []float64     `json:"mean"`
	Scale      []float64     `json:"scale"`
	Weights    [][]float64   `json:"weights"`
	Bias       []float64     `json:"bias"`
	Iterations int           `json:"iterations"`
}

// Algorithm implements Model.
func (m *LogisticModel) Algorithm() Algorithm { return Logistic }

// Classes implements Model.
func (m *LogisticModel) Classes() []sport.Label { return m.Labels }

// PredictProba standardizes x with the training scaler and applies the
// softmax over the trained classes.
func (m *LogisticModel) PredictProba(x features.Vector) []float64 {
	z := m.standardize(x)
	logits := make([]float64, len(m.Labels))
	for k := range m.Labels {
		if m.Present[k] {
			logits[k] = dot(m.Weights[k], z) + m.Bias[k]
		}
	}
	probs := make([]float64, len(m.Labels))
	softmax(logits, m.Present, probs)
	return probs
}

// Importance is the mean absolute coefficient of each feature across the
// trained classes.
func (m *LogisticModel) Importance() []float64 {
	out := make([]float64, len(m.Mean))
	trained := 0
	for k, w := range m.Weights {
		if !m.Present[k] {
			continue
		}
		trained++
		for j, v := range w {
			out[j] += math.Abs(v)
		}
	}
	if trained > 0 {
		for j := range out {
			out[j] /= float64(trained)
		}
	}
	return out
}

func (m *LogisticModel) standardize(x features.Vector) []float64 {
	z := make([]float64, len(m.Mean))
	for j := range z {
		var v float64
		if j < len(x) {
			v = x[j]
		}
		z[j] = (v - m.Mean[j]) / m.Scale[j]
	}
	return z
}

type logisticTrainer struct {
	cfg TrainerConfig
}

func (t *logisticTrainer) Algorithm() Algorithm { return Logistic }

// Fit runs full-batch gradient descent on the softmax cross-entropy with an L2
// penalty of 1/(C*n). The learning rate is halved whenever the loss rises.
func (t *logisticTrainer) Fit(ctx context.Context, ds *dataset.Dataset) (Model, error) {
	if err := checkTrainable(ds); err != nil {
		return nil, err
	}

	n := len(ds.Train)
	p := ds.NumFeatures()
	k := len(ds.Classes)

	m := &LogisticModel{
		Labels:  append([]sport.Label(nil), ds.Classes...),
		Present: make([]bool, k),
		Mean:    make([]float64, p),
		Scale:   make([]float64, p),
		Weights: make([][]float64, k),
		Bias:    make([]float64, k),
	}
	for c, count := range ds.ClassCounts(ds.Train) {
		m.Present[c] = count > 0
		m.Weights[c] = make([]float64, p)
	}
	fitScaler(ds.Train, m.Mean, m.Scale)

	z := make([][]float64, n)
	for i, s := range ds.Train {
		z[i] = m.standardize(s.X)
	}

	lambda := 1.0 / (t.cfg.LogisticC * float64(n))
	lr := t.cfg.LogisticLearningRate
	prevLoss := math.Inf(1)

	gradW := make([][]float64, k)
	for c := range gradW {
		gradW[c] = make([]float64, p)
	}
	gradB := make([]float64, k)
	logits := make([]float64, k)
	probs := make([]float64, k)

	for iter := 0; iter < t.cfg.LogisticMaxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for c := range gradW {
			clear(gradW[c])
		}
		clear(gradB)

		var loss float64
		for i, s := range ds.Train {
			for c := range logits {
				if m.Present[c] {
					logits[c] = dot(m.Weights[c], z[i]) + m.Bias[c]
				}
			}
			softmax(logits, m.Present, probs)
			loss -= math.Log(math.Max(probs[s.Class], 1e-15))

			for c := range probs {
				if !m.Present[c] {
					continue
				}
				d := probs[c]
				if c == s.Class {
					d -= 1
				}
				gradB[c] += d
				for j, v := range z[i] {
					gradW[c][j] += d * v
				}
			}
		}

		loss /= float64(n)
		for c := range m.Weights {
			for _, w := range m.Weights[c] {
				loss += 0.5 * lambda * w * w
			}
		}

		m.Iterations = iter + 1
		if math.Abs(prevLoss-loss) < t.cfg.LogisticTolerance {
			break
		}
		if loss > prevLoss {
			lr *= 0.5
		}
		prevLoss = loss

		for c := range m.Weights {
			if !m.Present[c] {
				continue
			}
			for j := range m.Weights[c] {
				g := gradW[c][j]/float64(n) + lambda*m.Weights[c][j]
				m.Weights[c][j] -= lr * g
			}
			m.Bias[c] -= lr * gradB[c] / float64(n)
		}
	}

	log.Debug().
		Str("sport", string(ds.Sport)).
		Int("iterations", m.Iterations).
		Float64("loss", prevLoss).
		Msg("Logistic regression converged")

	return m, nil
}

// fitScaler computes per-feature mean and standard deviation. A zero deviation
// is replaced by one so constant features pass through centered.
func fitScaler(samples []dataset.Sample, mean, scale []float64) {
	n := float64(len(samples))
	for _, s := range samples {
		for j, v := range s.X {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= n
	}
	for _, s := range samples {
		for j, v := range s.X {
			d := v - mean[j]
			scale[j] += d * d
		}
	}
	for j := range scale {
		scale[j] = math.Sqrt(scale[j] / n)
		if scale[j] < 1e-12 {
			scale[j] = 1
		}
	}
}
