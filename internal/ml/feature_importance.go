package ml

import (
	"math/rand"
	"sort"

	"sports-ai/internal/dataset"
	"sports-ai/internal/features"
)

// FeatureWeight pairs a schema column with its importance.
type FeatureWeight struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// RankFeatures sorts an importance map by descending weight, then name.
func RankFeatures(importance map[string]float64) []FeatureWeight {
	out := make([]FeatureWeight, 0, len(importance))
	for name, w := range importance {
		out = append(out, FeatureWeight{Name: name, Weight: w})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// PermutationImportance measures how much evaluation accuracy drops when one
// feature column is shuffled across the evaluation subset. The result is
// keyed by feature name; negative drops are reported as zero.
func PermutationImportance(model Model, ds *dataset.Dataset, seed int64) map[string]float64 {
	out := make(map[string]float64, len(ds.FeatureNames))
	if len(ds.Eval) == 0 {
		return out
	}

	baseline := evalAccuracy(model, ds.Eval, nil, -1)
	rng := rand.New(rand.NewSource(seed))
	for j, name := range ds.FeatureNames {
		perm := rng.Perm(len(ds.Eval))
		drop := baseline - evalAccuracy(model, ds.Eval, perm, j)
		if drop < 0 {
			drop = 0
		}
		out[name] = drop
	}
	return out
}

// evalAccuracy scores samples, replacing column j with the value of sample
// perm[i] when perm is set.
func evalAccuracy(model Model, samples []dataset.Sample, perm []int, j int) float64 {
	correct := 0
	x := make(features.Vector, 0)
	for i, s := range samples {
		x = append(x[:0], s.X...)
		if perm != nil {
			x[j] = samples[perm[i]].X[j]
		}
		if argmax(model.PredictProba(x)) == s.Class {
			correct++
		}
	}
	return float64(correct) / float64(len(samples))
}

func importanceMap(names []string, weights []float64) map[string]float64 {
	out := make(map[string]float64, len(names))
	for i, name := range names {
		if i < len(weights) {
			out[name] = weights[i]
		}
	}
	return out
}
