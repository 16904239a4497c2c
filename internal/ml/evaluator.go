package ml

import (
	"fmt"
	"math"

	"sports-ai/internal/dataset"
	"sports-ai/internal/sport"
)

const logLossEpsilon = 1e-15

// MetricsBundle is the evaluation of one fitted model on the held-out subset.
type MetricsBundle struct {
	Model             Algorithm                `json:"model"`
	Sport             sport.Sport              `json:"sport"`
	Rows              int                      `json:"rows"`
	TrainRows         int                      `json:"train_rows"`
	EvalRows          int                      `json:"eval_rows"`
	Accuracy          float64                  `json:"accuracy"`
	F1Weighted        float64                  `json:"f1_weighted"`
	LogLoss           float64                  `json:"log_loss"`
	Classes           []sport.Label            `json:"classes"`
	ConfusionMatrix   [][]int                  `json:"confusion_matrix"`
	ROC               map[sport.Label]ROCCurve `json:"roc"`
	PR                map[sport.Label]PRCurve  `json:"pr"`
	FeatureImportance map[string]float64       `json:"feature_importance"`
}

// Evaluate scores model on the evaluation subset of ds. A class whose curve is
// undefined on that subset (no positives or no negatives) has no ROC or PR
// entry.
func Evaluate(model Model, ds *dataset.Dataset) (*MetricsBundle, error) {
	if ds == nil || len(ds.Eval) == 0 {
		return nil, fmt.Errorf("%w: empty evaluation set", ErrInsufficientData)
	}

	k := len(ds.Classes)
	n := len(ds.Eval)

	cm := make([][]int, k)
	for i := range cm {
		cm[i] = make([]int, k)
	}
	probs := make([][]float64, n)
	var logLoss float64
	for i, s := range ds.Eval {
		p := model.PredictProba(s.X)
		probs[i] = p
		cm[s.Class][argmax(p)]++

		pt := math.Min(math.Max(p[s.Class], logLossEpsilon), 1-logLossEpsilon)
		logLoss -= math.Log(pt)
	}

	bundle := &MetricsBundle{
		Model:             model.Algorithm(),
		Sport:             ds.Sport,
		Rows:              ds.Rows,
		TrainRows:         len(ds.Train),
		EvalRows:          n,
		LogLoss:           logLoss / float64(n),
		Classes:           append([]sport.Label(nil), ds.Classes...),
		ConfusionMatrix:   cm,
		ROC:               make(map[sport.Label]ROCCurve),
		PR:                make(map[sport.Label]PRCurve),
		FeatureImportance: importanceMap(ds.FeatureNames, model.Importance()),
	}
	bundle.Accuracy, bundle.F1Weighted = accuracyAndF1(cm, n)

	scores := make([]float64, n)
	positives := make([]bool, n)
	for c, label := range ds.Classes {
		for i, s := range ds.Eval {
			scores[i] = probs[i][c]
			positives[i] = s.Class == c
		}
		if roc, pr, ok := oneVsRest(scores, positives); ok {
			bundle.ROC[label] = roc
			bundle.PR[label] = pr
		}
	}
	return bundle, nil
}

// accuracyAndF1 derives accuracy and support-weighted F1 from a confusion
// matrix whose rows are true classes.
func accuracyAndF1(cm [][]int, n int) (accuracy, f1 float64) {
	var correct int
	for c := range cm {
		correct += cm[c][c]
	}
	accuracy = float64(correct) / float64(n)

	for c := range cm {
		var support, predicted int
		for j := range cm {
			support += cm[c][j]
			predicted += cm[j][c]
		}
		if support == 0 {
			continue
		}
		tp := float64(cm[c][c])
		var precision, recall float64
		if predicted > 0 {
			precision = tp / float64(predicted)
		}
		recall = tp / float64(support)
		if precision+recall > 0 {
			f1 += float64(support) / float64(n) * 2 * precision * recall / (precision + recall)
		}
	}
	return accuracy, f1
}

// argmax returns the first index of the largest value.
func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}
