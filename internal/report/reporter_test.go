package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sports-ai/internal/ml"
	"sports-ai/internal/sport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBundle(algo ml.Algorithm) *ml.MetricsBundle {
	return &ml.MetricsBundle{
		Model:      algo,
		Sport:      sport.Tennis,
		Rows:       20,
		TrainRows:  15,
		EvalRows:   5,
		Accuracy:   0.8,
		F1Weighted: 0.79,
		LogLoss:    0.41,
		Classes:    []sport.Label{sport.HomeWin, sport.AwayWin},
		ConfusionMatrix: [][]int{
			{2, 1},
			{0, 2},
		},
		ROC: map[sport.Label]ml.ROCCurve{
			sport.HomeWin: {FPR: []float64{0, 0.5, 1}, TPR: []float64{0, 1, 1}, AUC: 0.75},
		},
		PR: map[sport.Label]ml.PRCurve{
			sport.HomeWin: {Recall: []float64{0, 1}, Precision: []float64{1, 0.6}, AUC: 0.8},
		},
		FeatureImportance: map[string]float64{"strength_a": 0.5, "form_a": 0.3, "strength_diff": 0.2},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestGenerateReport(t *testing.T) {
	dir := t.TempDir()
	cmp := ml.Comparison{Logistic: sampleBundle(ml.Logistic), RandomForest: sampleBundle(ml.RandomForest)}
	r := NewReporter(sport.Tennis, cmp, dir,
		WithActive(ml.RandomForest),
		WithPermutation(ml.Logistic, map[string]float64{"strength_a": 0.2}))

	paths, err := r.GenerateReport()
	require.NoError(t, err)
	require.Len(t, paths, 5)
	for _, p := range paths {
		assert.FileExists(t, p)
		assert.True(t, strings.HasPrefix(filepath.Base(p), "tennis_"))
	}

	summary, err := os.ReadFile(filepath.Join(dir, "tennis_summary.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(summary), "Active model: random_forest")
	assert.Contains(t, string(summary), "Accuracy: 0.8000")
	assert.Contains(t, string(summary), "ROC 0.7500")
	assert.Contains(t, string(summary), "away_win   ROC n/a")

	confusion := readCSV(t, filepath.Join(dir, "tennis_confusion.csv"))
	assert.Len(t, confusion, 1+2*4, "header plus four cells per model")
	assert.Equal(t, []string{"logistic", "home_win", "away_win", "1"}, confusion[2])

	importance := readCSV(t, filepath.Join(dir, "tennis_importance.csv"))
	assert.Equal(t, []string{"logistic", "1", "strength_a", "0.500000", "0.200000"}, importance[1])
	assert.Equal(t, "", importance[4][4], "random forest has no permutation column")

	curves := readCSV(t, filepath.Join(dir, "tennis_curves.csv"))
	assert.Len(t, curves, 1+2*(3+2))

	var doc map[string]json.RawMessage
	data, err := os.ReadFile(filepath.Join(dir, "tennis_metrics.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "compare")
	assert.Contains(t, doc, "permutation_importance")
}

func TestGenerateReport_NoModels(t *testing.T) {
	_, err := NewReporter(sport.Football, ml.Comparison{}, t.TempDir()).GenerateReport()
	assert.True(t, errors.Is(err, ml.ErrModelNotTrained))
}

func TestPrintSummary_SkipsEmptySlots(t *testing.T) {
	var buf bytes.Buffer
	NewReporter(sport.Tennis, ml.Comparison{Logistic: sampleBundle(ml.Logistic)}, "").PrintSummary(&buf)

	out := buf.String()
	assert.Contains(t, out, "logistic")
	assert.NotContains(t, out, "random_forest")
	assert.NotContains(t, out, "Confusion matrix")
	assert.Contains(t, out, "strength_a")
}
