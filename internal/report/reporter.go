// Package report writes the comparison of a sport's trained models to disk as
// a text summary, a JSON document and CSV tables.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"sports-ai/internal/ml"
	"sports-ai/internal/sport"

	"github.com/rs/zerolog/log"
)

// Reporter generates model comparison reports for one sport.
type Reporter struct {
	sport       sport.Sport
	comparison  ml.Comparison
	active      ml.Algorithm
	permutation map[ml.Algorithm]map[string]float64
	outputPath  string
	now         func() time.Time
}

type Option func(*Reporter)

// WithActive marks algo as the active model in the summary.
func WithActive(algo ml.Algorithm) Option {
	return func(r *Reporter) { r.active = algo }
}

// WithPermutation adds permutation importance for algo to the importance table.
func WithPermutation(algo ml.Algorithm, importance map[string]float64) Option {
	return func(r *Reporter) { r.permutation[algo] = importance }
}

// NewReporter creates a new reporter
func NewReporter(s sport.Sport, cmp ml.Comparison, outputPath string, opts ...Option) *Reporter {
	r := &Reporter{
		sport:       s,
		comparison:  cmp,
		permutation: make(map[ml.Algorithm]map[string]float64),
		outputPath:  outputPath,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// bundles returns the trained slots in algorithm order.
func (r *Reporter) bundles() []*ml.MetricsBundle {
	var out []*ml.MetricsBundle
	for _, b := range []*ml.MetricsBundle{r.comparison.Logistic, r.comparison.RandomForest} {
		if b != nil {
			out = append(out, b)
		}
	}
	return out
}

// GenerateReport writes every report file and returns their paths.
func (r *Reporter) GenerateReport() ([]string, error) {
	if len(r.bundles()) == 0 {
		return nil, fmt.Errorf("%w: no trained models for %s", ml.ErrModelNotTrained, r.sport)
	}
	if err := os.MkdirAll(r.outputPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	steps := []struct {
		name string
		fn   func(path string) error
	}{
		{"summary.txt", r.generateSummary},
		{"metrics.json", r.generateJSONReport},
		{"confusion.csv", r.generateConfusion},
		{"importance.csv", r.generateImportance},
		{"curves.csv", r.generateCurves},
	}

	var paths []string
	for _, step := range steps {
		path := filepath.Join(r.outputPath, fmt.Sprintf("%s_%s", r.sport, step.name))
		if err := step.fn(path); err != nil {
			return nil, err
		}
		log.Info().Str("file", path).Msg("Report generated")
		paths = append(paths, path)
	}
	return paths, nil
}

func (r *Reporter) generateSummary(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	r.writeSummary(file, true)
	return nil
}

// PrintSummary prints a summary to w
func (r *Reporter) PrintSummary(w io.Writer) {
	r.writeSummary(w, false)
}

func (r *Reporter) writeSummary(w io.Writer, detailed bool) {
	fmt.Fprintf(w, "MODEL COMPARISON: %s\n", r.sport)
	fmt.Fprintf(w, "==========================\n\n")
	if r.active != "" {
		fmt.Fprintf(w, "Active model: %s\n\n", r.active)
	}

	for _, b := range r.bundles() {
		fmt.Fprintf(w, "%s\n", b.Model)
		fmt.Fprintf(w, "-------------------\n")
		fmt.Fprintf(w, "Rows: %d (train %d, eval %d)\n", b.Rows, b.TrainRows, b.EvalRows)
		fmt.Fprintf(w, "Accuracy: %.4f\n", b.Accuracy)
		fmt.Fprintf(w, "F1 (weighted): %.4f\n", b.F1Weighted)
		fmt.Fprintf(w, "Log loss: %.4f\n", b.LogLoss)

		if detailed {
			fmt.Fprintf(w, "\nConfusion matrix (rows actual, columns predicted):\n")
			fmt.Fprintf(w, "%-10s", "")
			for _, c := range b.Classes {
				fmt.Fprintf(w, "%10s", c)
			}
			fmt.Fprintln(w)
			for i, row := range b.ConfusionMatrix {
				fmt.Fprintf(w, "%-10s", b.Classes[i])
				for _, n := range row {
					fmt.Fprintf(w, "%10d", n)
				}
				fmt.Fprintln(w)
			}

			fmt.Fprintf(w, "\nPer-class AUC:\n")
			for _, c := range b.Classes {
				roc, hasROC := b.ROC[c]
				pr, hasPR := b.PR[c]
				fmt.Fprintf(w, "  %-10s ROC %s  PR %s\n", c, auc(roc.AUC, hasROC), auc(pr.AUC, hasPR))
			}
		}

		ranked := ml.RankFeatures(b.FeatureImportance)
		top := 5
		if len(ranked) < top {
			top = len(ranked)
		}
		fmt.Fprintf(w, "\nTop features:\n")
		for _, fw := range ranked[:top] {
			fmt.Fprintf(w, "  %-16s %.4f\n", fw.Name, fw.Weight)
		}
		fmt.Fprintln(w)
	}
}

func auc(v float64, ok bool) string {
	if !ok {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", v)
}

func (r *Reporter) generateJSONReport(path string) error {
	report := map[string]interface{}{
		"sport":        r.sport,
		"active":       r.active,
		"compare":      r.comparison,
		"generated_at": r.now().UTC(),
	}
	if len(r.permutation) > 0 {
		report["permutation_importance"] = r.permutation
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write JSON report: %w", err)
	}
	return nil
}

func (r *Reporter) generateConfusion(path string) error {
	return writeCSV(path, []string{"Model", "Actual", "Predicted", "Count"}, func(emit func([]string) error) error {
		for _, b := range r.bundles() {
			for i, row := range b.ConfusionMatrix {
				for j, n := range row {
					if err := emit([]string{string(b.Model), string(b.Classes[i]), string(b.Classes[j]), fmt.Sprintf("%d", n)}); err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
}

func (r *Reporter) generateImportance(path string) error {
	return writeCSV(path, []string{"Model", "Rank", "Feature", "Importance", "Permutation"}, func(emit func([]string) error) error {
		for _, b := range r.bundles() {
			perm := r.permutation[b.Model]
			for i, fw := range ml.RankFeatures(b.FeatureImportance) {
				p := ""
				if v, ok := perm[fw.Name]; ok {
					p = fmt.Sprintf("%.6f", v)
				}
				if err := emit([]string{string(b.Model), fmt.Sprintf("%d", i+1), fw.Name, fmt.Sprintf("%.6f", fw.Weight), p}); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (r *Reporter) generateCurves(path string) error {
	return writeCSV(path, []string{"Model", "Class", "Curve", "Point", "X", "Y"}, func(emit func([]string) error) error {
		for _, b := range r.bundles() {
			for _, c := range sortedLabels(b.Classes) {
				if roc, ok := b.ROC[c]; ok {
					for i := range roc.FPR {
						if err := emit(curveRow(b.Model, c, "roc", i, roc.FPR[i], roc.TPR[i])); err != nil {
							return err
						}
					}
				}
				if pr, ok := b.PR[c]; ok {
					for i := range pr.Recall {
						if err := emit(curveRow(b.Model, c, "pr", i, pr.Recall[i], pr.Precision[i])); err != nil {
							return err
						}
					}
				}
			}
		}
		return nil
	})
}

func curveRow(algo ml.Algorithm, c sport.Label, curve string, i int, x, y float64) []string {
	return []string{string(algo), string(c), curve, fmt.Sprintf("%d", i), fmt.Sprintf("%.6f", x), fmt.Sprintf("%.6f", y)}
}

func sortedLabels(labels []sport.Label) []sport.Label {
	out := append([]sport.Label(nil), labels...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func writeCSV(path string, header []string, rows func(emit func([]string) error) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Base(path), err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return err
	}
	if err := rows(writer.Write); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}
