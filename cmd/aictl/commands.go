package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"sports-ai/internal/dataset"
	"sports-ai/internal/features"
	"sports-ai/internal/ingest"
	"sports-ai/internal/ml"
	"sports-ai/internal/report"
	"sports-ai/internal/sport"

	"github.com/spf13/cobra"
)

// records returns the CSV at path, storing it as the sport's dataset, or the
// stored dataset when path is empty. With appendRows the CSV is added after
// the stored rows and the combined dataset is returned.
func (a *app) records(path string, appendRows bool) ([]features.MatchRecord, error) {
	if path == "" {
		records, err := a.store.GetMatches(a.sport)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, fmt.Errorf("no stored dataset for %s, pass --file", a.sport)
		}
		return records, nil
	}

	records, err := dataset.LoadCSVFile(path, a.sport)
	if err != nil {
		return nil, err
	}
	if _, _, err := features.EncodeAll(records, a.sport); err != nil {
		return nil, err
	}
	if !appendRows {
		if err := a.store.ReplaceMatches(a.sport, records); err != nil {
			return nil, err
		}
		return records, nil
	}
	if err := a.store.AppendMatches(a.sport, records); err != nil {
		return nil, err
	}
	return a.store.GetMatches(a.sport)
}

func trainCmd(g *globalFlags) *cobra.Command {
	var file, algo string
	var appendRows bool
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train one algorithm for a sport",
		RunE: withApp(g, func(cmd *cobra.Command, a *app, args []string) error {
			alg, err := ml.ParseAlgorithm(algo)
			if err != nil {
				return err
			}
			records, err := a.records(file, appendRows)
			if err != nil {
				return err
			}
			entry, err := a.registry.Train(cmd.Context(), a.sport, alg, records)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "trained %s/%s id=%s rows=%d\n", a.sport, alg, entry.ID, len(records))
			printBundle(cmd.OutOrStdout(), entry.Metrics)
			return nil
		}),
	}
	cmd.Flags().StringVar(&file, "file", "", "CSV of historical matches (default: stored dataset)")
	cmd.Flags().StringVar(&algo, "algo", string(ml.Logistic), "algorithm: logistic or random_forest")
	cmd.Flags().BoolVar(&appendRows, "append", false, "add the CSV rows to the stored dataset instead of replacing it")
	return cmd
}

func compareCmd(g *globalFlags) *cobra.Command {
	var file string
	var force, appendRows bool
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Train missing algorithms and compare them",
		RunE: withApp(g, func(cmd *cobra.Command, a *app, args []string) error {
			records, err := a.records(file, appendRows)
			if err != nil {
				return err
			}
			cmp, err := a.registry.TrainCompare(cmd.Context(), a.sport, records, force)
			if err != nil {
				return err
			}
			printComparison(cmd.OutOrStdout(), cmp)
			return nil
		}),
	}
	cmd.Flags().StringVar(&file, "file", "", "CSV of historical matches (default: stored dataset)")
	cmd.Flags().BoolVar(&force, "force", false, "retrain slots that are already trained")
	cmd.Flags().BoolVar(&appendRows, "append", false, "add the CSV rows to the stored dataset instead of replacing it")
	return cmd
}

func selectCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "select <algorithm>",
		Short: "Make a trained algorithm the active model",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(g, func(cmd *cobra.Command, a *app, args []string) error {
			alg, err := ml.ParseAlgorithm(args[0])
			if err != nil {
				return err
			}
			if err := a.registry.Select(a.sport, alg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "active model for %s: %s\n", a.sport, alg)
			return nil
		}),
	}
}

func activeCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "active",
		Short: "Show the active model of a sport",
		RunE: withApp(g, func(cmd *cobra.Command, a *app, args []string) error {
			alg, err := a.registry.Active(a.sport)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", alg)
			return nil
		}),
	}
}

func predictCmd(g *globalFlags) *cobra.Command {
	var vector string
	var fallback bool
	var matchID string
	fields := map[string]*float64{}
	defaults := []struct {
		flag, key string
		value     float64
	}{
		{"strength-a", "strength_a", 75}, {"strength-b", "strength_b", 70},
		{"form-a", "form_a", 0.65}, {"form-b", "form_b", 0.62},
		{"xg-a", "xg_a", 1.7}, {"xg-b", "xg_b", 1.5},
		{"injuries-a", "injuries_a", 1}, {"injuries-b", "injuries_b", 1},
		{"shots-a", "shots_a", 14}, {"shots-b", "shots_b", 12},
		{"poss-a", "poss_a", 52}, {"poss-b", "poss_b", 48},
	}

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict a match with the active model",
		RunE: withApp(g, func(cmd *cobra.Command, a *app, args []string) error {
			var opts []ml.PredictorOption
			if fallback {
				opts = append(opts, ml.WithFallback(ml.NewFallbackPredictor()))
			}
			p := ml.NewPredictor(a.registry, append(opts, ml.WithPredictTimeout(a.settings.PredictTimeout))...)

			var pred *ml.Prediction
			var err error
			if vector != "" {
				x, perr := parseVector(vector)
				if perr != nil {
					return perr
				}
				pred, err = p.Predict(cmd.Context(), a.sport, x)
			} else {
				payload := make(map[string]float64, len(fields))
				for k, v := range fields {
					payload[k] = *v
				}
				pred, err = p.PredictPayload(cmd.Context(), a.sport, payload)
			}
			if err != nil {
				return err
			}
			pred.MatchID = matchID

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(pred)
		}),
	}
	for _, d := range defaults {
		v := new(float64)
		fields[d.key] = v
		cmd.Flags().Float64Var(v, d.flag, d.value, d.key)
	}
	cmd.Flags().StringVar(&vector, "features", "", "comma-separated encoded feature vector")
	cmd.Flags().BoolVar(&fallback, "fallback", false, "use the strength heuristic when no model is active")
	cmd.Flags().StringVar(&matchID, "match-id", "", "identifier echoed in the output")
	return cmd
}

func ingestCmd(g *globalFlags) *cobra.Command {
	var competition, season int
	var train bool
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Fetch a StatsBomb season as the football dataset",
		RunE: withApp(g, func(cmd *cobra.Command, a *app, args []string) error {
			sb := a.settings.StatsBomb
			client := ingest.NewStatsBombClient(sb.BaseURL, ingest.WithTimeout(sb.Timeout), ingest.WithRateLimit(sb.RPS))
			res, err := ingest.NewIngester(client).Ingest(cmd.Context(), competition, season)
			if err != nil {
				return err
			}
			if err := a.store.ReplaceMatches(sport.Football, res.Records); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ingested competition %d season %d: %d rows\n", res.CompetitionID, res.SeasonID, res.Rows)

			if !train {
				return nil
			}
			cmp, err := a.registry.TrainCompare(cmd.Context(), sport.Football, res.Records, true)
			if err != nil {
				return err
			}
			printComparison(cmd.OutOrStdout(), cmp)
			return nil
		}),
	}
	cmd.Flags().IntVar(&competition, "competition", 0, "StatsBomb competition id (default: first listed)")
	cmd.Flags().IntVar(&season, "season", 0, "StatsBomb season id (default: first listed)")
	cmd.Flags().BoolVar(&train, "train", true, "train and compare both algorithms after ingesting")
	return cmd
}

func reportCmd(g *globalFlags) *cobra.Command {
	var out string
	var permutation bool
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write comparison reports for a sport",
		RunE: withApp(g, func(cmd *cobra.Command, a *app, args []string) error {
			cmp, err := a.registry.Compare(a.sport)
			if err != nil {
				return err
			}

			var opts []report.Option
			if alg, err := a.registry.Active(a.sport); err == nil {
				opts = append(opts, report.WithActive(alg))
			}
			if permutation {
				popts, err := a.permutationOptions()
				if err != nil {
					return err
				}
				opts = append(opts, popts...)
			}

			r := report.NewReporter(a.sport, cmp, out, opts...)
			paths, err := r.GenerateReport()
			if err != nil {
				return err
			}
			r.PrintSummary(cmd.OutOrStdout())
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		}),
	}
	cmd.Flags().StringVar(&out, "out", "reports", "output directory")
	cmd.Flags().BoolVar(&permutation, "permutation", true, "include permutation importance from the stored dataset")
	return cmd
}

// permutationOptions scores every trained slot on the stored dataset's
// evaluation split.
func (a *app) permutationOptions() ([]report.Option, error) {
	records, err := a.store.GetMatches(a.sport)
	if err != nil || len(records) == 0 {
		return nil, err
	}
	ds, err := a.builder.Build(records, a.sport)
	if err != nil {
		return nil, err
	}
	var opts []report.Option
	for _, alg := range ml.Algorithms() {
		entry, err := a.registry.Entry(a.sport, alg)
		if err != nil {
			continue
		}
		opts = append(opts, report.WithPermutation(alg, ml.PermutationImportance(entry.Model, ds, a.settings.SplitSeed)))
	}
	return opts, nil
}

func parseVector(s string) (features.Vector, error) {
	parts := strings.Split(s, ",")
	x := make(features.Vector, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		x[i] = v
	}
	return x, nil
}

func printBundle(w io.Writer, b *ml.MetricsBundle) {
	if b == nil {
		return
	}
	fmt.Fprintf(w, "  accuracy=%.4f f1=%.4f log_loss=%.4f eval_rows=%d\n", b.Accuracy, b.F1Weighted, b.LogLoss, b.EvalRows)
}

func printComparison(w io.Writer, cmp ml.Comparison) {
	for _, row := range []struct {
		algo ml.Algorithm
		b    *ml.MetricsBundle
	}{{ml.Logistic, cmp.Logistic}, {ml.RandomForest, cmp.RandomForest}} {
		if row.b == nil {
			fmt.Fprintf(w, "%-14s not trained\n", row.algo)
			continue
		}
		fmt.Fprintf(w, "%-14s", row.algo)
		printBundle(w, row.b)
	}
}
