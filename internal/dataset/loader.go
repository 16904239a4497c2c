package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"sports-ai/internal/features"
	"sports-ai/internal/sport"

	"github.com/rs/zerolog/log"
)

// ErrMissingColumn is returned when a CSV lacks the score columns.
var ErrMissingColumn = errors.New("missing required column")

var reservedColumns = map[string]bool{
	"date": true, "team_a": true, "team_b": true, "sport": true, "outcome": true,
	"goals_a": true, "goals_b": true, "score_a": true, "score_b": true,
}

// LoadCSVFile reads match records from a CSV file.
func LoadCSVFile(path string, s sport.Sport) ([]features.MatchRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	records, err := LoadCSV(file, s)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("file", path).
		Str("sport", string(s)).
		Int("rows", len(records)).
		Msg("CSV matches loaded")

	return records, nil
}

// LoadCSV parses match rows. Required columns are goals_a/goals_b (or
// score_a/score_b); every other numeric column becomes context. Rows with
// unparseable scores are skipped. A sport column, when present, must agree
// with s.
func LoadCSV(r io.Reader, s sport.Sport) ([]features.MatchRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	indices := make(map[string]int)
	for i, col := range header {
		indices[strings.ToLower(strings.TrimSpace(col))] = i
	}

	scoreA, okA := firstIndex(indices, "goals_a", "score_a")
	scoreB, okB := firstIndex(indices, "goals_b", "score_b")
	if !okA || !okB {
		return nil, fmt.Errorf("%w: goals_a/goals_b", ErrMissingColumn)
	}

	var records []features.MatchRecord
	skipped := 0
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		a, errA := strconv.ParseFloat(strings.TrimSpace(row[scoreA]), 64)
		b, errB := strconv.ParseFloat(strings.TrimSpace(row[scoreB]), 64)
		if errA != nil || errB != nil {
			skipped++
			continue
		}

		rec := features.MatchRecord{
			Sport:   s,
			TeamA:   column(row, indices, "team_a"),
			TeamB:   column(row, indices, "team_b"),
			Date:    column(row, indices, "date"),
			ScoreA:  a,
			ScoreB:  b,
			Context: make(map[string]float64),
		}
		if name := column(row, indices, "sport"); name != "" {
			parsed, err := sport.Parse(name)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			rec.Sport = parsed
		}

		for col, idx := range indices {
			if reservedColumns[col] || idx >= len(row) {
				continue
			}
			if v, err := strconv.ParseFloat(strings.TrimSpace(row[idx]), 64); err == nil {
				rec.Context[col] = v
			}
		}
		records = append(records, rec)
	}

	if skipped > 0 {
		log.Warn().Int("skipped", skipped).Msg("Skipped CSV rows with unparseable scores")
	}
	return records, nil
}

// WriteCSV writes records with the base columns of the sport's schema plus any
// other context keys, in a stable column order.
func WriteCSV(w io.Writer, records []features.MatchRecord, s sport.Sport) error {
	p, err := sport.Lookup(s)
	if err != nil {
		return err
	}

	base := make([]string, 0, len(p.Stats)*2)
	known := make(map[string]bool)
	for _, stem := range p.Stats {
		base = append(base, stem+"_a", stem+"_b")
		known[stem+"_a"], known[stem+"_b"] = true, true
	}
	var extra []string
	seen := make(map[string]bool)
	for _, r := range records {
		for k := range r.Context {
			if !known[k] && !seen[k] {
				seen[k] = true
				extra = append(extra, k)
			}
		}
	}
	sort.Strings(extra)
	cols := append(base, extra...)

	writer := csv.NewWriter(w)
	header := append([]string{"date", "team_a", "team_b"}, cols...)
	header = append(header, "goals_a", "goals_b")
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, r := range records {
		row := []string{r.Date, r.TeamA, r.TeamB}
		for _, c := range cols {
			row = append(row, strconv.FormatFloat(r.Context[c], 'f', -1, 64))
		}
		row = append(row,
			strconv.FormatFloat(r.ScoreA, 'f', -1, 64),
			strconv.FormatFloat(r.ScoreB, 'f', -1, 64))
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func firstIndex(indices map[string]int, names ...string) (int, bool) {
	for _, n := range names {
		if i, ok := indices[n]; ok {
			return i, true
		}
	}
	return 0, false
}

func column(row []string, indices map[string]int, name string) string {
	if i, ok := indices[name]; ok && i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}
