// Package features turns normalized match records into the fixed-order numeric
// vectors the classifiers consume.
//
// The schema of a vector depends only on the sport: every per-side stat stem of
// the sport profile contributes an _a and _b column, followed by one _diff
// column per stem. Missing numeric fields default to zero and keys outside the
// schema are ignored.
package features

import (
	"fmt"
	"math"

	"sports-ai/internal/sport"
)

// MatchRecord is one normalized historical match.
type MatchRecord struct {
	Sport   sport.Sport        `json:"sport,omitempty"`
	TeamA   string             `json:"team_a"`
	TeamB   string             `json:"team_b"`
	ScoreA  float64            `json:"goals_a"`
	ScoreB  float64            `json:"goals_b"`
	Date    string             `json:"date,omitempty"`
	Context map[string]float64 `json:"context,omitempty"`
}

// Vector is an encoded feature vector in schema order.
type Vector []float64

// Encode maps record into the schema of s and derives its label.
func Encode(record MatchRecord, s sport.Sport) (Vector, sport.Label, error) {
	p, err := sport.Lookup(s)
	if err != nil {
		return nil, "", err
	}
	if record.Sport != "" && record.Sport != s {
		return nil, "", fmt.Errorf("%w: record is %s, schema is %s", ErrSchemaMismatch, record.Sport, s)
	}
	if record.ScoreA < 0 || record.ScoreB < 0 || !finite(record.ScoreA) || !finite(record.ScoreB) {
		return nil, "", fmt.Errorf("%w: scores %v-%v", ErrInvalidRecord, record.ScoreA, record.ScoreB)
	}

	label, err := p.LabelFor(record.ScoreA, record.ScoreB)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	vec, err := encode(p, record.Context)
	if err != nil {
		return nil, "", err
	}
	return vec, label, nil
}

// EncodePayload encodes an unlabeled feature payload, as sent for prediction.
func EncodePayload(payload map[string]float64, s sport.Sport) (Vector, error) {
	p, err := sport.Lookup(s)
	if err != nil {
		return nil, err
	}
	return encode(p, payload)
}

// FromVector validates a pre-encoded vector against the schema of s.
func FromVector(raw []float64, s sport.Sport) (Vector, error) {
	p, err := sport.Lookup(s)
	if err != nil {
		return nil, err
	}
	if len(raw) != p.NumFeatures() {
		return nil, fmt.Errorf("%w: %s expects %d features, got %d", ErrSchemaMismatch, s, p.NumFeatures(), len(raw))
	}
	names := p.FeatureNames()
	vec := make(Vector, len(raw))
	for i, v := range raw {
		if !finite(v) {
			return nil, fmt.Errorf("%w: %s is not finite", ErrSchemaMismatch, names[i])
		}
		vec[i] = v
	}
	return vec, nil
}

// EncodeAll encodes records in order and stops at the first failure.
func EncodeAll(records []MatchRecord, s sport.Sport) ([]Vector, []sport.Label, error) {
	vecs := make([]Vector, 0, len(records))
	labels := make([]sport.Label, 0, len(records))
	for i, r := range records {
		v, l, err := Encode(r, s)
		if err != nil {
			return nil, nil, fmt.Errorf("record %d (%s vs %s): %w", i, r.TeamA, r.TeamB, err)
		}
		vecs = append(vecs, v)
		labels = append(labels, l)
	}
	return vecs, labels, nil
}

func encode(p sport.Profile, values map[string]float64) (Vector, error) {
	n := len(p.Stats)
	vec := make(Vector, p.NumFeatures())
	for i, stem := range p.Stats {
		a, err := lookup(values, stem+"_a")
		if err != nil {
			return nil, err
		}
		b, err := lookup(values, stem+"_b")
		if err != nil {
			return nil, err
		}
		vec[2*i] = a
		vec[2*i+1] = b
		vec[2*n+i] = a - b
	}
	return vec, nil
}

func lookup(values map[string]float64, name string) (float64, error) {
	v, ok := values[name]
	if !ok {
		return 0, nil
	}
	if !finite(v) {
		return 0, fmt.Errorf("%w: %s is not finite", ErrSchemaMismatch, name)
	}
	return v, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
