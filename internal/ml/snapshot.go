package ml

import (
	"encoding/json"
	"fmt"
	"time"

	"sports-ai/internal/sport"
)

// Entry is the immutable content of one registry slot.
type Entry struct {
	ID        string         `json:"id"`
	Sport     sport.Sport    `json:"sport"`
	Algorithm Algorithm      `json:"algorithm"`
	TrainedAt time.Time      `json:"trained_at"`
	Metrics   *MetricsBundle `json:"metrics"`
	Model     Model          `json:"-"`
}

// SlotSnapshot is the persisted form of an Entry.
type SlotSnapshot struct {
	ID        string          `json:"id"`
	Sport     sport.Sport     `json:"sport"`
	Algorithm Algorithm       `json:"algorithm"`
	TrainedAt time.Time       `json:"trained_at"`
	Metrics   *MetricsBundle  `json:"metrics"`
	Model     json.RawMessage `json:"model"`
}

//go:generate mockgen -source=snapshot.go -destination=mocks/snapshotter_mock.go -package=mocks

// Snapshotter persists registry state. SaveSlot with activate set must store
// the slot and the active pointer atomically.
type Snapshotter interface {
	SaveSlot(snap SlotSnapshot, activate bool) error
	SaveActive(s sport.Sport, algo Algorithm) error
	LoadSlots() ([]SlotSnapshot, error)
	LoadActive() (map[sport.Sport]Algorithm, error)
}

// Snapshot converts e into its persisted form.
func (e *Entry) Snapshot() (SlotSnapshot, error) {
	raw, err := EncodeModel(e.Model)
	if err != nil {
		return SlotSnapshot{}, err
	}
	return SlotSnapshot{
		ID:        e.ID,
		Sport:     e.Sport,
		Algorithm: e.Algorithm,
		TrainedAt: e.TrainedAt,
		Metrics:   e.Metrics,
		Model:     raw,
	}, nil
}

// EntryFromSnapshot rebuilds an Entry, decoding its model.
func EntryFromSnapshot(snap SlotSnapshot) (*Entry, error) {
	model, err := DecodeModel(snap.Algorithm, snap.Model)
	if err != nil {
		return nil, err
	}
	return &Entry{
		ID:        snap.ID,
		Sport:     snap.Sport,
		Algorithm: snap.Algorithm,
		TrainedAt: snap.TrainedAt,
		Metrics:   snap.Metrics,
		Model:     model,
	}, nil
}

// EncodeModel serializes a fitted model to JSON.
func EncodeModel(m Model) ([]byte, error) {
	switch m.(type) {
	case *LogisticModel, *ForestModel:
		data, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s model: %w", m.Algorithm(), err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("%w: cannot encode %T", ErrUnknownAlgorithm, m)
	}
}

// DecodeModel restores a model encoded by EncodeModel.
func DecodeModel(algo Algorithm, data []byte) (Model, error) {
	var m Model
	switch algo {
	case Logistic:
		m = &LogisticModel{}
	case RandomForest:
		m = &ForestModel{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, string(algo))
	}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("failed to decode %s model: %w", algo, err)
	}
	return m, nil
}
