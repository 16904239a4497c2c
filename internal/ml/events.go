package ml

import (
	"time"

	"sports-ai/internal/sport"
)

// EventType classifies registry events.
type EventType string

const (
	EventTrained        EventType = "trained"
	EventSelected       EventType = "selected"
	EventTrainingFailed EventType = "training_failed"
)

// Event describes a registry state change or a failed training run.
type Event struct {
	Type      EventType      `json:"type"`
	Sport     sport.Sport    `json:"sport"`
	Algorithm Algorithm      `json:"algorithm"`
	Metrics   *MetricsBundle `json:"metrics,omitempty"`
	Error     string         `json:"error,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Listener receives registry events. OnEvent is called synchronously from
// the registry and must not block.
type Listener interface {
	OnEvent(Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Event)

func (f ListenerFunc) OnEvent(e Event) { f(e) }
