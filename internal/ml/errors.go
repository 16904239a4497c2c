package ml

import (
	"errors"
	"fmt"

	"sports-ai/internal/sport"
)

var (
	// ErrUnknownAlgorithm is returned for algorithm names outside the supported set.
	ErrUnknownAlgorithm = errors.New("unknown algorithm")
	// ErrInsufficientData means the dataset cannot support training or evaluation.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrModelNotTrained is returned when a (sport, algorithm) slot is empty.
	ErrModelNotTrained = errors.New("model not trained")
	// ErrNoActiveModel is returned when a sport has no active algorithm yet.
	ErrNoActiveModel = errors.New("no active model")
	// ErrTrainingInProgress is returned when the slot is already being trained.
	ErrTrainingInProgress = errors.New("training already in progress")
	// ErrTrainingTimeout is returned when training exceeds its deadline.
	ErrTrainingTimeout = errors.New("training timed out")
)

// Error records the registry operation and slot that failed.
type Error struct {
	Op        string
	Sport     sport.Sport
	Algorithm Algorithm
	Err       error
}

func (e *Error) Error() string {
	switch {
	case e.Algorithm != "":
		return fmt.Sprintf("%s %s/%s: %v", e.Op, e.Sport, e.Algorithm, e.Err)
	case e.Sport != "":
		return fmt.Sprintf("%s %s: %v", e.Op, e.Sport, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

func wrapErr(op string, s sport.Sport, a Algorithm, err error) error {
	if err == nil {
		return nil
	}
	var already *Error
	if errors.As(err, &already) {
		return err
	}
	return &Error{Op: op, Sport: s, Algorithm: a, Err: err}
}
