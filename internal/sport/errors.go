package sport

import "errors"

var (
	// ErrUnknownSport is returned for names outside the supported set.
	ErrUnknownSport = errors.New("unknown sport")
	// ErrDrawNotAllowed is returned when level scores are given for a sport without draws.
	ErrDrawNotAllowed = errors.New("draw not possible for sport")
)
