package ingest

import "errors"

var (
	// ErrNoCompetitions is returned when the competitions index is empty.
	ErrNoCompetitions = errors.New("no competitions found")
	// ErrUpstream is returned for non-2xx responses from the data source.
	ErrUpstream = errors.New("upstream request failed")
)
