package features

import "errors"

var (
	// ErrSchemaMismatch means a record or payload does not fit the sport's feature schema.
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrInvalidRecord means the record cannot be labeled (negative or impossible scores).
	ErrInvalidRecord = errors.New("invalid match record")
)
