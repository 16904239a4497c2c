package api

import (
	"errors"
	"net/http"

	"sports-ai/internal/dataset"
	"sports-ai/internal/features"
	"sports-ai/internal/ingest"
	"sports-ai/internal/ml"
	"sports-ai/internal/sport"
)

var (
	// ErrDatasetNotFound is returned when a retrain is requested for a sport
	// with no stored matches.
	ErrDatasetNotFound = errors.New("dataset not found")
	// ErrIngestDisabled is returned when the server runs without an ingester.
	ErrIngestDisabled = errors.New("ingestion is not configured")
	errBadRequest     = errors.New("bad request")
)

type errorMapping struct {
	target error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{errBadRequest, http.StatusBadRequest, "bad_request"},
	{features.ErrSchemaMismatch, http.StatusBadRequest, "schema_mismatch"},
	{features.ErrInvalidRecord, http.StatusBadRequest, "invalid_record"},
	{dataset.ErrMissingColumn, http.StatusBadRequest, "invalid_record"},
	{ml.ErrUnknownAlgorithm, http.StatusBadRequest, "unknown_algorithm"},
	{sport.ErrUnknownSport, http.StatusBadRequest, "unknown_sport"},
	{ml.ErrInsufficientData, http.StatusBadRequest, "insufficient_data"},
	{ml.ErrModelNotTrained, http.StatusNotFound, "model_not_trained"},
	{ml.ErrNoActiveModel, http.StatusNotFound, "no_active_model"},
	{ErrDatasetNotFound, http.StatusNotFound, "dataset_not_found"},
	{ml.ErrTrainingInProgress, http.StatusConflict, "training_in_progress"},
	{ml.ErrTrainingTimeout, http.StatusGatewayTimeout, "training_timeout"},
	{ingest.ErrUpstream, http.StatusBadGateway, "upstream_error"},
	{ingest.ErrNoCompetitions, http.StatusBadGateway, "upstream_error"},
	{ErrIngestDisabled, http.StatusServiceUnavailable, "ingest_disabled"},
}

// statusFor maps err to an HTTP status and error code.
func statusFor(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "internal_error"
}

func writeErr(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	WriteError(w, status, code, err.Error())
}

// writePredictErr differs from writeErr only for ErrNoActiveModel, which is a
// conflict with registry state rather than a missing resource when predicting.
func writePredictErr(w http.ResponseWriter, err error) {
	if errors.Is(err, ml.ErrNoActiveModel) {
		WriteError(w, http.StatusConflict, "no_active_model", err.Error())
		return
	}
	writeErr(w, err)
}
