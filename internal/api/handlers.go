package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"sports-ai/internal/dataset"
	"sports-ai/internal/features"
	"sports-ai/internal/ml"
	"sports-ai/internal/sport"

	"github.com/rs/zerolog/log"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status        string              `json:"status"`
	Fallback      bool                `json:"fallback"`
	FallbackUsage map[sport.Sport]int `json:"fallbackUsage,omitempty"`
	Sports        []ml.SportStatus    `json:"sports"`
}

type selectRequest struct {
	Sport string `json:"sport"`
	Model string `json:"model"`
}

type trainRequest struct {
	Sport     string                 `json:"sport"`
	Algorithm string                 `json:"algorithm"`
	Records   []features.MatchRecord `json:"records"`
}

type refreshRequest struct {
	Sport     string `json:"sport"`
	Algorithm string `json:"algorithm"`
}

type compareRequest struct {
	Sport string `json:"sport"`
	Force bool   `json:"force"`
}

type ingestRequest struct {
	CompetitionID int `json:"competitionId"`
	SeasonID      int `json:"seasonId"`
}

type trainResponse struct {
	Status    string            `json:"status"`
	Sport     sport.Sport       `json:"sport"`
	Algorithm ml.Algorithm      `json:"algorithm"`
	ID        string            `json:"id"`
	Rows      int               `json:"rows"`
	Metrics   *ml.MetricsBundle `json:"metrics"`
}

type compareResponse struct {
	Status  string        `json:"status"`
	Sport   sport.Sport   `json:"sport"`
	Compare ml.Comparison `json:"compare"`
}

type ingestResponse struct {
	Status        string        `json:"status"`
	CompetitionID int           `json:"competition_id"`
	SeasonID      int           `json:"season_id"`
	Rows          int           `json:"rows"`
	Compare       ml.Comparison `json:"compare"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		Fallback:      s.cfg.AllowFallback,
		FallbackUsage: s.predictor.FallbackUsage(),
		Sports:        s.registry.Status(),
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	sp, err := s.parseSport(r.URL.Query().Get("sport"))
	if err != nil {
		writeErr(w, err)
		return
	}
	bundle, err := s.registry.Metrics(sp)
	if errors.Is(err, ml.ErrNoActiveModel) {
		WriteJSON(w, http.StatusOK, struct{}{})
		return
	}
	if err != nil {
		writeErr(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, bundle)
}

func (s *Server) handleMetricsCompare(w http.ResponseWriter, r *http.Request) {
	sp, err := s.parseSport(r.URL.Query().Get("sport"))
	if err != nil {
		writeErr(w, err)
		return
	}
	cmp, err := s.registry.Compare(sp)
	if err != nil {
		writeErr(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, cmp)
}

func (s *Server) handleModelActive(w http.ResponseWriter, r *http.Request) {
	sp, err := s.parseSport(r.URL.Query().Get("sport"))
	if err != nil {
		writeErr(w, err)
		return
	}
	algo, err := s.registry.Active(sp)
	if err != nil {
		writeErr(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"sport": string(sp), "active": string(algo)})
}

func (s *Server) handleModelSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, err)
		return
	}
	sp, err := s.parseSport(req.Sport)
	if err != nil {
		writeErr(w, err)
		return
	}
	algo, err := ml.ParseAlgorithm(req.Model)
	if err != nil {
		writeErr(w, err)
		return
	}
	if err := s.registry.Select(sp, algo); err != nil {
		writeErr(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "sport": string(sp), "active": string(algo)})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req PredictRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, err)
		return
	}
	sp, err := s.parseSport(req.Sport)
	if err != nil {
		writeErr(w, err)
		return
	}

	var pred *ml.Prediction
	if len(req.Features) > 0 {
		pred, err = s.predictor.Predict(r.Context(), sp, features.Vector(req.Features))
	} else {
		pred, err = s.predictor.PredictPayload(r.Context(), sp, req.Payload())
	}
	if err != nil {
		writePredictErr(w, err)
		return
	}
	pred.MatchID = req.MatchID
	WriteJSON(w, http.StatusOK, pred)
}

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var (
		sp      sport.Sport
		algo    ml.Algorithm
		records []features.MatchRecord
		err     error
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		sp, algo, records, err = s.parseMultipartTrain(r)
	} else {
		var req trainRequest
		if err = decodeJSON(w, r, &req); err == nil {
			sp, algo, err = s.parseSlot(req.Sport, req.Algorithm)
			records = req.Records
		}
	}
	if err != nil {
		writeErr(w, err)
		return
	}
	if len(records) == 0 {
		writeErr(w, fmt.Errorf("%w: no match records", ml.ErrInsufficientData))
		return
	}
	if _, _, err := features.EncodeAll(records, sp); err != nil {
		writeErr(w, err)
		return
	}

	s.train(w, r, sp, algo, records, true)
}

func (s *Server) parseMultipartTrain(r *http.Request) (sport.Sport, ml.Algorithm, []features.MatchRecord, error) {
	if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
		return "", "", nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	sp, algo, err := s.parseSlot(r.FormValue("sport"), r.FormValue("algo"))
	if err != nil {
		return "", "", nil, err
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		return "", "", nil, fmt.Errorf("%w: missing file: %v", errBadRequest, err)
	}
	defer file.Close()

	records, err := dataset.LoadCSV(file, sp)
	if err != nil {
		return "", "", nil, err
	}
	return sp, algo, records, nil
}

func (s *Server) handleTrainRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, err)
		return
	}
	sp, algo, err := s.parseSlot(req.Sport, req.Algorithm)
	if err != nil {
		writeErr(w, err)
		return
	}
	records, err := s.storedDataset(sp)
	if err != nil {
		writeErr(w, err)
		return
	}
	s.train(w, r, sp, algo, records, false)
}

// train runs one training job. With store set, records replace the sport's
// stored dataset once the run has succeeded; a rejected or failed run keeps
// the previous dataset.
func (s *Server) train(w http.ResponseWriter, r *http.Request, sp sport.Sport, algo ml.Algorithm, records []features.MatchRecord, store bool) {
	entry, err := s.registry.Train(r.Context(), sp, algo, records)
	if err != nil {
		writeErr(w, err)
		return
	}
	if store {
		if err := s.storeDataset(sp, records); err != nil {
			writeErr(w, err)
			return
		}
	}
	WriteJSON(w, http.StatusOK, trainResponse{
		Status:    "trained",
		Sport:     sp,
		Algorithm: algo,
		ID:        entry.ID,
		Rows:      len(records),
		Metrics:   entry.Metrics,
	})
}

func (s *Server) handleTrainCompare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, err)
		return
	}
	sp, err := s.parseSport(req.Sport)
	if err != nil {
		writeErr(w, err)
		return
	}
	records, err := s.storedDataset(sp)
	if err != nil {
		writeErr(w, err)
		return
	}
	cmp, err := s.registry.TrainCompare(r.Context(), sp, records, req.Force)
	if err != nil {
		writeErr(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, compareResponse{Status: "trained", Sport: sp, Compare: cmp})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if s.ingester == nil {
		writeErr(w, ErrIngestDisabled)
		return
	}
	var req ingestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, err)
		return
	}

	res, err := s.ingester.Ingest(r.Context(), req.CompetitionID, req.SeasonID)
	if err != nil {
		writeErr(w, err)
		return
	}
	if err := s.storeDataset(sport.Football, res.Records); err != nil {
		writeErr(w, err)
		return
	}
	cmp, err := s.registry.TrainCompare(r.Context(), sport.Football, res.Records, true)
	if err != nil {
		writeErr(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, ingestResponse{
		Status:        "ingested",
		CompetitionID: res.CompetitionID,
		SeasonID:      res.SeasonID,
		Rows:          res.Rows,
		Compare:       cmp,
	})
}

func (s *Server) storeDataset(sp sport.Sport, records []features.MatchRecord) error {
	if err := s.store.ReplaceMatches(sp, records); err != nil {
		return fmt.Errorf("failed to store dataset: %w", err)
	}
	if s.datasets != nil {
		s.datasets.DatasetRowsSet(string(sp), len(records))
	}
	log.Info().Str("sport", string(sp)).Int("rows", len(records)).Msg("Dataset stored")
	return nil
}

func (s *Server) storedDataset(sp sport.Sport) ([]features.MatchRecord, error) {
	records, err := s.store.GetMatches(sp)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrDatasetNotFound, sp)
	}
	return records, nil
}

func (s *Server) parseSport(name string) (sport.Sport, error) {
	if strings.TrimSpace(name) == "" {
		return s.cfg.DefaultSport, nil
	}
	return sport.Parse(name)
}

// parseSlot resolves a sport and algorithm, defaulting the algorithm to
// logistic.
func (s *Server) parseSlot(sportName, algoName string) (sport.Sport, ml.Algorithm, error) {
	sp, err := s.parseSport(sportName)
	if err != nil {
		return "", "", err
	}
	if strings.TrimSpace(algoName) == "" {
		return sp, ml.Logistic, nil
	}
	algo, err := ml.ParseAlgorithm(algoName)
	if err != nil {
		return "", "", err
	}
	return sp, algo, nil
}

// decodeJSON reads a JSON body. An empty body leaves v at its zero value.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}
