package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sports-ai/internal/features"
	"sports-ai/internal/ml"
	"sports-ai/internal/sport"
	"sports-ai/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	srv      *Server
	registry *ml.Registry
	store    *storage.Store
}

func newTestEnv(t *testing.T, cfg Config, predictorOpts ...ml.PredictorOption) *testEnv {
	t.Helper()
	store, err := storage.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	reg := ml.NewRegistry(
		ml.WithSnapshotter(store),
		ml.WithTrainerConfig(ml.TrainerConfig{ForestTrees: 15, LogisticMaxIter: 200}),
	)
	pred := ml.NewPredictor(reg, predictorOpts...)
	return &testEnv{srv: NewServer(cfg, reg, pred, store), registry: reg, store: store}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body ErrorResponse
	decode(t, rec, &body)
	return body.Error
}

// footballRecords returns 30 matches spread over the three outcomes.
func footballRecords() []features.MatchRecord {
	scores := [][2]float64{{2, 0}, {1, 1}, {0, 2}}
	records := make([]features.MatchRecord, 30)
	for i := range records {
		sc := scores[i%3]
		records[i] = features.MatchRecord{
			TeamA:  fmt.Sprintf("H%d", i),
			TeamB:  fmt.Sprintf("A%d", i),
			ScoreA: sc[0],
			ScoreB: sc[1],
			Context: map[string]float64{
				"strength_a": 70 + 6*(sc[0]-sc[1]) + float64(i%5),
				"strength_b": 70,
				"form_a":     0.5 + 0.1*(sc[0]-sc[1]),
				"form_b":     0.5,
			},
		}
	}
	return records
}

func TestTrain_FailedRunKeepsStoredDataset(t *testing.T) {
	env := newTestEnv(t, Config{})

	rec := env.do(t, http.MethodPost, "/train", map[string]interface{}{
		"sport": "football", "algorithm": "logistic", "records": footballRecords(),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Valid rows, but a single outcome class cannot be trained.
	homeWins := footballRecords()[:1]
	for i := 0; i < 5; i++ {
		homeWins = append(homeWins, homeWins[0])
	}
	rec = env.do(t, http.MethodPost, "/train", map[string]interface{}{
		"sport": "football", "algorithm": "logistic", "records": homeWins,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "insufficient_data", errorCode(t, rec))

	n, err := env.store.CountMatches(sport.Football)
	require.NoError(t, err)
	assert.Equal(t, len(footballRecords()), n)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, Config{AllowFallback: true})

	rec := env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body HealthResponse
	decode(t, rec, &body)
	assert.Equal(t, "ok", body.Status)
	assert.True(t, body.Fallback)
	assert.Len(t, body.Sports, len(sport.All()))
	assert.NotEmpty(t, rec.Header().Get("X-Process-Time"))
}

func TestPredict_NoActiveModel(t *testing.T) {
	env := newTestEnv(t, Config{})

	rec := env.do(t, http.MethodPost, "/predict", map[string]interface{}{"sport": "football"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "no_active_model", errorCode(t, rec))

	rec = env.do(t, http.MethodGet, "/model/active?sport=football", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{}`, rec.Body.String())
}

func TestPredict_Fallback(t *testing.T) {
	env := newTestEnv(t, Config{AllowFallback: true}, ml.WithFallback(ml.NewFallbackPredictor()))

	rec := env.do(t, http.MethodPost, "/predict", map[string]interface{}{"strengthA": 60, "strengthB": 80, "matchId": "m-1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var pred ml.Prediction
	decode(t, rec, &pred)
	assert.Equal(t, ml.FallbackModelName, pred.Model)
	assert.Equal(t, sport.AwayWin, pred.Prediction)
	assert.Equal(t, "m-1", pred.MatchID)

	rec = env.do(t, http.MethodGet, "/health", nil)
	var health HealthResponse
	decode(t, rec, &health)
	assert.Equal(t, 1, health.FallbackUsage[sport.Football])
}

func TestTrainSelectPredictFlow(t *testing.T) {
	env := newTestEnv(t, Config{})

	rec := env.do(t, http.MethodPost, "/train", map[string]interface{}{
		"sport":     "football",
		"algorithm": "logistic",
		"records":   footballRecords(),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var trained trainResponse
	decode(t, rec, &trained)
	assert.Equal(t, "trained", trained.Status)
	assert.Equal(t, ml.Logistic, trained.Algorithm)
	assert.Equal(t, 30, trained.Rows)
	require.NotNil(t, trained.Metrics)

	stored, err := env.store.CountMatches(sport.Football)
	require.NoError(t, err)
	assert.Equal(t, 30, stored)

	rec = env.do(t, http.MethodGet, "/model/active", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sport":"football","active":"logistic"}`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/model/select", map[string]string{"sport": "football", "model": "rf"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "model_not_trained", errorCode(t, rec))

	rec = env.do(t, http.MethodGet, "/metrics/compare?sport=football", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cmp map[string]json.RawMessage
	decode(t, rec, &cmp)
	assert.Equal(t, "null", string(cmp["random_forest"]))

	rec = env.do(t, http.MethodPost, "/train/compare", map[string]interface{}{"sport": "football"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var compared compareResponse
	decode(t, rec, &compared)
	assert.NotNil(t, compared.Compare.Logistic)
	assert.NotNil(t, compared.Compare.RandomForest)

	rec = env.do(t, http.MethodPost, "/model/select", map[string]string{"sport": "football", "model": "random_forest"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/predict", map[string]interface{}{"matchId": "abc"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var pred ml.Prediction
	decode(t, rec, &pred)
	assert.Equal(t, string(ml.RandomForest), pred.Model)
	assert.Equal(t, "abc", pred.MatchID)
	sum := 0.0
	for _, p := range pred.Probabilities {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)

	rec = env.do(t, http.MethodGet, "/metrics?sport=football", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var bundle ml.MetricsBundle
	decode(t, rec, &bundle)
	assert.Equal(t, ml.RandomForest, bundle.Model)
}

func TestTrain_Multipart(t *testing.T) {
	env := newTestEnv(t, Config{})

	var csvBuf strings.Builder
	csvBuf.WriteString("team_a,team_b,strength_a,strength_b,goals_a,goals_b\n")
	for i, r := range footballRecords() {
		fmt.Fprintf(&csvBuf, "H%d,A%d,%g,%g,%g,%g\n", i, i, r.Context["strength_a"], r.Context["strength_b"], r.ScoreA, r.ScoreB)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("algo", "rf"))
	require.NoError(t, mw.WriteField("sport", "football"))
	fw, err := mw.CreateFormFile("file", "matches.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(csvBuf.String()))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/train", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var trained trainResponse
	decode(t, rec, &trained)
	assert.Equal(t, ml.RandomForest, trained.Algorithm)

	rec = env.do(t, http.MethodPost, "/train/refresh", map[string]string{"sport": "football", "algorithm": "logistic"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestErrors(t *testing.T) {
	env := newTestEnv(t, Config{})

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
		code   string
	}{
		{"unknown sport", http.MethodGet, "/metrics?sport=curling", nil, http.StatusBadRequest, "unknown_sport"},
		{"unknown algorithm", http.MethodPost, "/model/select", map[string]string{"model": "svm"}, http.StatusBadRequest, "unknown_algorithm"},
		{"refresh without dataset", http.MethodPost, "/train/refresh", map[string]string{"sport": "tennis"}, http.StatusNotFound, "dataset_not_found"},
		{"compare without dataset", http.MethodPost, "/train/compare", map[string]string{}, http.StatusNotFound, "dataset_not_found"},
		{"empty train", http.MethodPost, "/train", map[string]string{"sport": "football"}, http.StatusBadRequest, "insufficient_data"},
		{"draw in tennis", http.MethodPost, "/train", map[string]interface{}{
			"sport":   "tennis",
			"records": []features.MatchRecord{{ScoreA: 1, ScoreB: 1}},
		}, http.StatusBadRequest, "invalid_record"},
		{"short feature vector", http.MethodPost, "/predict", map[string]interface{}{"features": []float64{1, 2}}, http.StatusBadRequest, "schema_mismatch"},
		{"ingest disabled", http.MethodPost, "/ingest/statsbomb", map[string]int{}, http.StatusServiceUnavailable, "ingest_disabled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, errorCode(t, rec))
		})
	}

	rec := env.do(t, http.MethodPost, "/model/select", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{ml.ErrTrainingInProgress, http.StatusConflict},
		{ml.ErrTrainingTimeout, http.StatusGatewayTimeout},
		{&ml.Error{Op: "train", Sport: sport.Football, Err: ml.ErrInsufficientData}, http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", ml.ErrModelNotTrained), http.StatusNotFound},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		status, _ := statusFor(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
	}
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, Config{RateLimitRPS: 0.001, RateLimitBurst: 1})

	first := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, first.Code)

	second := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "rate_limited", errorCode(t, second))
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, Config{CORSOrigins: []string{"http://ui.example"}})

	req := httptest.NewRequest(http.MethodOptions, "/predict", nil)
	req.Header.Set("Origin", "http://ui.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "http://ui.example", rec.Header().Get("Access-Control-Allow-Origin"))
}
