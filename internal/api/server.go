// Package api exposes the model registry over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"sports-ai/internal/features"
	"sports-ai/internal/ingest"
	"sports-ai/internal/ml"
	"sports-ai/internal/sport"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 32 << 20

// DatasetStore keeps the last uploaded dataset of each sport.
type DatasetStore interface {
	ReplaceMatches(s sport.Sport, records []features.MatchRecord) error
	GetMatches(s sport.Sport) ([]features.MatchRecord, error)
	CountMatches(s sport.Sport) (int, error)
}

// HTTPRecorder receives one observation per served request.
type HTTPRecorder interface {
	HTTPRequestInc(route, code string)
}

// DatasetRecorder is told the size of every stored dataset.
type DatasetRecorder interface {
	DatasetRowsSet(sport string, rows int)
}

// Config holds the HTTP-facing settings.
type Config struct {
	Port           int
	DefaultSport   sport.Sport
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
	AllowFallback  bool
}

// Server is the HTTP boundary of the service.
type Server struct {
	cfg       Config
	registry  *ml.Registry
	predictor *ml.Predictor
	store     DatasetStore
	ingester  *ingest.Ingester
	events    http.Handler
	page      http.HandlerFunc
	recorder  HTTPRecorder
	datasets  DatasetRecorder

	handler http.Handler
	server  *http.Server
}

// Option configures optional Server collaborators.
type Option func(*Server)

// WithIngester enables POST /ingest/statsbomb.
func WithIngester(i *ingest.Ingester) Option {
	return func(s *Server) { s.ingester = i }
}

// WithEvents mounts h at /ws and page at /dashboard.
func WithEvents(h http.Handler, page http.HandlerFunc) Option {
	return func(s *Server) {
		s.events = h
		s.page = page
	}
}

// WithRecorder reports per-route request counts and stored dataset sizes.
func WithRecorder(r interface {
	HTTPRecorder
	DatasetRecorder
}) Option {
	return func(s *Server) {
		s.recorder = r
		s.datasets = r
	}
}

// NewServer builds the router, middleware chain and CORS wrapper. The
// registry, predictor and store are required; ingestion, the event stream
// and request metrics are enabled through options.
func NewServer(cfg Config, registry *ml.Registry, predictor *ml.Predictor, store DatasetStore, opts ...Option) *Server {
	if cfg.DefaultSport == "" {
		cfg.DefaultSport = sport.Football
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}
	s := &Server{
		cfg:       cfg,
		registry:  registry,
		predictor: predictor,
		store:     store,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := mux.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(TimingMiddleware, RequestLogger(s.recorder))
	r.Use(RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)
	r.HandleFunc("/metrics/compare", s.handleMetricsCompare).Methods(http.MethodGet)
	r.HandleFunc("/model/active", s.handleModelActive).Methods(http.MethodGet)
	r.HandleFunc("/model/select", s.handleModelSelect).Methods(http.MethodPost)
	r.HandleFunc("/predict", s.handlePredict).Methods(http.MethodPost)
	r.HandleFunc("/train", s.handleTrain).Methods(http.MethodPost)
	r.HandleFunc("/train/refresh", s.handleTrainRefresh).Methods(http.MethodPost)
	r.HandleFunc("/train/compare", s.handleTrainCompare).Methods(http.MethodPost)
	r.HandleFunc("/ingest/statsbomb", s.handleIngest).Methods(http.MethodPost)
	if s.events != nil {
		r.Handle("/ws", s.events).Methods(http.MethodGet)
	}
	if s.page != nil {
		r.HandleFunc("/dashboard", s.page).Methods(http.MethodGet)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	s.handler = c.Handler(r)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // training requests run synchronously
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Handler returns the full middleware-wrapped router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins serving HTTP requests
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("Starting API server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
