package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"sports-ai/internal/api"
	"sports-ai/internal/cfg"
	"sports-ai/internal/dashboard"
	"sports-ai/internal/dataset"
	"sports-ai/internal/ingest"
	"sports-ai/internal/metrics"
	"sports-ai/internal/ml"
	"sports-ai/internal/sport"
	"sports-ai/internal/storage"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load(".env")

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	setupLogging(c.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	mw := metrics.NewWrapper(m)

	store, err := storage.New(c.DataPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", c.DataPath).Msg("storage initialization failed")
	}
	defer store.Close()
	reportStoredDatasets(store, mw)

	registry := ml.NewRegistry(
		ml.WithSnapshotter(store),
		ml.WithRegistryMetrics(mw),
		ml.WithTrainTimeout(c.TrainTimeout),
		ml.WithTrainerConfig(c.Trainer),
		ml.WithBuilder(dataset.NewBuilder(dataset.WithSeed(c.SplitSeed), dataset.WithTestSize(c.TestSize))),
	)
	if err := registry.Restore(); err != nil {
		log.Fatal().Err(err).Msg("registry restore failed")
	}

	hub := dashboard.NewHub(registry, dashboard.DefaultStatusInterval)
	registry.AddListener(hub)
	if err := hub.Start(); err != nil {
		log.Fatal().Err(err).Msg("dashboard hub start failed")
	}
	defer hub.Stop()

	predictorOpts := []ml.PredictorOption{ml.WithMetrics(mw), ml.WithPredictTimeout(c.PredictTimeout)}
	if c.AllowFallback {
		predictorOpts = append(predictorOpts, ml.WithFallback(ml.NewFallbackPredictor()))
		log.Warn().Msg("Fallback heuristic enabled for sports without an active model")
	}
	predictor := ml.NewPredictor(registry, predictorOpts...)

	client := ingest.NewStatsBombClient(c.StatsBomb.BaseURL,
		ingest.WithTimeout(c.StatsBomb.Timeout),
		ingest.WithRateLimit(c.StatsBomb.RPS),
		ingest.WithFetchRecorder(mw))

	server := api.NewServer(api.Config{
		Port:           c.Port,
		DefaultSport:   c.DefaultSport,
		CORSOrigins:    c.CORSOrigins,
		RateLimitRPS:   c.RateLimitRPS,
		RateLimitBurst: c.RateLimitBurst,
		AllowFallback:  c.AllowFallback,
	}, registry, predictor, store,
		api.WithIngester(ingest.NewIngester(client)),
		api.WithEvents(hub, hub.HandlePage),
		api.WithRecorder(mw))

	var wg sync.WaitGroup
	startMetricsServer(ctx, &wg, c.MetricsPort)
	startAPIServer(ctx, &wg, cancel, server)

	waitForShutdown(ctx, cancel, &wg)
}

func setupLogging(level string) {
	l, err := zerolog.ParseLevel(level)
	if err != nil {
		l = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(l)
	zerolog.TimeFieldFormat = time.RFC3339
}

// reportStoredDatasets seeds the dataset row gauges from the store.
func reportStoredDatasets(store *storage.Store, mw *metrics.MetricsWrapper) {
	for _, s := range sport.All() {
		n, err := store.CountMatches(s)
		if err != nil {
			log.Warn().Err(err).Str("sport", string(s)).Msg("failed to count stored matches")
			continue
		}
		mw.DatasetRowsSet(string(s), n)
	}
}

// startMetricsServer starts the Prometheus metrics HTTP server
func startMetricsServer(ctx context.Context, wg *sync.WaitGroup, port int) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		if err := server.Shutdown(context.Background()); err != nil {
			log.Error().Err(err).Msg("failed to shutdown metrics server")
		}
	}()

	go func() {
		log.Info().Str("addr", server.Addr).Msg("Starting metrics server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func startAPIServer(ctx context.Context, wg *sync.WaitGroup, cancel context.CancelFunc, server *api.Server) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shutdown API server")
		}
	}()

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("API server failed")
			cancel()
		}
	}()
}

func waitForShutdown(ctx context.Context, cancel context.CancelFunc, wg *sync.WaitGroup) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Info().Msg("shutdown signal received")
	case <-ctx.Done():
		log.Info().Msg("context canceled")
	}

	log.Info().Msg("shutting down gracefully...")
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("all servers stopped")
	case <-time.After(15 * time.Second):
		log.Warn().Msg("shutdown timeout, forcing exit")
	}
}
