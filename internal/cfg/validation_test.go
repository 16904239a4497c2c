package cfg

import (
	"strings"
	"testing"
	"time"

	"sports-ai/internal/ml"
	"sports-ai/internal/sport"
)

// createValidSettings creates a valid Settings struct for testing
func createValidSettings() *Settings {
	return &Settings{
		Port:           8000,
		MetricsPort:    9090,
		DataPath:       "data",
		LogLevel:       "info",
		DefaultSport:   sport.Football,
		TrainTimeout:   2 * time.Minute,
		PredictTimeout: 5 * time.Second,
		TestSize:       0.25,
		SplitSeed:      42,
		Trainer:        ml.DefaultTrainerConfig(),
		CORSOrigins:    []string{"*"},
		RateLimitRPS:   20,
		RateLimitBurst: 40,
		StatsBomb: StatsBombConfig{
			BaseURL: "https://example.com/data",
			Timeout: 30 * time.Second,
			RPS:     5,
		},
	}
}

func TestValidateSettings_ValidConfig(t *testing.T) {
	if err := validateSettings(createValidSettings()); err != nil {
		t.Errorf("Expected valid settings, got %v", err)
	}
}

func TestValidateSettings_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Settings)
		wantMsg string
	}{
		{"low port", func(s *Settings) { s.Port = 80 }, "port must be between"},
		{"high metrics port", func(s *Settings) { s.MetricsPort = 70000 }, "metrics port"},
		{"same ports", func(s *Settings) { s.MetricsPort = s.Port }, "must differ"},
		{"empty data path", func(s *Settings) { s.DataPath = "" }, "data path"},
		{"unknown sport", func(s *Settings) { s.DefaultSport = "polo" }, "default sport"},
		{"short train timeout", func(s *Settings) { s.TrainTimeout = time.Millisecond }, "train timeout"},
		{"long predict timeout", func(s *Settings) { s.PredictTimeout = time.Hour }, "predict timeout"},
		{"tiny test size", func(s *Settings) { s.TestSize = 0.01 }, "test size"},
		{"no trees", func(s *Settings) { s.Trainer.ForestTrees = 0 }, "forest trees"},
		{"negative depth", func(s *Settings) { s.Trainer.ForestMaxDepth = -1 }, "max depth"},
		{"no iterations", func(s *Settings) { s.Trainer.LogisticMaxIter = 0 }, "max iterations"},
		{"zero learning rate", func(s *Settings) { s.Trainer.LogisticLearningRate = 0 }, "learning rate"},
		{"zero C", func(s *Settings) { s.Trainer.LogisticC = 0 }, "logistic C"},
		{"zero rate limit", func(s *Settings) { s.RateLimitRPS = 0 }, "rate limit"},
		{"zero burst", func(s *Settings) { s.RateLimitBurst = 0 }, "burst"},
		{"empty StatsBomb URL", func(s *Settings) { s.StatsBomb.BaseURL = "" }, "base URL"},
		{"StatsBomb timeout", func(s *Settings) { s.StatsBomb.Timeout = time.Hour }, "StatsBomb timeout"},
		{"StatsBomb rps", func(s *Settings) { s.StatsBomb.RPS = -1 }, "request rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := createValidSettings()
			tt.mutate(s)
			err := validateSettings(s)
			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Expected error containing %q, got %q", tt.wantMsg, err.Error())
			}
		})
	}
}
