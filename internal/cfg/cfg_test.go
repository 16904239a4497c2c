package cfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"sports-ai/internal/common"
	"sports-ai/internal/ml"
	"sports-ai/internal/sport"
)

var allEnvKeys = []string{
	common.EnvConfigFile, common.EnvPort, common.EnvMetricsPort, common.EnvDataPath,
	common.EnvLogLevel, common.EnvTrainTimeout, common.EnvPredictTimeout, common.EnvTestSize,
	common.EnvSplitSeed, common.EnvAllowFallback, common.EnvCORSOrigins, common.EnvRateLimitRPS,
	common.EnvRateLimitBurst, common.EnvDefaultSport, common.EnvForestTrees, common.EnvForestMaxDepth,
	common.EnvForestSeed, common.EnvLogisticMaxIter, common.EnvLogisticLearningRate, common.EnvLogisticC,
	common.EnvStatsBombBaseURL, common.EnvStatsBombTimeout, common.EnvStatsBombRPS,
}

// clearEnv blanks every key Load reads; empty values count as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allEnvKeys {
		t.Setenv(k, "")
	}
}

func TestLoadFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		wantErr  bool
		validate func(t *testing.T, settings Settings)
	}{
		{
			name:    "defaults",
			envVars: map[string]string{},
			validate: func(t *testing.T, settings Settings) {
				if settings.Port != 8000 {
					t.Errorf("Expected default port 8000, got %d", settings.Port)
				}
				if settings.MetricsPort != 9090 {
					t.Errorf("Expected default metrics port 9090, got %d", settings.MetricsPort)
				}
				if settings.DefaultSport != sport.Football {
					t.Errorf("Expected default sport football, got %s", settings.DefaultSport)
				}
				if settings.TrainTimeout != ml.DefaultTrainTimeout {
					t.Errorf("Expected train timeout %v, got %v", ml.DefaultTrainTimeout, settings.TrainTimeout)
				}
				if settings.TestSize != 0.25 {
					t.Errorf("Expected test size 0.25, got %f", settings.TestSize)
				}
				if settings.SplitSeed != 42 {
					t.Errorf("Expected split seed 42, got %d", settings.SplitSeed)
				}
				if settings.AllowFallback {
					t.Error("Expected fallback to be disabled by default")
				}
				if settings.Trainer.ForestTrees != 220 {
					t.Errorf("Expected 220 trees, got %d", settings.Trainer.ForestTrees)
				}
				if len(settings.CORSOrigins) != 1 || settings.CORSOrigins[0] != "*" {
					t.Errorf("Expected CORS origins [*], got %v", settings.CORSOrigins)
				}
			},
		},
		{
			name: "custom settings",
			envVars: map[string]string{
				common.EnvPort:           "8080",
				common.EnvDefaultSport:   "Tennis",
				common.EnvTrainTimeout:   "30s",
				common.EnvAllowFallback:  "true",
				common.EnvForestTrees:    "50",
				common.EnvLogisticC:      "0.5",
				common.EnvCORSOrigins:    "http://a.example, http://b.example",
				common.EnvStatsBombRPS:   "2",
				common.EnvRateLimitBurst: "5",
			},
			validate: func(t *testing.T, settings Settings) {
				if settings.Port != 8080 {
					t.Errorf("Expected port 8080, got %d", settings.Port)
				}
				if settings.TrainTimeout != 30*time.Second {
					t.Errorf("Expected train timeout 30s, got %v", settings.TrainTimeout)
				}
				if !settings.AllowFallback {
					t.Error("Expected fallback to be enabled")
				}
				if settings.Trainer.ForestTrees != 50 {
					t.Errorf("Expected 50 trees, got %d", settings.Trainer.ForestTrees)
				}
				if settings.Trainer.LogisticC != 0.5 {
					t.Errorf("Expected C 0.5, got %f", settings.Trainer.LogisticC)
				}
				if len(settings.CORSOrigins) != 2 || settings.CORSOrigins[1] != "http://b.example" {
					t.Errorf("Expected two trimmed origins, got %v", settings.CORSOrigins)
				}
				if settings.StatsBomb.RPS != 2 {
					t.Errorf("Expected StatsBomb rps 2, got %f", settings.StatsBomb.RPS)
				}
				if settings.RateLimitBurst != 5 {
					t.Errorf("Expected burst 5, got %d", settings.RateLimitBurst)
				}
			},
		},
		{
			name:    "invalid numbers fall back to defaults",
			envVars: map[string]string{common.EnvPort: "not-a-port", common.EnvTestSize: "abc"},
			validate: func(t *testing.T, settings Settings) {
				if settings.Port != 8000 {
					t.Errorf("Expected default port, got %d", settings.Port)
				}
				if settings.TestSize != 0.25 {
					t.Errorf("Expected default test size, got %f", settings.TestSize)
				}
			},
		},
		{
			name:    "unknown default sport",
			envVars: map[string]string{common.EnvDefaultSport: "curling"},
			wantErr: true,
		},
		{
			name:    "port collision",
			envVars: map[string]string{common.EnvPort: "9090"},
			wantErr: true,
		},
		{
			name:    "test size out of range",
			envVars: map[string]string{common.EnvTestSize: "0.9"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			settings, err := Load()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && tt.validate != nil {
				tt.validate(t, settings)
			}
		})
	}
}

func TestLoadFromYAML(t *testing.T) {
	clearEnv(t)

	content := `
server:
  port: 8100
  metricsPort: 9100
  corsOrigins: ["http://dashboard.local"]
  rateLimitRPS: 5
  rateLimitBurst: 10
model:
  defaultSport: basketball
  trainTimeout: 45s
  predictTimeout: 2s
  testSize: 0.2
  splitSeed: 7
  allowFallback: true
  forestTrees: 80
  forestMaxDepth: 6
  logisticMaxIter: 300
statsbomb:
  baseURL: http://localhost:9999/data
  timeout: 10s
  rps: 1
system:
  dataPath: /tmp/sports-ai
  logLevel: debug
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv(common.EnvConfigFile, path)

	settings, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if settings.Port != 8100 || settings.MetricsPort != 9100 {
		t.Errorf("Expected ports 8100/9100, got %d/%d", settings.Port, settings.MetricsPort)
	}
	if settings.DefaultSport != sport.Basketball {
		t.Errorf("Expected basketball, got %s", settings.DefaultSport)
	}
	if settings.TrainTimeout != 45*time.Second {
		t.Errorf("Expected train timeout 45s, got %v", settings.TrainTimeout)
	}
	if settings.PredictTimeout != 2*time.Second {
		t.Errorf("Expected predict timeout 2s, got %v", settings.PredictTimeout)
	}
	if settings.TestSize != 0.2 || settings.SplitSeed != 7 {
		t.Errorf("Expected split 0.2/7, got %f/%d", settings.TestSize, settings.SplitSeed)
	}
	if !settings.AllowFallback {
		t.Error("Expected fallback enabled")
	}
	if settings.Trainer.ForestTrees != 80 || settings.Trainer.ForestMaxDepth != 6 {
		t.Errorf("Expected forest 80/6, got %d/%d", settings.Trainer.ForestTrees, settings.Trainer.ForestMaxDepth)
	}
	if settings.Trainer.LogisticMaxIter != 300 {
		t.Errorf("Expected 300 iterations, got %d", settings.Trainer.LogisticMaxIter)
	}
	if settings.Trainer.LogisticC != common.DefaultLogisticC {
		t.Errorf("Expected default C, got %f", settings.Trainer.LogisticC)
	}
	if settings.StatsBomb.BaseURL != "http://localhost:9999/data" || settings.StatsBomb.Timeout != 10*time.Second {
		t.Errorf("Unexpected StatsBomb config: %+v", settings.StatsBomb)
	}
	if settings.DataPath != "/tmp/sports-ai" || settings.LogLevel != "debug" {
		t.Errorf("Unexpected system config: %s %s", settings.DataPath, settings.LogLevel)
	}
	if len(settings.CORSOrigins) != 1 || settings.CORSOrigins[0] != "http://dashboard.local" {
		t.Errorf("Expected configured CORS origin, got %v", settings.CORSOrigins)
	}
}

func TestLoadFromYAML_EnvOverrides(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 8100\nmodel:\n  forestTrees: 80\n"), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv(common.EnvConfigFile, path)
	t.Setenv(common.EnvPort, "8200")
	t.Setenv(common.EnvForestTrees, "10")

	settings, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if settings.Port != 8200 {
		t.Errorf("Expected env port 8200, got %d", settings.Port)
	}
	if settings.Trainer.ForestTrees != 10 {
		t.Errorf("Expected env forest trees 10, got %d", settings.Trainer.ForestTrees)
	}
}

func TestLoadFromYAML_Errors(t *testing.T) {
	clearEnv(t)

	t.Setenv(common.EnvConfigFile, filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Error("Expected error for missing config file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv(common.EnvConfigFile, path)
	if _, err := Load(); err == nil {
		t.Error("Expected error for malformed YAML")
	}
}
