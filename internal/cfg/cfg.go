package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"sports-ai/internal/common"
	"sports-ai/internal/ml"
	"sports-ai/internal/sport"

	"gopkg.in/yaml.v3"
)

// Settings holds the runtime configuration of the service and the CLI.
// Durations are parsed from Go duration strings, lists from comma-separated
// values.
type Settings struct {
	Port           int
	MetricsPort    int
	DataPath       string
	LogLevel       string
	DefaultSport   sport.Sport
	TrainTimeout   time.Duration
	PredictTimeout time.Duration
	TestSize       float64
	SplitSeed      int64
	AllowFallback  bool
	Trainer        ml.TrainerConfig
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
	StatsBomb      StatsBombConfig
}

// StatsBombConfig configures the open-data ingestion client.
type StatsBombConfig struct {
	BaseURL string
	Timeout time.Duration
	RPS     float64
}

// ConfigFile is the YAML layout read from CONFIG_FILE. Every field is
// optional: unset values fall back to the environment and then to the
// defaults in the common package.
type ConfigFile struct {
	Server struct {
		Port           int      `yaml:"port"`
		MetricsPort    int      `yaml:"metricsPort"`
		CORSOrigins    []string `yaml:"corsOrigins"`
		RateLimitRPS   float64  `yaml:"rateLimitRPS"`
		RateLimitBurst int      `yaml:"rateLimitBurst"`
	} `yaml:"server"`

	Model struct {
		DefaultSport         string  `yaml:"defaultSport"`
		TrainTimeout         string  `yaml:"trainTimeout"`
		PredictTimeout       string  `yaml:"predictTimeout"`
		TestSize             float64 `yaml:"testSize"`
		SplitSeed            int64   `yaml:"splitSeed"`
		AllowFallback        bool    `yaml:"allowFallback"`
		ForestTrees          int     `yaml:"forestTrees"`
		ForestMaxDepth       int     `yaml:"forestMaxDepth"`
		ForestSeed           int64   `yaml:"forestSeed"`
		LogisticMaxIter      int     `yaml:"logisticMaxIter"`
		LogisticLearningRate float64 `yaml:"logisticLearningRate"`
		LogisticC            float64 `yaml:"logisticC"`
	} `yaml:"model"`

	StatsBomb struct {
		BaseURL string  `yaml:"baseURL"`
		Timeout string  `yaml:"timeout"`
		RPS     float64 `yaml:"rps"`
	} `yaml:"statsbomb"`

	System struct {
		DataPath string `yaml:"dataPath"`
		LogLevel string `yaml:"logLevel"`
	} `yaml:"system"`
}

// Load reads the configuration from the YAML file named by CONFIG_FILE when it
// is set, with environment variables overriding file values. Without a file
// the environment alone is used. The result is validated before it is
// returned.
func Load() (Settings, error) {
	// Try to load from YAML file first
	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}

	// Fallback to environment variables
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	m := config.Model
	settings := Settings{
		Port:           getIntFromEnvOrConfig(common.EnvPort, config.Server.Port, common.DefaultPort),
		MetricsPort:    getIntFromEnvOrConfig(common.EnvMetricsPort, config.Server.MetricsPort, common.DefaultMetricsPort),
		DataPath:       getEnvOrDefault(common.EnvDataPath, orDefault(config.System.DataPath, common.DefaultDataPath)),
		LogLevel:       getEnvOrDefault(common.EnvLogLevel, orDefault(config.System.LogLevel, common.DefaultLogLevel)),
		DefaultSport:   sport.Sport(getEnvOrDefault(common.EnvDefaultSport, orDefault(m.DefaultSport, common.DefaultSport))),
		TrainTimeout:   getDurationFromEnvOrConfig(common.EnvTrainTimeout, m.TrainTimeout, ml.DefaultTrainTimeout),
		PredictTimeout: getDurationFromEnvOrConfig(common.EnvPredictTimeout, m.PredictTimeout, ml.DefaultPredictTimeout),
		TestSize:       getFloatFromEnvOrConfig(common.EnvTestSize, m.TestSize, common.DefaultTestSize),
		SplitSeed:      int64(getIntFromEnvOrConfig(common.EnvSplitSeed, int(m.SplitSeed), common.DefaultSplitSeed)),
		AllowFallback:  getBoolFromEnvOrConfig(common.EnvAllowFallback, m.AllowFallback),
		Trainer: ml.TrainerConfig{
			LogisticMaxIter:      getIntFromEnvOrConfig(common.EnvLogisticMaxIter, m.LogisticMaxIter, common.DefaultLogisticMaxIter),
			LogisticLearningRate: getFloatFromEnvOrConfig(common.EnvLogisticLearningRate, m.LogisticLearningRate, common.DefaultLogisticLR),
			LogisticC:            getFloatFromEnvOrConfig(common.EnvLogisticC, m.LogisticC, common.DefaultLogisticC),
			ForestTrees:          getIntFromEnvOrConfig(common.EnvForestTrees, m.ForestTrees, common.DefaultForestTrees),
			ForestMaxDepth:       getIntFromEnvOrConfig(common.EnvForestMaxDepth, m.ForestMaxDepth, 0),
			ForestSeed:           int64(getIntFromEnvOrConfig(common.EnvForestSeed, int(m.ForestSeed), common.DefaultForestSeed)),
		},
		CORSOrigins:    getListFromEnvOrConfig(common.EnvCORSOrigins, config.Server.CORSOrigins),
		RateLimitRPS:   getFloatFromEnvOrConfig(common.EnvRateLimitRPS, config.Server.RateLimitRPS, common.DefaultRateLimitRPS),
		RateLimitBurst: getIntFromEnvOrConfig(common.EnvRateLimitBurst, config.Server.RateLimitBurst, common.DefaultRateLimitBurst),
		StatsBomb: StatsBombConfig{
			BaseURL: getEnvOrDefault(common.EnvStatsBombBaseURL, orDefault(config.StatsBomb.BaseURL, common.DefaultStatsBombBaseURL)),
			Timeout: getDurationFromEnvOrConfig(common.EnvStatsBombTimeout, config.StatsBomb.Timeout, 30*time.Second),
			RPS:     getFloatFromEnvOrConfig(common.EnvStatsBombRPS, config.StatsBomb.RPS, common.DefaultStatsBombRPS),
		},
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		Port:           getIntOrDefault(common.EnvPort, common.DefaultPort),
		MetricsPort:    getIntOrDefault(common.EnvMetricsPort, common.DefaultMetricsPort),
		DataPath:       getEnvOrDefault(common.EnvDataPath, common.DefaultDataPath),
		LogLevel:       getEnvOrDefault(common.EnvLogLevel, common.DefaultLogLevel),
		DefaultSport:   sport.Sport(getEnvOrDefault(common.EnvDefaultSport, common.DefaultSport)),
		TrainTimeout:   getDurationOrDefault(common.EnvTrainTimeout, ml.DefaultTrainTimeout),
		PredictTimeout: getDurationOrDefault(common.EnvPredictTimeout, ml.DefaultPredictTimeout),
		TestSize:       getFloatOrDefault(common.EnvTestSize, common.DefaultTestSize),
		SplitSeed:      int64(getIntOrDefault(common.EnvSplitSeed, common.DefaultSplitSeed)),
		AllowFallback:  getBoolOrDefault(common.EnvAllowFallback, false),
		Trainer: ml.TrainerConfig{
			LogisticMaxIter:      getIntOrDefault(common.EnvLogisticMaxIter, common.DefaultLogisticMaxIter),
			LogisticLearningRate: getFloatOrDefault(common.EnvLogisticLearningRate, common.DefaultLogisticLR),
			LogisticC:            getFloatOrDefault(common.EnvLogisticC, common.DefaultLogisticC),
			ForestTrees:          getIntOrDefault(common.EnvForestTrees, common.DefaultForestTrees),
			ForestMaxDepth:       getIntOrDefault(common.EnvForestMaxDepth, 0),
			ForestSeed:           int64(getIntOrDefault(common.EnvForestSeed, common.DefaultForestSeed)),
		},
		CORSOrigins:    splitOrDefault(os.Getenv(common.EnvCORSOrigins), []string{"*"}),
		RateLimitRPS:   getFloatOrDefault(common.EnvRateLimitRPS, common.DefaultRateLimitRPS),
		RateLimitBurst: getIntOrDefault(common.EnvRateLimitBurst, common.DefaultRateLimitBurst),
		StatsBomb: StatsBombConfig{
			BaseURL: getEnvOrDefault(common.EnvStatsBombBaseURL, common.DefaultStatsBombBaseURL),
			Timeout: getDurationOrDefault(common.EnvStatsBombTimeout, 30*time.Second),
			RPS:     getFloatOrDefault(common.EnvStatsBombRPS, common.DefaultStatsBombRPS),
		},
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func splitOrDefault(v string, def []string) []string {
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func getListFromEnvOrConfig(key string, configValue []string) []string {
	if env := os.Getenv(key); env != "" {
		return splitOrDefault(env, nil)
	}
	if len(configValue) > 0 {
		return configValue
	}
	return []string{"*"}
}

func getDurationFromEnvOrConfig(key, configValue string, defaultValue time.Duration) time.Duration {
	if env := os.Getenv(key); env != "" {
		if d, err := time.ParseDuration(env); err == nil {
			return d
		}
	}
	if d, err := time.ParseDuration(configValue); err == nil {
		return d
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

func getFloatFromEnvOrConfig(key string, configValue, defaultValue float64) float64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseFloat(env, 64); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

func getBoolFromEnvOrConfig(key string, configValue bool) bool {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseBool(env); err == nil {
			return val
		}
	}
	return configValue
}

// validateSettings performs range validation of configuration values
func validateSettings(settings *Settings) error {
	if settings.Port < common.MinPort || settings.Port > common.MaxPort {
		return fmt.Errorf("port must be between %d and %d, got %d", common.MinPort, common.MaxPort, settings.Port)
	}
	if settings.MetricsPort < common.MinPort || settings.MetricsPort > common.MaxPort {
		return fmt.Errorf("metrics port must be between %d and %d, got %d", common.MinPort, common.MaxPort, settings.MetricsPort)
	}
	if settings.Port == settings.MetricsPort {
		return fmt.Errorf("port and metrics port must differ, both are %d", settings.Port)
	}
	if settings.DataPath == "" {
		return fmt.Errorf("data path cannot be empty")
	}
	if _, err := sport.Parse(string(settings.DefaultSport)); err != nil {
		return fmt.Errorf("default sport: %w", err)
	}

	if settings.TrainTimeout < time.Second || settings.TrainTimeout > time.Hour {
		return fmt.Errorf("train timeout must be between 1s and 1h, got %v", settings.TrainTimeout)
	}
	if settings.PredictTimeout < 10*time.Millisecond || settings.PredictTimeout > time.Minute {
		return fmt.Errorf("predict timeout must be between 10ms and 1m, got %v", settings.PredictTimeout)
	}
	if settings.TestSize < common.MinTestSize || settings.TestSize > common.MaxTestSize {
		return fmt.Errorf("test size must be between %.2f and %.2f, got %f", common.MinTestSize, common.MaxTestSize, settings.TestSize)
	}

	t := settings.Trainer
	if t.ForestTrees < 1 || t.ForestTrees > common.MaxForestTrees {
		return fmt.Errorf("forest trees must be between 1 and %d, got %d", common.MaxForestTrees, t.ForestTrees)
	}
	if t.ForestMaxDepth < 0 {
		return fmt.Errorf("forest max depth cannot be negative, got %d", t.ForestMaxDepth)
	}
	if t.LogisticMaxIter < 1 || t.LogisticMaxIter > common.MaxLogisticIter {
		return fmt.Errorf("logistic max iterations must be between 1 and %d, got %d", common.MaxLogisticIter, t.LogisticMaxIter)
	}
	if t.LogisticLearningRate <= 0 || t.LogisticLearningRate > 10 {
		return fmt.Errorf("logistic learning rate must be in (0, 10], got %f", t.LogisticLearningRate)
	}
	if t.LogisticC <= 0 {
		return fmt.Errorf("logistic C must be positive, got %f", t.LogisticC)
	}

	if settings.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit must be positive, got %f", settings.RateLimitRPS)
	}
	if settings.RateLimitBurst < 1 {
		return fmt.Errorf("rate limit burst must be at least 1, got %d", settings.RateLimitBurst)
	}

	if settings.StatsBomb.BaseURL == "" {
		return fmt.Errorf("StatsBomb base URL cannot be empty")
	}
	if settings.StatsBomb.Timeout < time.Second || settings.StatsBomb.Timeout > 5*time.Minute {
		return fmt.Errorf("StatsBomb timeout must be between 1s and 5m, got %v", settings.StatsBomb.Timeout)
	}
	if settings.StatsBomb.RPS <= 0 {
		return fmt.Errorf("StatsBomb request rate must be positive, got %f", settings.StatsBomb.RPS)
	}

	return nil
}
