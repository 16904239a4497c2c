package common

// Environment variable keys
const (
	EnvConfigFile     = "CONFIG_FILE"
	EnvPort           = "PORT"
	EnvMetricsPort    = "METRICS_PORT"
	EnvDataPath       = "DATA_PATH"
	EnvLogLevel       = "LOG_LEVEL"
	EnvTrainTimeout   = "TRAIN_TIMEOUT"
	EnvPredictTimeout = "PREDICT_TIMEOUT"
	EnvTestSize       = "TEST_SIZE"
	EnvSplitSeed      = "SPLIT_SEED"
	EnvAllowFallback  = "ALLOW_FALLBACK"
	EnvCORSOrigins    = "CORS_ORIGINS"
	EnvRateLimitRPS   = "RATE_LIMIT_RPS"
	EnvRateLimitBurst = "RATE_LIMIT_BURST"
	EnvDefaultSport   = "DEFAULT_SPORT"
)

// Model hyperparameter environment keys
const (
	EnvForestTrees          = "FOREST_TREES"
	EnvForestMaxDepth       = "FOREST_MAX_DEPTH"
	EnvForestSeed           = "FOREST_SEED"
	EnvLogisticMaxIter      = "LOGISTIC_MAX_ITER"
	EnvLogisticLearningRate = "LOGISTIC_LEARNING_RATE"
	EnvLogisticC            = "LOGISTIC_C"
)

// StatsBomb ingestion environment keys
const (
	EnvStatsBombBaseURL = "STATSBOMB_BASE_URL"
	EnvStatsBombTimeout = "STATSBOMB_TIMEOUT"
	EnvStatsBombRPS     = "STATSBOMB_RPS"
)

// Configuration defaults
const (
	DefaultPort             = 8000
	DefaultMetricsPort      = 9090
	DefaultDataPath         = "data"
	DefaultLogLevel         = "info"
	DefaultTestSize         = 0.25
	DefaultSplitSeed        = 42
	DefaultRateLimitRPS     = 20.0
	DefaultRateLimitBurst   = 40
	DefaultSport            = "football"
	DefaultForestTrees      = 220
	DefaultForestSeed       = 42
	DefaultLogisticMaxIter  = 500
	DefaultLogisticLR       = 0.5
	DefaultLogisticC        = 1.0
	DefaultStatsBombBaseURL = "https://raw.githubusercontent.com/statsbomb/open-data/master/data"
	DefaultStatsBombRPS     = 5.0
)

// Validation constants
const (
	MinPort         = 1024
	MaxPort         = 65535
	MinTestSize     = 0.05
	MaxTestSize     = 0.5
	MaxForestTrees  = 2000
	MaxLogisticIter = 100000
)
