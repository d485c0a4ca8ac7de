// Package config handles configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all benchmark configuration.
type Config struct {
	// Data locations
	Data DataConfig `yaml:"data"`

	// Evaluation protocol settings
	Eval EvalConfig `yaml:"eval"`

	// Per-method parameter namespaces, keyed by lower-cased method name
	Methods map[string]map[string]float64 `yaml:"methods"`

	// Nearest-neighbor backend
	ANN ANNConfig `yaml:"ann"`

	// Event bus configuration
	Bus BusConfig `yaml:"bus"`

	// Run history persistence
	History HistoryConfig `yaml:"history"`

	// Logging configuration
	Log LogConfig `yaml:"log"`
}

// DataConfig holds dataset locations.
type DataConfig struct {
	GTDir       string `envconfig:"SENSE_GT_DIR" yaml:"gt_dir"`
	QueryDir    string `envconfig:"SENSE_QUERY_DIR" yaml:"query_dir"`
	DupFile     string `envconfig:"SENSE_DUP_FILE" yaml:"dup_file"`
	FeatureDump string `envconfig:"SENSE_FEATURE_DUMP" yaml:"feature_dump"`
}

// EvalConfig holds evaluation protocol settings.
type EvalConfig struct {
	// NumPreview is how many images of each suggested sense the simulated
	// user inspects before picking.
	NumPreview int `envconfig:"SENSE_NUM_PREVIEW" yaml:"num_preview"`

	// Multiple allows selection of several senses at once.
	Multiple bool `envconfig:"SENSE_MULTIPLE" yaml:"multiple"`

	// MinPrecision is the selection threshold when Multiple is set.
	MinPrecision float64 `envconfig:"SENSE_MIN_PRECISION" yaml:"min_precision"`

	// Rounds repeats the whole sweep to average out random initialization.
	Rounds int `envconfig:"SENSE_ROUNDS" yaml:"rounds"`

	// Workers bounds the scoring pool. 0 means GOMAXPROCS.
	Workers int `envconfig:"SENSE_WORKERS" yaml:"workers"`

	// Seed is the global random seed, applied once before round 0.
	Seed int64 `envconfig:"SENSE_SEED" yaml:"seed"`

	// ShowProgress enables per-query progress logging.
	ShowProgress bool `envconfig:"SENSE_SHOW_PROGRESS" yaml:"show_progress"`
}

// ANNConfig holds nearest-neighbor backend settings.
type ANNConfig struct {
	Type       string `envconfig:"SENSE_ANN_TYPE" yaml:"type"`
	QdrantURL  string `envconfig:"QDRANT_URL" yaml:"qdrant_url"`
	APIKey     string `envconfig:"QDRANT_API_KEY" yaml:"api_key"`
	Collection string `envconfig:"SENSE_ANN_COLLECTION" yaml:"collection"`
}

// BusConfig holds event bus settings.
type BusConfig struct {
	Type         string `envconfig:"SENSE_BUS_TYPE" yaml:"type"`
	KafkaBrokers string `envconfig:"SENSE_KAFKA_BROKERS" yaml:"kafka_brokers"`
	KafkaGroup   string `envconfig:"SENSE_KAFKA_GROUP" yaml:"kafka_group"`
}

// HistoryConfig holds run history settings.
type HistoryConfig struct {
	Type     string `envconfig:"SENSE_HISTORY_TYPE" yaml:"type"`
	RedisURL string `envconfig:"SENSE_REDIS_URL" yaml:"redis_url"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `envconfig:"SENSE_LOG_LEVEL" yaml:"level"`
	Format string `envconfig:"SENSE_LOG_FORMAT" yaml:"format"`
}

// Load loads configuration from environment variables and optional config file.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	// Set defaults first
	setDefaults(cfg)

	// Load from YAML file if provided (overrides defaults)
	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	// Override with environment variables (highest priority)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("processing env config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

func setDefaults(cfg *Config) {
	cfg.Data = DataConfig{
		GTDir:       "mirflickr",
		DupFile:     "mirflickr/duplicates.txt",
		FeatureDump: "features.parquet",
	}

	cfg.Eval = EvalConfig{
		NumPreview:   10,
		Multiple:     false,
		MinPrecision: 0.5,
		Rounds:       5,
		Workers:      0,
		Seed:         0,
	}

	cfg.ANN = ANNConfig{
		Type:       "exact",
		QdrantURL:  "http://localhost:6334",
		Collection: "sense_bench",
	}

	cfg.Bus = BusConfig{
		Type: "memory",
	}

	cfg.History = HistoryConfig{
		Type:     "memory",
		RedisURL: "redis://localhost:6379",
	}

	cfg.Log = LogConfig{
		Level:  "info",
		Format: "text",
	}
}

// MethodParams returns the parameter namespace for a method, keyed by its
// lower-cased name. Never nil.
func (c *Config) MethodParams(method string) map[string]float64 {
	if params, ok := c.Methods[strings.ToLower(method)]; ok {
		return params
	}
	return map[string]float64{}
}

// SetMethodParam sets one parameter in a method's namespace.
func (c *Config) SetMethodParam(method, param string, value float64) {
	if c.Methods == nil {
		c.Methods = make(map[string]map[string]float64)
	}
	name := strings.ToLower(method)
	if c.Methods[name] == nil {
		c.Methods[name] = make(map[string]float64)
	}
	c.Methods[name][param] = value
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	if c.Data.GTDir == "" {
		errs = append(errs, "gt_dir cannot be empty")
	}

	if c.Data.FeatureDump == "" {
		errs = append(errs, "feature_dump cannot be empty")
	}

	if c.Eval.NumPreview < 0 {
		errs = append(errs, "num_preview cannot be negative")
	}

	if c.Eval.MinPrecision < 0 || c.Eval.MinPrecision > 1 {
		errs = append(errs, "min_precision must be between 0 and 1")
	}

	if c.Eval.Rounds < 1 {
		errs = append(errs, "rounds must be positive")
	}

	if c.Eval.Workers < 0 {
		errs = append(errs, "workers cannot be negative")
	}

	validANNTypes := map[string]bool{"exact": true, "qdrant": true}
	if !validANNTypes[c.ANN.Type] {
		errs = append(errs, fmt.Sprintf("invalid ann type: %s (must be exact or qdrant)", c.ANN.Type))
	}

	validBusTypes := map[string]bool{"memory": true, "kafka": true}
	if !validBusTypes[c.Bus.Type] {
		errs = append(errs, fmt.Sprintf("invalid bus type: %s (must be memory or kafka)", c.Bus.Type))
	}

	validHistoryTypes := map[string]bool{"memory": true, "redis": true, "none": true}
	if !validHistoryTypes[c.History.Type] {
		errs = append(errs, fmt.Sprintf("invalid history type: %s (must be memory, redis, or none)", c.History.Type))
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("invalid log format: %s (must be text or json)", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
