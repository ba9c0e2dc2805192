package config

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all configuration for the field worker and fieldcheck
type Config struct {
	// Worker configuration
	WorkerID string `env:"WORKER_ID" envDefault:"fields-1"`

	// Redis configuration
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASS" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Stream configuration
	StreamKey     string        `env:"STREAM_KEY" envDefault:"fields.work"`
	ConsumerGroup string        `env:"CONSUMER_GROUP" envDefault:"field-workers"`
	ResultStream  string        `env:"RESULT_STREAM" envDefault:"fields.evaluated"`
	BlockTime     time.Duration `env:"BLOCK_TIME" envDefault:"1s"`
	MaxRetries    int           `env:"MAX_RETRIES" envDefault:"3"`

	// Evaluation configuration
	RunMode            string `env:"RUN_MODE" envDefault:"syntax"`
	InventoryPath      string `env:"INVENTORY_PATH" envDefault:"inventory.yaml"`
	PlaybookDir        string `env:"PLAYBOOK_DIR" envDefault:"."`
	MaxHostParallelism int    `env:"MAX_HOST_PARALLELISM" envDefault:"16"`

	// Only variables carrying this prefix reach the template module's env scope
	TemplateEnvPrefix string `env:"TEMPLATE_ENV_PREFIX" envDefault:"JET_"`

	// Health check configuration
	HealthPort int `env:"HEALTH_PORT" envDefault:"8082"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.WorkerID == "" {
		return fmt.Errorf("WORKER_ID is required")
	}

	if c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required")
	}

	if c.StreamKey == "" {
		return fmt.Errorf("STREAM_KEY is required")
	}

	if c.ConsumerGroup == "" {
		return fmt.Errorf("CONSUMER_GROUP is required")
	}

	if c.ResultStream == "" {
		return fmt.Errorf("RESULT_STREAM is required")
	}

	if c.BlockTime <= 0 {
		return fmt.Errorf("BLOCK_TIME must be positive")
	}

	if c.MaxRetries < 0 {
		return fmt.Errorf("MAX_RETRIES must be non-negative")
	}

	if !isValidRunMode(c.RunMode) {
		return fmt.Errorf("RUN_MODE must be one of: syntax, check, apply")
	}

	if c.InventoryPath == "" {
		return fmt.Errorf("INVENTORY_PATH is required")
	}

	if c.MaxHostParallelism < 0 {
		return fmt.Errorf("MAX_HOST_PARALLELISM must be non-negative")
	}

	if c.HealthPort <= 0 || c.HealthPort > 65535 {
		return fmt.Errorf("HEALTH_PORT must be between 1 and 65535")
	}

	if !isValidLogLevel(c.LogLevel) {
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error")
	}

	return nil
}

// isValidLogLevel checks if the log level is valid
func isValidLogLevel(level string) bool {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	return validLevels[level]
}

func isValidRunMode(mode string) bool {
	switch mode {
	case "syntax", "check", "apply":
		return true
	}
	return false
}

// Keys returns the environment variable names the worker reads its
// configuration from
func Keys() []string {
	t := reflect.TypeOf(Config{})
	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if key := t.Field(i).Tag.Get("env"); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

// TemplateEnvironment filters environ down to what templates may read
func (c *Config) TemplateEnvironment(environ []string) []string {
	return FilterEnvironment(environ, c.TemplateEnvPrefix)
}

// FilterEnvironment keeps the "KEY=value" entries whose key starts with
// prefix. Configuration keys are dropped even when they match.
func FilterEnvironment(environ []string, prefix string) []string {
	denied := make(map[string]bool)
	for _, key := range Keys() {
		denied[key] = true
	}

	filtered := make([]string, 0)
	for _, entry := range environ {
		key, _, ok := strings.Cut(entry, "=")
		if !ok || denied[key] || !strings.HasPrefix(key, prefix) {
			continue
		}
		filtered = append(filtered, entry)
	}
	return filtered
}

// String returns a string representation of the config (without sensitive data)
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{WorkerID=%s, RedisAddr=%s, RedisDB=%d, StreamKey=%s, ConsumerGroup=%s, "+
			"ResultStream=%s, RunMode=%s, InventoryPath=%s, PlaybookDir=%s, "+
			"MaxHostParallelism=%d, TemplateEnvPrefix=%s, HealthPort=%d, LogLevel=%s}",
		c.WorkerID,
		c.RedisAddr,
		c.RedisDB,
		c.StreamKey,
		c.ConsumerGroup,
		c.ResultStream,
		c.RunMode,
		c.InventoryPath,
		c.PlaybookDir,
		c.MaxHostParallelism,
		c.TemplateEnvPrefix,
		c.HealthPort,
		c.LogLevel,
	)
}
