package config

import (
	"fmt"
	"time"

	"github.com/aescanero/dago-node-intent-router/internal/router"
	"github.com/caarlos0/env/v10"
)

// Config holds all configuration for the router worker
type Config struct {
	// Worker configuration
	WorkerID          string `env:"WORKER_ID" envDefault:"router-1"`
	WorkerConcurrency int    `env:"WORKER_CONCURRENCY" envDefault:"8"`

	// Redis configuration
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASS" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Stream configuration
	StreamKey     string        `env:"STREAM_KEY" envDefault:"routing.requests"`
	ConsumerGroup string        `env:"CONSUMER_GROUP" envDefault:"routing-workers"`
	ResultStream  string        `env:"RESULT_STREAM" envDefault:"routing.decided"`
	BlockTime     time.Duration `env:"BLOCK_TIME" envDefault:"1s"`

	// LLM configuration
	LLMProvider    string        `env:"LLM_PROVIDER" envDefault:"anthropic"`
	LLMAPIKey      string        `env:"LLM_API_KEY"`
	LLMModel       string        `env:"LLM_MODEL" envDefault:"claude-sonnet-4-20250514"`
	LLMMaxTokens   int           `env:"LLM_MAX_TOKENS" envDefault:"1024"`
	LLMTemperature float64       `env:"LLM_TEMPERATURE" envDefault:"0"`
	LLMTimeout     time.Duration `env:"LLM_TIMEOUT" envDefault:"30s"`

	// Fast rules configuration
	CELEnabled bool   `env:"CEL_ENABLED" envDefault:"true"`
	RulesFile  string `env:"RULES_FILE"`

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

	if c.WorkerConcurrency <= 0 {
		return fmt.Errorf("WORKER_CONCURRENCY must be positive")
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

	if c.LLMProvider == "" {
		return fmt.Errorf("LLM_PROVIDER is required")
	}

	// LLM_API_KEY is optional; without it every request resolves to the fallback decision

	if c.LLMModel == "" {
		return fmt.Errorf("LLM_MODEL is required")
	}

	if c.LLMMaxTokens <= 0 {
		return fmt.Errorf("LLM_MAX_TOKENS must be positive")
	}

	// 0 keeps the provider default
	if c.LLMTemperature < 0 || c.LLMTemperature > 2 {
		return fmt.Errorf("LLM_TEMPERATURE must be between 0 and 2")
	}

	if c.LLMTimeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be positive")
	}

	if c.BlockTime <= 0 {
		return fmt.Errorf("BLOCK_TIME must be positive")
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

// ModelDefaults returns the model options applied to requests that omit them
func (c *Config) ModelDefaults() router.ModelConfig {
	return router.ModelConfig{
		Model:       c.LLMModel,
		MaxTokens:   c.LLMMaxTokens,
		Temperature: c.LLMTemperature,
		Timeout:     c.LLMTimeout,
	}
}

// String returns a string representation of the config (without sensitive data)
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{WorkerID=%s, WorkerConcurrency=%d, RedisAddr=%s, RedisDB=%d, StreamKey=%s, "+
			"ConsumerGroup=%s, ResultStream=%s, LLMProvider=%s, LLMModel=%s, LLMMaxTokens=%d, "+
			"LLMTemperature=%g, LLMTimeout=%s, CELEnabled=%v, RulesFile=%s, HealthPort=%d, LogLevel=%s}",
		c.WorkerID,
		c.WorkerConcurrency,
		c.RedisAddr,
		c.RedisDB,
		c.StreamKey,
		c.ConsumerGroup,
		c.ResultStream,
		c.LLMProvider,
		c.LLMModel,
		c.LLMMaxTokens,
		c.LLMTemperature,
		c.LLMTimeout,
		c.CELEnabled,
		c.RulesFile,
		c.HealthPort,
		c.LogLevel,
	)
}
