// Package config provides bioflow configuration loading.
//
// Precedence: defaults → YAML file → environment variables. Environment
// overrides use the BIOFLOW_ prefix, e.g. BIOFLOW_HTTP_PORT=8080 or
// BIOFLOW_LLM_API_KEY=sk-....
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "BIOFLOW_"

// Config is the complete bioflow configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	LLM      LLMConfig      `yaml:"llm"`
	Evidence EvidenceConfig `yaml:"evidence"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	HTTPPort     int           `yaml:"http_port"`
	MetricsPort  int           `yaml:"metrics_port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// LLMConfig configures the inference client.
type LLMConfig struct {
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  int           `yaml:"max_retries"`
}

// EvidenceConfig configures the evidence source adapters.
type EvidenceConfig struct {
	Timeout       time.Duration `yaml:"timeout"`
	MaxRetries    int           `yaml:"max_retries"`
	RatePerSecond float64       `yaml:"rate_per_second"`
	MaxItems      int           `yaml:"max_items"`
	PubMedAPIKey  string        `yaml:"pubmed_api_key"`
}

// PipelineConfig configures the orchestration engine.
type PipelineConfig struct {
	// DefaultDebateRounds applies when a request leaves rounds unset.
	DefaultDebateRounds int `yaml:"default_debate_rounds"`
	// MaxDebateRounds caps caller-requested rounds; each round costs
	// at least three inference calls.
	MaxDebateRounds  int           `yaml:"max_debate_rounds"`
	HypothesisTarget int           `yaml:"hypothesis_target"`
	RunTimeout       time.Duration `yaml:"run_timeout"`
	StageTimeout     time.Duration `yaml:"stage_timeout"`
	// ContextTokenBudget bounds each evidence block folded into a
	// stage prompt.
	ContextTokenBudget int `yaml:"context_token_budget"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:     8000,
			MetricsPort:  9090,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 15 * time.Minute, // streaming responses outlive normal writes
		},
		LLM: LLMConfig{
			Model:       "claude-sonnet-4-5",
			MaxTokens:   2048,
			Temperature: 0.3,
			Timeout:     90 * time.Second,
			MaxRetries:  2,
		},
		Evidence: EvidenceConfig{
			Timeout:       15 * time.Second,
			MaxRetries:    2,
			RatePerSecond: 3,
			MaxItems:      10,
		},
		Pipeline: PipelineConfig{
			DefaultDebateRounds: 2,
			MaxDebateRounds:     5,
			HypothesisTarget:    3,
			RunTimeout:          10 * time.Minute,
			StageTimeout:        2 * time.Minute,
			ContextTokenBudget:  1200,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds a Config from defaults, an optional YAML file, and
// environment overrides, then validates it.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	var err error

	setInt := func(key string, dst *int) {
		if v, ok := lookup(key); ok && err == nil {
			var n int
			if n, err = strconv.Atoi(v); err != nil {
				err = fmt.Errorf("env %s%s: %w", EnvPrefix, key, err)
				return
			}
			*dst = n
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && err == nil {
			var d time.Duration
			if d, err = time.ParseDuration(v); err != nil {
				err = fmt.Errorf("env %s%s: %w", EnvPrefix, key, err)
				return
			}
			*dst = d
		}
	}
	setString := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	setInt("HTTP_PORT", &cfg.Server.HTTPPort)
	setInt("METRICS_PORT", &cfg.Server.MetricsPort)

	setString("LLM_MODEL", &cfg.LLM.Model)
	setString("LLM_API_KEY", &cfg.LLM.APIKey)
	setInt("LLM_MAX_TOKENS", &cfg.LLM.MaxTokens)
	setDuration("LLM_TIMEOUT", &cfg.LLM.Timeout)
	setInt("LLM_MAX_RETRIES", &cfg.LLM.MaxRetries)

	setDuration("EVIDENCE_TIMEOUT", &cfg.Evidence.Timeout)
	setInt("EVIDENCE_MAX_RETRIES", &cfg.Evidence.MaxRetries)
	setString("PUBMED_API_KEY", &cfg.Evidence.PubMedAPIKey)

	setInt("DEBATE_ROUNDS", &cfg.Pipeline.DefaultDebateRounds)
	setInt("MAX_DEBATE_ROUNDS", &cfg.Pipeline.MaxDebateRounds)
	setDuration("RUN_TIMEOUT", &cfg.Pipeline.RunTimeout)
	setDuration("STAGE_TIMEOUT", &cfg.Pipeline.StageTimeout)

	setString("LOG_LEVEL", &cfg.Log.Level)
	setString("LOG_FORMAT", &cfg.Log.Format)

	return err
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port out of range: %d", c.Server.HTTPPort)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model must not be empty")
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("llm.max_tokens must be positive")
	}
	if c.Pipeline.MaxDebateRounds < 1 {
		return fmt.Errorf("pipeline.max_debate_rounds must be at least 1")
	}
	if c.Pipeline.DefaultDebateRounds < 0 ||
		c.Pipeline.DefaultDebateRounds > c.Pipeline.MaxDebateRounds {
		return fmt.Errorf("pipeline.default_debate_rounds out of range: %d",
			c.Pipeline.DefaultDebateRounds)
	}
	if c.Pipeline.HypothesisTarget < 1 {
		return fmt.Errorf("pipeline.hypothesis_target must be at least 1")
	}
	if c.Evidence.MaxItems < 1 {
		return fmt.Errorf("evidence.max_items must be at least 1")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug/info/warn/error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}
	return nil
}
