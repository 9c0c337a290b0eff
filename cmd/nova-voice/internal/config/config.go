// Package config loads the server configuration from a YAML file.
//
// Minimal example:
//
//	listen: :8080
//	data_dir: ./data
//	engine: openai
//	openai:
//	  api_key: sk-...
//	spec:
//	  store: local
//	  dir: ./specs
//
// API keys may be omitted from the file; OPENAI_API_KEY and
// GEMINI_API_KEY fill them in from the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/mcr5fh/nova-voice/pkg/retry"
)

// Config is the root server configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`

	// DataDir is the badger data directory. Empty means in-memory
	// (sessions do not survive a restart).
	DataDir string `yaml:"data_dir"`

	// Engine selects the conversation backend: "openai" or "gemini".
	Engine string `yaml:"engine"`

	Spec   SpecConfig   `yaml:"spec"`
	OpenAI OpenAIConfig `yaml:"openai"`
	Gemini GeminiConfig `yaml:"gemini"`
	Retry  RetryConfig  `yaml:"retry"`
	Audio  AudioConfig  `yaml:"audio"`
}

// SpecConfig selects where generated specification documents go.
type SpecConfig struct {
	// Store is "local" or "s3".
	Store string `yaml:"store"`

	// Dir is the local document directory (store: local).
	Dir string `yaml:"dir"`

	// Bucket, Prefix and Region configure the S3 store (store: s3).
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
	Region string `yaml:"region"`
}

// OpenAIConfig configures the OpenAI engine, transcriber and
// synthesizer.
type OpenAIConfig struct {
	APIKey          string `yaml:"api_key"`
	BaseURL         string `yaml:"base_url"`
	ChatModel       string `yaml:"chat_model"`
	TranscribeModel string `yaml:"transcribe_model"`
	SpeechModel     string `yaml:"speech_model"`
	Voice           string `yaml:"voice"`
}

// GeminiConfig configures the Gemini engine.
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// RetryConfig tunes the retry policy applied to every external call.
type RetryConfig struct {
	MaxAttempts int `yaml:"max_attempts"`

	// BaseDelay is a Go duration string, e.g. "250ms".
	BaseDelay string `yaml:"base_delay"`
}

// AudioConfig tunes inbound audio handling.
type AudioConfig struct {
	// MaxUtteranceBytes caps one buffered utterance. 0 keeps the
	// built-in default.
	MaxUtteranceBytes int `yaml:"max_utterance_bytes"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Listen:  ":8080",
		DataDir: "data",
		Engine:  "openai",
		Spec:    SpecConfig{Store: "local", Dir: "specs"},
	}
}

// Load reads path (or returns Default when path is empty), fills API
// keys from the environment, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Gemini.APIKey == "" {
		cfg.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field consistency.
func (c *Config) Validate() error {
	switch c.Engine {
	case "openai", "gemini":
	default:
		return fmt.Errorf("config: engine must be openai or gemini, got %q", c.Engine)
	}
	switch c.Spec.Store {
	case "local":
		if c.Spec.Dir == "" {
			return fmt.Errorf("config: spec.dir is required for the local store")
		}
	case "s3":
		if c.Spec.Bucket == "" {
			return fmt.Errorf("config: spec.bucket is required for the s3 store")
		}
	default:
		return fmt.Errorf("config: spec.store must be local or s3, got %q", c.Spec.Store)
	}
	if c.Retry.BaseDelay != "" {
		if _, err := time.ParseDuration(c.Retry.BaseDelay); err != nil {
			return fmt.Errorf("config: retry.base_delay: %w", err)
		}
	}
	if c.Audio.MaxUtteranceBytes < 0 {
		return fmt.Errorf("config: audio.max_utterance_bytes must be >= 0")
	}
	return nil
}

// Policy builds the retry policy. Call Validate first; a malformed
// base_delay falls back to the policy default here.
func (c *Config) Policy() retry.Policy {
	p := retry.Policy{MaxAttempts: c.Retry.MaxAttempts}
	if c.Retry.BaseDelay != "" {
		if d, err := time.ParseDuration(c.Retry.BaseDelay); err == nil {
			p.BaseDelay = d
		}
	}
	return p
}
