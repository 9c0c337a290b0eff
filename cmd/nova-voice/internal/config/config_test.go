package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != ":8080" || cfg.Engine != "openai" || cfg.Spec.Store != "local" {
		t.Fatalf("defaults = %+v", cfg)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
listen: 127.0.0.1:9000
data_dir: /var/lib/nova
engine: gemini
gemini:
  api_key: g-key
  model: gemini-2.0-flash
spec:
  store: s3
  bucket: my-specs
  prefix: team-a
retry:
  max_attempts: 5
  base_delay: 100ms
audio:
  max_utterance_bytes: 1048576
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != "127.0.0.1:9000" || cfg.DataDir != "/var/lib/nova" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Engine != "gemini" || cfg.Gemini.APIKey != "g-key" {
		t.Fatalf("gemini = %+v", cfg.Gemini)
	}
	if cfg.Spec.Store != "s3" || cfg.Spec.Bucket != "my-specs" || cfg.Spec.Prefix != "team-a" {
		t.Fatalf("spec = %+v", cfg.Spec)
	}
	p := cfg.Policy()
	if p.MaxAttempts != 5 || p.BaseDelay != 100*time.Millisecond {
		t.Fatalf("policy = %+v", p)
	}
	if cfg.Audio.MaxUtteranceBytes != 1<<20 {
		t.Fatalf("max_utterance_bytes = %d", cfg.Audio.MaxUtteranceBytes)
	}
}

func TestAPIKeyFromEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OpenAI.APIKey != "env-key" {
		t.Fatalf("api key = %q, want env-key", cfg.OpenAI.APIKey)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"bad engine", "engine: llama"},
		{"bad store", "spec:\n  store: gcs"},
		{"s3 without bucket", "spec:\n  store: s3"},
		{"bad delay", "retry:\n  base_delay: fast"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tc.body)); err == nil {
				t.Fatalf("Load accepted %q", tc.body)
			}
		})
	}
}
