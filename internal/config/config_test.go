package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(`{"baseUrl": "https://forum.example.com/"}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.BaseURL != "https://forum.example.com" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", cfg.BaseURL)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("Port = %d, want %d", cfg.Port, DefaultPort)
	}
	if !cfg.EnableNames || !cfg.ShowFullnameInMentions {
		t.Error("enableNames and showFullnameInMentions should default to true")
	}
	if cfg.ShowFullnameForGroups {
		t.Error("showFullnameForGroups should default to false")
	}
	if cfg.RenderTemplate != DefaultRenderTemplate {
		t.Errorf("RenderTemplate = %q", cfg.RenderTemplate)
	}
	if cfg.Batching.Window != 20 || cfg.Batching.MaxSize != 50 {
		t.Errorf("Batching = %+v, want window 20 maxSize 50", *cfg.Batching)
	}
	if cfg.Batching.GetWindowDuration().Milliseconds() != 20 {
		t.Errorf("GetWindowDuration = %v", cfg.Batching.GetWindowDuration())
	}
	if cfg.IsCacheEnabled() || cfg.IsCircuitBreakerEnabled() {
		t.Error("cache and circuit breaker should be off by default")
	}
}

func TestParse_ExplicitFalseBools(t *testing.T) {
	cfg, err := Parse([]byte(`{"baseUrl": "http://localhost:3000", "enableNames": false}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.EnableNames {
		t.Error("EnableNames = true, want false")
	}
	if cfg.IsMentionNamesEnabled() {
		t.Error("IsMentionNamesEnabled = true with enableNames false")
	}
}

func TestParse_CircuitBreakerDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`{"baseUrl": "http://localhost:3000", "circuitBreaker": {"enabled": true}}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cb := cfg.CircuitBreaker
	if cb.FailureThreshold != DefaultFailureThreshold || cb.HalfOpenMaxRequests != DefaultHalfOpenMaxRequests {
		t.Errorf("CircuitBreaker = %+v", *cb)
	}
	if cb.GetRecoveryTimeoutDuration().Seconds() != 30 {
		t.Errorf("GetRecoveryTimeoutDuration = %v", cb.GetRecoveryTimeoutDuration())
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"missing base url", `{}`, "baseUrl is required"},
		{"relative base url", `{"baseUrl": "forum.example.com"}`, "absolute http(s) URL"},
		{"bad port", `{"baseUrl": "http://x", "port": 70000}`, "port must be"},
		{"bad log level", `{"baseUrl": "http://x", "logLevel": "trace"}`, "logLevel must be"},
		{"api key without user", `{"baseUrl": "http://x", "apiKey": "k"}`, "apiUsername is required"},
		{"cache without ttl", `{"baseUrl": "http://x", "cache": {"enabled": true, "size": 10}}`, "cache.ttl"},
		{"negative window", `{"baseUrl": "http://x", "batching": {"window": -1}}`, "batching.window"},
		{"window not 20ms", `{"baseUrl": "http://x", "batching": {"window": 5000}}`, "batching.window is fixed at 20ms"},
		{"max size over search limit", `{"baseUrl": "http://x", "batching": {"maxSize": 500}}`, "batching.maxSize must be between 1 and 50"},
		{"negative max size", `{"baseUrl": "http://x", "batching": {"maxSize": -1}}`, "batching.maxSize"},
		{"not json", `{`, "failed to parse config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestParse_BatchingWithinLimits(t *testing.T) {
	cfg, err := Parse([]byte(`{"baseUrl": "http://x", "batching": {"window": 20, "maxSize": 10}}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Batching.MaxSize != 10 || cfg.Batching.Window != DefaultBatchWindow {
		t.Errorf("Batching = %+v", *cfg.Batching)
	}
}

func TestLoadWithDefaults_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"baseUrl": "https://forum.example.com", "renderTemplate": "{{name}} (@{{username}})"}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults: %v", err)
	}
	if cfg.RenderTemplate != "{{name}} (@{{username}})" {
		t.Errorf("RenderTemplate = %q", cfg.RenderTemplate)
	}

	if _, err := LoadWithDefaults(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
