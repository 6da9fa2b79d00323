package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
)

// configWithBoolDefaults is used for proper default handling of bools that default to true
type configWithBoolDefaults struct {
	Config
	EnableNamesPtr            *bool `json:"enableNames"`
	ShowFullnameInMentionsPtr *bool `json:"showFullnameInMentions"`
}

// LoadWithDefaults reads and parses the configuration file with proper bool default handling
func LoadWithDefaults(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses configuration bytes, applies defaults and validates the result
func Parse(data []byte) (*Config, error) {
	var rawCfg configWithBoolDefaults
	if err := json.Unmarshal(data, &rawCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg := &rawCfg.Config

	if rawCfg.EnableNamesPtr != nil {
		cfg.EnableNames = *rawCfg.EnableNamesPtr
	} else {
		cfg.EnableNames = DefaultEnableNames
	}
	if rawCfg.ShowFullnameInMentionsPtr != nil {
		cfg.ShowFullnameInMentions = *rawCfg.ShowFullnameInMentionsPtr
	} else {
		cfg.ShowFullnameInMentions = DefaultShowFullnameInMentions
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// applyDefaults sets default values for unset fields
func applyDefaults(cfg *Config) {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.MaxBodySize == 0 {
		cfg.MaxBodySize = DefaultMaxBodySize
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.StatsLogInterval == 0 {
		cfg.StatsLogInterval = DefaultStatsLogInterval
	}
	// An empty template falls back as well; one without {{name}} is handled at render time
	if cfg.RenderTemplate == "" {
		cfg.RenderTemplate = DefaultRenderTemplate
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if cfg.Batching == nil {
		cfg.Batching = &BatchingConfig{}
	}
	if cfg.Batching.Window == 0 {
		cfg.Batching.Window = DefaultBatchWindow
	}
	if cfg.Batching.MaxSize == 0 {
		cfg.Batching.MaxSize = DefaultBatchMaxSize
	}

	if cfg.CircuitBreaker != nil {
		if cfg.CircuitBreaker.FailureThreshold == 0 {
			cfg.CircuitBreaker.FailureThreshold = DefaultFailureThreshold
		}
		if cfg.CircuitBreaker.RecoveryTimeout == 0 {
			cfg.CircuitBreaker.RecoveryTimeout = DefaultRecoveryTimeout
		}
		if cfg.CircuitBreaker.HalfOpenMaxRequests == 0 {
			cfg.CircuitBreaker.HalfOpenMaxRequests = DefaultHalfOpenMaxRequests
		}
	}
}

// validate checks the configuration for errors
func validate(cfg *Config) error {
	if cfg.BaseURL == "" {
		return errors.New("baseUrl is required")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("baseUrl must be an absolute http(s) URL, got '%s'", cfg.BaseURL)
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("logLevel must be one of: debug, info, warn, error")
	}

	if cfg.RequestTimeout < 0 {
		return fmt.Errorf("requestTimeout must be non-negative")
	}

	if cfg.StatsLogInterval < 0 {
		return fmt.Errorf("statsLogInterval must be non-negative")
	}

	if cfg.MaxBodySize < 0 {
		return fmt.Errorf("maxBodySize must be non-negative")
	}

	if cfg.APIKey != "" && cfg.APIUsername == "" {
		return fmt.Errorf("apiUsername is required when apiKey is set")
	}

	// the debounce window is fixed; the forum search takes at most 50 usernames
	if cfg.Batching.Window != DefaultBatchWindow {
		return fmt.Errorf("batching.window is fixed at %dms", DefaultBatchWindow)
	}
	if cfg.Batching.MaxSize < 1 || cfg.Batching.MaxSize > DefaultBatchMaxSize {
		return fmt.Errorf("batching.maxSize must be between 1 and %d", DefaultBatchMaxSize)
	}

	if cfg.CircuitBreaker != nil && cfg.CircuitBreaker.Enabled {
		if cfg.CircuitBreaker.FailureThreshold < 0 {
			return fmt.Errorf("circuitBreaker.failureThreshold must be non-negative")
		}
		if cfg.CircuitBreaker.RecoveryTimeout < 0 {
			return fmt.Errorf("circuitBreaker.recoveryTimeout must be non-negative")
		}
	}

	if cfg.Cache != nil && cfg.Cache.Enabled {
		if cfg.Cache.TTL <= 0 {
			return fmt.Errorf("cache.ttl must be positive when cache is enabled")
		}
		if cfg.Cache.Size <= 0 {
			return fmt.Errorf("cache.size must be positive when cache is enabled")
		}
	}

	return nil
}
