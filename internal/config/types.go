package config

import "time"

// Config represents the main configuration structure
type Config struct {
	Host                   string                `json:"host"`
	Port                   int                   `json:"port"`
	LogLevel               string                `json:"logLevel"`
	MaxBodySize            int64                 `json:"maxBodySize"`
	BaseURL                string                `json:"baseUrl"`     // forum root, e.g. https://meta.example.com
	APIKey                 string                `json:"apiKey"`      // optional Api-Key header
	APIUsername            string                `json:"apiUsername"` // optional Api-Username header
	RequestTimeout         int                   `json:"requestTimeout"`
	StatsLogInterval       int                   `json:"statsLogInterval"`
	EnableNames            bool                  `json:"enableNames"`
	ShowFullnameInMentions bool                  `json:"showFullnameInMentions"`
	ShowFullnameForGroups  bool                  `json:"showFullnameForGroups"`
	RenderTemplate         string                `json:"renderTemplate"`
	Batching               *BatchingConfig       `json:"batching,omitempty"`
	CircuitBreaker         *CircuitBreakerConfig `json:"circuitBreaker,omitempty"`
	Cache                  *CacheConfig          `json:"cache,omitempty"`
}

// BatchingConfig controls how username lookups are coalesced
type BatchingConfig struct {
	Window  int `json:"window"`  // ms, only 20 is accepted
	MaxSize int `json:"maxSize"` // usernames per search request, at most 50
}

// CircuitBreakerConfig represents search circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled             bool `json:"enabled"`
	FailureThreshold    int  `json:"failureThreshold"`
	RecoveryTimeout     int  `json:"recoveryTimeout"` // ms
	HalfOpenMaxRequests int  `json:"halfOpenMaxRequests"`
}

// CacheConfig represents the decorated output cache configuration
type CacheConfig struct {
	Enabled bool `json:"enabled"`
	TTL     int  `json:"ttl"`  // seconds
	Size    int  `json:"size"` // number of entries
}

// Default values
const (
	DefaultHost                   = "localhost"
	DefaultPort                   = 8080
	DefaultLogLevel               = "info"
	DefaultMaxBodySize            = int64(0) // 0 means no limit
	DefaultRequestTimeout         = 5000     // ms
	DefaultStatsLogInterval       = 60000    // ms - interval for logging search statistics
	DefaultEnableNames            = true
	DefaultShowFullnameInMentions = true
	DefaultRenderTemplate         = "@{{name}}"
	DefaultBatchWindow            = 20 // ms
	DefaultBatchMaxSize           = 50
	DefaultFailureThreshold       = 5
	DefaultRecoveryTimeout        = 30000 // ms
	DefaultHalfOpenMaxRequests    = 2
)

// GetRequestTimeoutDuration returns request timeout as time.Duration
func (c *Config) GetRequestTimeoutDuration() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Millisecond
}

// GetStatsLogIntervalDuration returns stats log interval as time.Duration
func (c *Config) GetStatsLogIntervalDuration() time.Duration {
	return time.Duration(c.StatsLogInterval) * time.Millisecond
}

// IsMentionNamesEnabled returns true if mentions should be rewritten at all
func (c *Config) IsMentionNamesEnabled() bool {
	return c.EnableNames && c.ShowFullnameInMentions
}

// IsCacheEnabled returns true if cache is configured and enabled
func (c *Config) IsCacheEnabled() bool {
	return c.Cache != nil && c.Cache.Enabled
}

// IsCircuitBreakerEnabled returns true if the search circuit breaker is on
func (c *Config) IsCircuitBreakerEnabled() bool {
	return c.CircuitBreaker != nil && c.CircuitBreaker.Enabled
}

// GetWindowDuration returns the debounce window as time.Duration
func (b *BatchingConfig) GetWindowDuration() time.Duration {
	return time.Duration(b.Window) * time.Millisecond
}

// GetRecoveryTimeoutDuration returns the open-state duration as time.Duration
func (cb *CircuitBreakerConfig) GetRecoveryTimeoutDuration() time.Duration {
	return time.Duration(cb.RecoveryTimeout) * time.Millisecond
}

// GetTTLDuration returns cache TTL as time.Duration
func (c *CacheConfig) GetTTLDuration() time.Duration {
	return time.Duration(c.TTL) * time.Second
}
