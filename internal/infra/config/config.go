package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// UV data sources.
const (
	SourceARPANSA = "arpansa"
	SourceBackend = "backend"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	UV        UVConfig        `yaml:"uv"`
	Session   SessionConfig   `yaml:"session"`
	Gazetteer GazetteerConfig `yaml:"gazetteer"`
	Cache     CacheConfig     `yaml:"cache"`
	LLM       LLMConfig       `yaml:"llm"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
	Retry          RetryConfig     `yaml:"retry"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// RetryConfig configures best-effort retries for idempotent GET requests.
// Exclude entries ending in "/" match every path below them.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
	Exclude     []string      `yaml:"exclude"`
}

// UVConfig selects and tunes the UV data upstream.
type UVConfig struct {
	Source         string         `yaml:"source"`
	ARPANSAURL     string         `yaml:"arpansaUrl"`
	BackendURL     string         `yaml:"backendUrl"`
	PollInterval   time.Duration  `yaml:"pollInterval"`
	RequestTimeout time.Duration  `yaml:"requestTimeout"`
	Upstream       UpstreamConfig `yaml:"upstream"`
}

// UpstreamConfig tunes retries and the circuit breaker for upstream calls.
type UpstreamConfig struct {
	MaxRetries       uint64        `yaml:"maxRetries"`
	InitialInterval  time.Duration `yaml:"initialInterval"`
	MaxInterval      time.Duration `yaml:"maxInterval"`
	FailureThreshold uint32        `yaml:"failureThreshold"`
	OpenTimeout      time.Duration `yaml:"openTimeout"`
}

// SessionConfig controls per-user state.
type SessionConfig struct {
	IdleTTL        time.Duration `yaml:"idleTtl"`
	ResolveTimeout time.Duration `yaml:"resolveTimeout"`
	RejectStale    bool          `yaml:"rejectStale"`
	EventBuffer    int           `yaml:"eventBuffer"`
	TrendingLimit  int           `yaml:"trendingLimit"`
}

// GazetteerConfig selects the city directory backend.
type GazetteerConfig struct {
	Postgres PostgresConfig `yaml:"postgres"`
	Seed     bool           `yaml:"seed"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// CacheConfig controls snapshot and trend storage.
type CacheConfig struct {
	SnapshotTTL time.Duration `yaml:"snapshotTtl"`
	Redis       RedisConfig   `yaml:"redis"`
}

// RedisConfig contains connection information for cache storage.
type RedisConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Prefix  string `yaml:"prefix"`
}

// LLMConfig contains ChatGPT/OpenAI settings for advice narratives.
type LLMConfig struct {
	Enabled     bool          `yaml:"enabled"`
	APIKey      string        `yaml:"apiKey"`
	BaseURL     string        `yaml:"baseUrl"`
	Model       string        `yaml:"model"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
	Prompt      string        `yaml:"prompt"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	setString("HTTP_ADDRESS", &cfg.HTTP.Address)
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	setBool("HTTP_RATE_LIMIT_ENABLED", &cfg.HTTP.RateLimit.Enabled)
	setInt("HTTP_RATE_LIMIT_RPM", &cfg.HTTP.RateLimit.RequestsPerMinute)
	setInt("HTTP_RATE_LIMIT_BURST", &cfg.HTTP.RateLimit.Burst)
	setBool("HTTP_RETRY_ENABLED", &cfg.HTTP.Retry.Enabled)
	setInt("HTTP_RETRY_MAX_ATTEMPTS", &cfg.HTTP.Retry.MaxAttempts)
	setDuration("HTTP_RETRY_BASE_BACKOFF", &cfg.HTTP.Retry.BaseBackoff)

	setString("UV_SOURCE", &cfg.UV.Source)
	setString("UV_ARPANSA_URL", &cfg.UV.ARPANSAURL)
	setString("UV_BACKEND_URL", &cfg.UV.BackendURL)
	setDuration("UV_POLL_INTERVAL", &cfg.UV.PollInterval)
	setDuration("UV_REQUEST_TIMEOUT", &cfg.UV.RequestTimeout)

	setDuration("SESSION_IDLE_TTL", &cfg.Session.IdleTTL)
	setDuration("SESSION_RESOLVE_TIMEOUT", &cfg.Session.ResolveTimeout)
	setBool("SESSION_REJECT_STALE", &cfg.Session.RejectStale)

	setString("GAZETTEER_POSTGRES_DSN", &cfg.Gazetteer.Postgres.DSN)
	setBool("GAZETTEER_SEED", &cfg.Gazetteer.Seed)
	if v := os.Getenv("GAZETTEER_POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Gazetteer.Postgres.MaxConns = int32(parsed)
		}
	}

	setBool("CACHE_REDIS_ENABLED", &cfg.Cache.Redis.Enabled)
	setString("CACHE_REDIS_ADDR", &cfg.Cache.Redis.Addr)
	setDuration("CACHE_SNAPSHOT_TTL", &cfg.Cache.SnapshotTTL)

	setBool("LLM_ENABLED", &cfg.LLM.Enabled)
	setString("LLM_API_KEY", &cfg.LLM.APIKey)
	setString("LLM_BASE_URL", &cfg.LLM.BaseURL)
	setString("LLM_MODEL", &cfg.LLM.Model)
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.LLM.Temperature = float32(parsed)
		}
	}
}

func setString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "1" || strings.EqualFold(v, "true")
	}
}

func setInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

func setDuration(key string, dst *time.Duration) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			*dst = parsed
		}
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:        ":8080",
			ReadTimeout:    5 * time.Second,
			WriteTimeout:   15 * time.Second,
			AllowedOrigins: []string{"*"},
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 120,
				Burst:             30,
			},
			Retry: RetryConfig{
				Enabled:     true,
				MaxAttempts: 3,
				BaseBackoff: 150 * time.Millisecond,
				Exclude: []string{
					"/api/v1/sessions/",
					"/metrics",
				},
			},
		},
		UV: UVConfig{
			Source:         SourceARPANSA,
			ARPANSAURL:     "https://uvdata.arpansa.gov.au/xml/uvvalues.xml",
			PollInterval:   1800 * time.Second,
			RequestTimeout: 15 * time.Second,
			Upstream: UpstreamConfig{
				MaxRetries:       3,
				InitialInterval:  200 * time.Millisecond,
				MaxInterval:      5 * time.Second,
				FailureThreshold: 5,
				OpenTimeout:      time.Minute,
			},
		},
		Session: SessionConfig{
			IdleTTL:        30 * time.Minute,
			ResolveTimeout: 10 * time.Second,
			RejectStale:    false,
			EventBuffer:    32,
			TrendingLimit:  10,
		},
		Gazetteer: GazetteerConfig{
			Postgres: PostgresConfig{
				MaxConns: 4,
			},
			Seed: true,
		},
		Cache: CacheConfig{
			SnapshotTTL: 24 * time.Hour,
			Redis: RedisConfig{
				Prefix: "uvau",
			},
		},
		LLM: LLMConfig{
			Model:       "gpt-4o-mini",
			Temperature: 0.2,
			Timeout:     20 * time.Second,
			Prompt:      "You are a sun-safety assistant for Australia. Write one short, friendly paragraph that restates the provided advice.",
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	switch c.UV.Source {
	case SourceARPANSA:
		if strings.TrimSpace(c.UV.ARPANSAURL) == "" {
			return errors.New("uv.arpansaUrl cannot be empty")
		}
	case SourceBackend:
		if strings.TrimSpace(c.UV.BackendURL) == "" {
			return errors.New("uv.backendUrl cannot be empty when uv.source is backend")
		}
	default:
		return fmt.Errorf("uv.source must be %q or %q", SourceARPANSA, SourceBackend)
	}
	if c.UV.PollInterval <= 0 {
		return errors.New("uv.pollInterval must be positive")
	}
	if c.UV.RequestTimeout <= 0 {
		return errors.New("uv.requestTimeout must be positive")
	}
	if c.Session.IdleTTL <= 0 {
		return errors.New("session.idleTtl must be positive")
	}
	if c.Session.ResolveTimeout <= 0 {
		return errors.New("session.resolveTimeout must be positive")
	}
	if c.Session.EventBuffer < 0 {
		return errors.New("session.eventBuffer cannot be negative")
	}
	if c.Cache.SnapshotTTL < 0 {
		return errors.New("cache.snapshotTtl cannot be negative")
	}
	if c.Cache.Redis.Enabled && strings.TrimSpace(c.Cache.Redis.Addr) == "" {
		return errors.New("cache.redis.addr cannot be empty when redis cache is enabled")
	}
	if c.LLM.Enabled && strings.TrimSpace(c.LLM.APIKey) == "" {
		return errors.New("llm.apiKey cannot be empty when llm is enabled")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.HTTP.Retry.Enabled {
		if c.HTTP.Retry.MaxAttempts <= 0 {
			return errors.New("http.retry.maxAttempts must be positive")
		}
		if c.HTTP.Retry.BaseBackoff <= 0 {
			return errors.New("http.retry.baseBackoff must be positive")
		}
	}
	return nil
}
