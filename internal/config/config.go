package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Quota      QuotaConfig      `yaml:"quota"`
	Transcript TranscriptConfig `yaml:"transcript"`
	Completion CompletionConfig `yaml:"completion"`
	Screening  ScreeningConfig  `yaml:"screening"`
}

type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
	MaxBodyBytes     int64         `yaml:"max_body_bytes"`
}

type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Name            string        `yaml:"name"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

func (d DatabaseConfig) DSN() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + sslMode,
	}
	return u.String()
}

type RedisConfig struct {
	Addresses []string `yaml:"addresses"`
	Password  string   `yaml:"password"`
	DB        int      `yaml:"db"`
	PoolSize  int      `yaml:"pool_size"`
}

// Enabled reports whether a Redis address is configured.
func (r RedisConfig) Enabled() bool {
	return len(r.Addresses) > 0 && r.Addresses[0] != ""
}

type TelemetryConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Quota backends.
const (
	QuotaBackendMemory   = "memory"
	QuotaBackendRedis    = "redis"
	QuotaBackendPostgres = "postgres"
)

type QuotaConfig struct {
	Backend        string        `yaml:"backend"`
	Capacity       int           `yaml:"capacity"`
	Window         time.Duration `yaml:"window"`
	SweepInterval  time.Duration `yaml:"sweep_interval"`
	BypassLoopback bool          `yaml:"bypass_loopback"`
}

type TranscriptConfig struct {
	InnertubeBaseURL  string        `yaml:"innertube_base_url"`
	InitTimeout       time.Duration `yaml:"init_timeout"`
	InfoTimeout       time.Duration `yaml:"info_timeout"`
	TranscriptTimeout time.Duration `yaml:"transcript_timeout"`
	MaxDuration       time.Duration `yaml:"max_duration"`
	MaxChars          int           `yaml:"max_chars"`
	CacheEnabled      bool          `yaml:"cache_enabled"`
	CacheTTL          time.Duration `yaml:"cache_ttl"`
}

type CompletionConfig struct {
	Provider       string               `yaml:"provider"`
	Temperature    float64              `yaml:"temperature"`
	MaxTokens      int                  `yaml:"max_tokens"`
	ReadBufferSize int                  `yaml:"read_buffer_size"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

type CircuitBreakerConfig struct {
	FailureThreshold      int           `yaml:"failure_threshold"`
	RecoveryProbeInterval time.Duration `yaml:"recovery_probe_interval"`
}

type ScreeningConfig struct {
	Enabled       bool    `yaml:"enabled"`
	FlagThreshold float64 `yaml:"flag_threshold"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8080,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     5 * time.Minute,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 30 * time.Second,
			MaxBodyBytes:     64 << 10,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			Name:            "thoth",
			User:            "thoth",
			MaxOpenConns:    10,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			DB:       0,
			PoolSize: 20,
		},
		Telemetry: TelemetryConfig{
			LogLevel:  "info",
			LogFormat: "json",
		},
		Quota: QuotaConfig{
			Backend:        QuotaBackendMemory,
			Capacity:       10,
			Window:         24 * time.Hour,
			SweepInterval:  time.Hour,
			BypassLoopback: false,
		},
		Transcript: TranscriptConfig{
			InnertubeBaseURL:  "https://www.youtube.com",
			InitTimeout:       15 * time.Second,
			InfoTimeout:       20 * time.Second,
			TranscriptTimeout: 20 * time.Second,
			MaxDuration:       time.Hour,
			MaxChars:          8000,
			CacheEnabled:      true,
			CacheTTL:          time.Hour,
		},
		Completion: CompletionConfig{
			Provider:       "openrouter",
			Temperature:    0.7,
			MaxTokens:      2048,
			ReadBufferSize: 4096,
			CircuitBreaker: CircuitBreakerConfig{
				FailureThreshold:      5,
				RecoveryProbeInterval: 30 * time.Second,
			},
		},
		Screening: ScreeningConfig{
			Enabled:       true,
			FlagThreshold: 0.7,
		},
	}
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Quota.Backend {
	case QuotaBackendMemory, QuotaBackendRedis, QuotaBackendPostgres:
	default:
		errs = append(errs, fmt.Errorf("quota.backend: unknown backend %q", c.Quota.Backend))
	}
	if c.Quota.Capacity <= 0 {
		errs = append(errs, errors.New("quota.capacity must be positive"))
	}
	if c.Quota.Window <= 0 {
		errs = append(errs, errors.New("quota.window must be positive"))
	}
	if c.Completion.Provider == "" {
		errs = append(errs, errors.New("completion.provider is required"))
	}
	if c.Screening.FlagThreshold < 0 || c.Screening.FlagThreshold > 1 {
		errs = append(errs, errors.New("screening.flag_threshold must be between 0 and 1"))
	}
	return errors.Join(errs...)
}
