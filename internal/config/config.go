package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// this is a pointer so that if someone attempts to use it before loading it will
// panic and force them to load it first.
// it is also private so that it cannot be modified after loading.
var _loaded *Config

// Config is the main configuration structure
type Config struct {
	Common Common `yaml:"common"`
}

// Load loads the configuration following proper precedence: defaults → config file → environment variables
func Load() {
	LoadDefault()

	configFile := os.Getenv("ACCOUNTS_CONFIG_FILE")
	if configFile == "" {
		configFile = "accounts.yaml"
	}

	if err := LoadFromFile(configFile); err != nil {
		log.Printf("Failed to load config file: %v, using defaults", err)
	} else {
		log.Printf("Successfully loaded config from file: %s", configFile)
	}

	ApplyEnvOverrides()

	log.Printf("Final config - HTTP: %s, log level: %s, rate limit: %.2f req/s",
		_loaded.Common.Http.Address(),
		_loaded.Common.Log.Level,
		_loaded.Common.RateLimit.RequestsPerSecond)
}

// LoadDefault loads the built-in defaults only
func LoadDefault() {
	cfg := defaults()
	_loaded = &cfg
}

// LoadFromFile loads configuration from a YAML file, merged over defaults
func LoadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := defaults()

	// Merge YAML values over defaults
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config file: %w", err)
	}

	_loaded = &cfg
	return nil
}

// Validate checks values that would otherwise fail at server start-up
func (c *Config) Validate() error {
	if c.Common.Http.Port <= 0 || c.Common.Http.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.Common.Http.Port)
	}
	if c.Common.Http.MaxRequestSize <= 0 {
		return fmt.Errorf("http.max_request_size must be positive, got %d", c.Common.Http.MaxRequestSize)
	}
	if c.Common.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("rate_limit.requests_per_second must not be negative")
	}
	if c.Common.RateLimit.RequestsPerSecond > 0 && c.Common.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate_limit.burst must be positive when rate limiting is enabled")
	}
	switch c.Common.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Common.Log.Format)
	}
	return nil
}

// set sane defaults for all of the config options. when loading the config from
// the file, any options that are not set will be set to these defaults.
func defaults() Config {
	return Config{
		Common: Common{
			Log: logConfig{
				Level:  "info",
				Format: "json",
			},
			Http: httpConfig{
				Host:              "0.0.0.0",
				Port:              8000,
				MaxRequestSize:    1048576,
				ReadHeaderTimeout: 10 * time.Second,
				ShutdownTimeout:   30 * time.Second,
			},
			Cors: corsConfig{
				AllowedOrigins: []string{"*"},
			},
			RateLimit: rateLimitConfig{
				RequestsPerSecond: 0,
				Burst:             20,
				CleanupInterval:   5 * time.Minute,
			},
			Metrics: metricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}

type Common struct {
	Log       logConfig       `yaml:"log"`
	Http      httpConfig      `yaml:"http"`
	Cors      corsConfig      `yaml:"cors"`
	RateLimit rateLimitConfig `yaml:"rate_limit"`
	Metrics   metricsConfig   `yaml:"metrics"`
}

type logConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type httpConfig struct {
	Host              string        `yaml:"host"`
	Port              int           `yaml:"port"`
	MaxRequestSize    int64         `yaml:"max_request_size"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

// Address returns the host:port the server listens on
func (c httpConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type corsConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"` // "*" allows every origin
}

type rateLimitConfig struct {
	RequestsPerSecond float64       `yaml:"requests_per_second"` // 0 disables rate limiting
	Burst             int           `yaml:"burst"`
	CleanupInterval   time.Duration `yaml:"cleanup_interval"`
}

type metricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// there should be a getter for each top level field in the config struct.
// these getters will panic if the config has not been loaded.

func Logger() logConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Log
}

func Http() httpConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Http
}

func Cors() corsConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Cors
}

func RateLimit() rateLimitConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.RateLimit
}

func Metrics() metricsConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Metrics
}

// Get returns the full configuration
func Get() *Config {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded
}

// ApplyEnvOverrides applies ACCOUNTS_* environment variables over the loaded config
func ApplyEnvOverrides() {
	if _loaded == nil {
		return
	}

	if host := os.Getenv("ACCOUNTS_HTTP_HOST"); host != "" {
		_loaded.Common.Http.Host = host
	}
	if httpPort := os.Getenv("ACCOUNTS_HTTP_PORT"); httpPort != "" {
		if port, err := strconv.Atoi(httpPort); err == nil && port > 0 && port <= 65535 {
			_loaded.Common.Http.Port = port
		}
	}

	if level := os.Getenv("ACCOUNTS_LOG_LEVEL"); level != "" {
		_loaded.Common.Log.Level = level
	}
	if format := os.Getenv("ACCOUNTS_LOG_FORMAT"); format == "json" || format == "console" {
		_loaded.Common.Log.Format = format
	}

	if origins := os.Getenv("ACCOUNTS_CORS_ALLOWED_ORIGINS"); origins != "" {
		var parsed []string
		for _, origin := range strings.Split(origins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				parsed = append(parsed, origin)
			}
		}
		if len(parsed) > 0 {
			_loaded.Common.Cors.AllowedOrigins = parsed
		}
	}

	if rps := os.Getenv("ACCOUNTS_RATE_LIMIT_RPS"); rps != "" {
		if parsed, err := strconv.ParseFloat(rps, 64); err == nil && parsed >= 0 {
			_loaded.Common.RateLimit.RequestsPerSecond = parsed
		}
	}
	if burst := os.Getenv("ACCOUNTS_RATE_LIMIT_BURST"); burst != "" {
		if parsed, err := strconv.Atoi(burst); err == nil && parsed > 0 {
			_loaded.Common.RateLimit.Burst = parsed
		}
	}

	if enabled := os.Getenv("ACCOUNTS_METRICS_ENABLED"); enabled != "" {
		if parsed, err := strconv.ParseBool(enabled); err == nil {
			_loaded.Common.Metrics.Enabled = parsed
		}
	}
}
