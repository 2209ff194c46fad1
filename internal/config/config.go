package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Transport names accepted by server.transport.
const (
	TransportChi = "chi"
	TransportRaw = "raw"
)

// DefaultPath is read when ABACUS_CONFIG_PATH is unset.
const DefaultPath = "config/abacus.yaml"

// Config is the root configuration structure.
// It is read-only after Load() returns and thread-safe for concurrent reads.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Calculate CalculateConfig `yaml:"calculate"`
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Worker    WorkerConfig    `yaml:"worker"`
	Frontend  FrontendConfig  `yaml:"frontend"`
}

// ServerConfig contains settings for the calculation listener.
type ServerConfig struct {
	Address         string   `yaml:"address"`
	Transport       string   `yaml:"transport"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig contains database settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// CalculateConfig controls request handling.
type CalculateConfig struct {
	// StrictInput rejects absent or malformed operands with 400 instead of
	// coercing them to zero.
	StrictInput bool `yaml:"strict_input"`
	// EnsureSchemaPerRequest re-runs the idempotent schema check before each write.
	EnsureSchemaPerRequest bool `yaml:"ensure_schema_per_request"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig contains the Prometheus listener settings. An empty address
// disables the listener.
type MetricsConfig struct {
	Address string `yaml:"address"`
}

// WorkerConfig contains background worker settings.
type WorkerConfig struct {
	StatsInterval Duration `yaml:"stats_interval"`
}

// FrontendConfig contains the calculator page server settings.
type FrontendConfig struct {
	Address        string   `yaml:"address"`
	BackendURL     string   `yaml:"backend_url"`
	RequestTimeout Duration `yaml:"request_timeout"`
}

// Duration is a wrapper around time.Duration that supports YAML string parsing.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Load loads configuration with precedence: defaults → YAML file → env vars.
// Returns an immutable Config suitable for concurrent read access.
func Load() (*Config, error) {
	cfg := newDefaults()

	configPath := getEnv("ABACUS_CONFIG_PATH", DefaultPath)

	// Missing file is not an error
	if err := loadYAMLFile(cfg, configPath); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a specific path, which must exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := newDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newDefaults returns a Config with all default values.
func newDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			Address:         "127.0.0.1:8080",
			Transport:       TransportChi,
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
		},
		Database: DatabaseConfig{
			Path: "calculations.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Address: "127.0.0.1:9090",
		},
		Worker: WorkerConfig{
			StatsInterval: Duration(1 * time.Minute),
		},
		Frontend: FrontendConfig{
			Address:        "127.0.0.1:3030",
			BackendURL:     "http://127.0.0.1:8080",
			RequestTimeout: Duration(10 * time.Second),
		},
	}
}

// loadYAMLFile loads configuration from a YAML file if it exists.
func loadYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Only non-empty env vars override config values; unparseable ones are ignored.
func applyEnvOverrides(cfg *Config) {
	// Server
	if v := os.Getenv("ABACUS_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("ABACUS_TRANSPORT"); v != "" {
		cfg.Server.Transport = v
	}
	envDuration("ABACUS_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("ABACUS_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("ABACUS_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	// Database
	if v := os.Getenv("ABACUS_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Calculate
	envBool("ABACUS_STRICT_INPUT", &cfg.Calculate.StrictInput)
	envBool("ABACUS_ENSURE_SCHEMA_PER_REQUEST", &cfg.Calculate.EnsureSchemaPerRequest)

	// Log
	if v := os.Getenv("ABACUS_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("ABACUS_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}

	// Metrics: "off" disables the listener since an empty value cannot.
	if v := os.Getenv("ABACUS_METRICS_ADDRESS"); v != "" {
		if v == "off" {
			v = ""
		}
		cfg.Metrics.Address = v
	}

	// Worker
	envDuration("ABACUS_STATS_INTERVAL", &cfg.Worker.StatsInterval)

	// Frontend
	if v := os.Getenv("ABACUS_FRONTEND_ADDRESS"); v != "" {
		cfg.Frontend.Address = v
	}
	if v := os.Getenv("ABACUS_BACKEND_URL"); v != "" {
		cfg.Frontend.BackendURL = v
	}
	envDuration("ABACUS_FRONTEND_TIMEOUT", &cfg.Frontend.RequestTimeout)
}

func envDuration(key string, dst *Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = Duration(d)
		}
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

// validate checks that configuration values are usable. All problems are
// reported together.
func (c *Config) validate() error {
	var errs []error

	if _, _, err := net.SplitHostPort(c.Server.Address); err != nil {
		errs = append(errs, fmt.Errorf("server.address %q: %w", c.Server.Address, err))
	}
	switch c.Server.Transport {
	case TransportChi, TransportRaw:
	default:
		errs = append(errs, fmt.Errorf("server.transport %q: must be %q or %q", c.Server.Transport, TransportChi, TransportRaw))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must be positive"))
	}

	if strings.TrimSpace(c.Database.Path) == "" {
		errs = append(errs, errors.New("database.path is required"))
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q: must be debug, info, warn or error", c.Log.Level))
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format %q: must be json or text", c.Log.Format))
	}

	if c.Metrics.Address != "" {
		if _, _, err := net.SplitHostPort(c.Metrics.Address); err != nil {
			errs = append(errs, fmt.Errorf("metrics.address %q: %w", c.Metrics.Address, err))
		}
	}

	if c.Worker.StatsInterval <= 0 {
		errs = append(errs, errors.New("worker.stats_interval must be positive"))
	}

	if _, _, err := net.SplitHostPort(c.Frontend.Address); err != nil {
		errs = append(errs, fmt.Errorf("frontend.address %q: %w", c.Frontend.Address, err))
	}
	if u, err := url.Parse(c.Frontend.BackendURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("frontend.backend_url %q: must be an http(s) URL", c.Frontend.BackendURL))
	}

	return errors.Join(errs...)
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
