package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the settings required to boot the insight service.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Provider   ProviderConfig   `yaml:"provider"`
	Thresholds ThresholdsConfig `yaml:"thresholds"`
	Forecast   ForecastConfig   `yaml:"forecast"`
	Logging    LoggingConfig    `yaml:"logging"`
	Cache      CacheConfig      `yaml:"cache"`
}

// ServerConfig controls HTTP listener behaviour.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// ProviderConfig configures access to the upstream metrics provider.
type ProviderConfig struct {
	BaseURL      string        `yaml:"baseURL"`
	SnapshotPath string        `yaml:"snapshotPath"`
	HistoryPath  string        `yaml:"historyPath"`
	Timeout      time.Duration `yaml:"timeout"`
}

// ThresholdsConfig holds the detection and severity cutoffs. critical and
// warning are mandatory whenever the section appears in the file.
type ThresholdsConfig struct {
	Critical    float64 `yaml:"critical"`
	Warning     float64 `yaml:"warning"`
	ZScore      float64 `yaml:"zScore"`
	Trend       float64 `yaml:"trend"`
	Correlation float64 `yaml:"correlation"`
}

// UnmarshalYAML enforces the mandatory keys at parse time. Optional keys keep
// their defaults when absent.
func (t *ThresholdsConfig) UnmarshalYAML(value *yaml.Node) error {
	raw := map[string]float64{}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	for _, key := range []string{"critical", "warning"} {
		if _, ok := raw[key]; !ok {
			return fmt.Errorf("missing required threshold key: %s", key)
		}
	}
	t.Critical = raw["critical"]
	t.Warning = raw["warning"]
	if v, ok := raw["zScore"]; ok {
		t.ZScore = v
	}
	if v, ok := raw["trend"]; ok {
		t.Trend = v
	}
	if v, ok := raw["correlation"]; ok {
		t.Correlation = v
	}
	return nil
}

// ForecastConfig controls the projection engine.
type ForecastConfig struct {
	Window int `yaml:"window"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// CacheConfig controls Valkey-backed caching of provider history lookups.
type CacheConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Addr         string        `yaml:"addr"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	MaxRetries   int           `yaml:"maxRetries"`
	TLS          bool          `yaml:"tls"`
	HistoryTTL   time.Duration `yaml:"historyTTL"`
}

// Load initialises Config from a YAML file and optional environment
// overrides, then validates the thresholds fail-fast.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("INSIGHT_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects threshold settings an analysis could not run with.
func (c *Config) Validate() error {
	t := c.Thresholds
	for _, check := range []struct {
		name  string
		value float64
	}{
		{"critical", t.Critical},
		{"warning", t.Warning},
		{"zScore", t.ZScore},
		{"trend", t.Trend},
	} {
		if check.value <= 0 {
			return fmt.Errorf("invalid value for %s threshold: must be positive, got %v", check.name, check.value)
		}
	}
	if t.Correlation <= 0 || t.Correlation > 1 {
		return fmt.Errorf("invalid value for correlation threshold: must be in (0, 1], got %v", t.Correlation)
	}
	if t.Warning > t.Critical {
		return fmt.Errorf("invalid value for warning threshold: must not exceed critical (%v > %v)", t.Warning, t.Critical)
	}
	if c.Forecast.Window < 0 {
		return fmt.Errorf("invalid forecast window: must be non-negative, got %d", c.Forecast.Window)
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":8080",
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
		},
		Provider: ProviderConfig{
			SnapshotPath: "/api/v1/metrics/snapshot",
			HistoryPath:  "/api/v1/metrics/history",
			Timeout:      5 * time.Second,
		},
		Thresholds: ThresholdsConfig{
			Critical:    10.0,
			Warning:     5.0,
			ZScore:      2.0,
			Trend:       0.1,
			Correlation: 0.7,
		},
		Forecast: ForecastConfig{Window: 3},
		Logging:  LoggingConfig{Level: "info", JSON: false},
		Cache: CacheConfig{
			Enabled:      false,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
			MaxRetries:   2,
			HistoryTTL:   5 * time.Minute,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("INSIGHT_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("INSIGHT_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("INSIGHT_PROVIDER_BASE_URL"); v != "" {
		cfg.Provider.BaseURL = v
	}
	if v := os.Getenv("INSIGHT_PROVIDER_SNAPSHOT_PATH"); v != "" {
		cfg.Provider.SnapshotPath = v
	}
	if v := os.Getenv("INSIGHT_PROVIDER_HISTORY_PATH"); v != "" {
		cfg.Provider.HistoryPath = v
	}
	if v := os.Getenv("INSIGHT_PROVIDER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Provider.Timeout = d
		}
	}
	if v := os.Getenv("INSIGHT_THRESHOLD_CRITICAL"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Thresholds.Critical = f
		}
	}
	if v := os.Getenv("INSIGHT_THRESHOLD_WARNING"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Thresholds.Warning = f
		}
	}
	if v := os.Getenv("INSIGHT_THRESHOLD_Z_SCORE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Thresholds.ZScore = f
		}
	}
	if v := os.Getenv("INSIGHT_THRESHOLD_TREND"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Thresholds.Trend = f
		}
	}
	if v := os.Getenv("INSIGHT_THRESHOLD_CORRELATION"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Thresholds.Correlation = f
		}
	}
	if v := os.Getenv("INSIGHT_FORECAST_WINDOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Forecast.Window = n
		}
	}
	if v := os.Getenv("INSIGHT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("INSIGHT_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("INSIGHT_CACHE_ADDR"); v != "" {
		cfg.Cache.Addr = v
	}
	if v := os.Getenv("INSIGHT_CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = strings.EqualFold(v, "true") || strings.EqualFold(v, "1")
	}
	if v := os.Getenv("INSIGHT_CACHE_USERNAME"); v != "" {
		cfg.Cache.Username = v
	}
	if v := os.Getenv("INSIGHT_CACHE_PASSWORD"); v != "" {
		cfg.Cache.Password = v
	}
	if v := os.Getenv("INSIGHT_CACHE_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Cache.DB = db
		}
	}
	if v := os.Getenv("INSIGHT_CACHE_TLS"); strings.EqualFold(v, "true") || strings.EqualFold(v, "1") {
		cfg.Cache.TLS = true
	}
	if v := os.Getenv("INSIGHT_CACHE_DIAL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.DialTimeout = d
		}
	}
	if v := os.Getenv("INSIGHT_CACHE_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.ReadTimeout = d
		}
	}
	if v := os.Getenv("INSIGHT_CACHE_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.WriteTimeout = d
		}
	}
	if v := os.Getenv("INSIGHT_CACHE_MAX_RETRIES"); v != "" {
		if retry, err := strconv.Atoi(v); err == nil {
			cfg.Cache.MaxRetries = retry
		}
	}
	if v := os.Getenv("INSIGHT_CACHE_HISTORY_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.HistoryTTL = d
		}
	}
}
