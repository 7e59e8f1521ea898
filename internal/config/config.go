package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DetailPolicySkip    = "skip"
	DetailPolicyPartial = "partial"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName              string        `mapstructure:"app_name"`
	Env                  string        `mapstructure:"app_env"`
	LogLevel             string        `mapstructure:"log_level"`
	ProvidersFile        string        `mapstructure:"providers_file"`
	PublishersFile       string        `mapstructure:"publishers_file"`
	CrawlIntervalSeconds int64         `mapstructure:"crawl_interval"`
	CrawlInterval        time.Duration `mapstructure:"-"`
	MetricsAddr          string        `mapstructure:"metrics_addr"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
	PostgresDSN            string        `mapstructure:"postgres_dsn"`
	PostgresTable          string        `mapstructure:"postgres_table"`

	Fetch  FetchConfig  `mapstructure:",squash"`
	Detail DetailConfig `mapstructure:",squash"`
}

// FetchConfig controls the resilient page fetcher.
type FetchConfig struct {
	TimeoutSeconds        int64    `mapstructure:"fetch_timeout_seconds"`
	ConnectTimeoutSeconds int64    `mapstructure:"fetch_connect_timeout_seconds"`
	MaxRetries            int      `mapstructure:"fetch_max_retries"`
	BackoffBaseMs         int64    `mapstructure:"fetch_backoff_base_ms"`
	MinDelayMs            int64    `mapstructure:"fetch_min_delay_ms"`
	MaxDelayMs            int64    `mapstructure:"fetch_max_delay_ms"`
	RatePerSecond         float64  `mapstructure:"fetch_rate_per_second"`
	Seed                  uint64   `mapstructure:"fetch_seed"`
	UserAgentsRaw         string   `mapstructure:"user_agents"`
	UserAgents            []string `mapstructure:"-"`

	Timeout        time.Duration `mapstructure:"-"`
	ConnectTimeout time.Duration `mapstructure:"-"`
	BackoffBase    time.Duration `mapstructure:"-"`
	MinDelay       time.Duration `mapstructure:"-"`
	MaxDelay       time.Duration `mapstructure:"-"`
}

// DetailConfig controls article enrichment.
type DetailConfig struct {
	Concurrency   int    `mapstructure:"detail_concurrency"`
	FailurePolicy string `mapstructure:"detail_failure_policy"`
	Timezone      string `mapstructure:"date_timezone"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "onefootball-harvester")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("providers_file", "./configs/providers.yaml")
	v.SetDefault("publishers_file", "./configs/publishers.yaml")
	v.SetDefault("crawl_interval", 900) // seconds
	v.SetDefault("metrics_addr", "")

	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/cache.db")
	v.SetDefault("storage_ttl_seconds", int64((30*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))
	v.SetDefault("postgres_dsn", "")
	v.SetDefault("postgres_table", "noticias_onefootball")

	v.SetDefault("fetch_timeout_seconds", 10)
	v.SetDefault("fetch_connect_timeout_seconds", 5)
	v.SetDefault("fetch_max_retries", 3)
	v.SetDefault("fetch_backoff_base_ms", 500)
	v.SetDefault("fetch_min_delay_ms", 250)
	v.SetDefault("fetch_max_delay_ms", 1500)
	v.SetDefault("fetch_rate_per_second", 0)
	v.SetDefault("fetch_seed", 0)
	v.SetDefault("user_agents", "")

	v.SetDefault("detail_concurrency", 4)
	v.SetDefault("detail_failure_policy", DetailPolicySkip)
	v.SetDefault("date_timezone", "UTC")
}

func (cfg *Config) finalize() error {
	if cfg.CrawlIntervalSeconds <= 0 {
		return fmt.Errorf("invalid crawl_interval (must be positive seconds)")
	}
	cfg.CrawlInterval = time.Duration(cfg.CrawlIntervalSeconds) * time.Second

	if cfg.StorageTTLSeconds <= 0 {
		return fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	cfg.StorageType = strings.ToLower(strings.TrimSpace(cfg.StorageType))
	if cfg.StorageType == "postgres" && strings.TrimSpace(cfg.PostgresDSN) == "" {
		return fmt.Errorf("postgres_dsn is required when storage_type is postgres")
	}

	if err := cfg.Fetch.finalize(); err != nil {
		return err
	}
	return cfg.Detail.finalize()
}

func (f *FetchConfig) finalize() error {
	if f.TimeoutSeconds <= 0 {
		return fmt.Errorf("invalid fetch_timeout_seconds (must be positive seconds)")
	}
	if f.MaxRetries < 0 {
		return fmt.Errorf("invalid fetch_max_retries (must not be negative)")
	}
	if f.BackoffBaseMs < 0 || f.MinDelayMs < 0 || f.MaxDelayMs < 0 {
		return fmt.Errorf("fetch delays must not be negative")
	}
	if f.MaxDelayMs < f.MinDelayMs {
		return fmt.Errorf("fetch_max_delay_ms (%d) is below fetch_min_delay_ms (%d)", f.MaxDelayMs, f.MinDelayMs)
	}
	if f.RatePerSecond < 0 {
		return fmt.Errorf("invalid fetch_rate_per_second (must not be negative)")
	}

	f.Timeout = time.Duration(f.TimeoutSeconds) * time.Second
	f.ConnectTimeout = time.Duration(f.ConnectTimeoutSeconds) * time.Second
	f.BackoffBase = time.Duration(f.BackoffBaseMs) * time.Millisecond
	f.MinDelay = time.Duration(f.MinDelayMs) * time.Millisecond
	f.MaxDelay = time.Duration(f.MaxDelayMs) * time.Millisecond
	f.UserAgents = splitList(f.UserAgentsRaw)
	return nil
}

func (d *DetailConfig) finalize() error {
	if d.Concurrency <= 0 {
		d.Concurrency = 1
	}
	d.FailurePolicy = strings.ToLower(strings.TrimSpace(d.FailurePolicy))
	switch d.FailurePolicy {
	case "":
		d.FailurePolicy = DetailPolicySkip
	case DetailPolicySkip, DetailPolicyPartial:
	default:
		return fmt.Errorf("unsupported detail_failure_policy %q (want %q or %q)", d.FailurePolicy, DetailPolicySkip, DetailPolicyPartial)
	}
	if _, err := time.LoadLocation(d.Timezone); err != nil {
		return fmt.Errorf("invalid date_timezone %q: %w", d.Timezone, err)
	}
	return nil
}

// Location returns the configured timezone for zone-less publication dates.
func (d DetailConfig) Location() *time.Location {
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// splitList splits user agents on "|" or newlines; commas appear inside UA strings.
func splitList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == '|' || r == '\n' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
