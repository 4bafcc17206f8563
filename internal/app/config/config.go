package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	RemoteSupabase = "supabase"
	RemotePostgres = "postgres"

	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

type Config struct {
	HTTPAddr        string   `yaml:"http_addr"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
	CORSAllowOrigin string   `yaml:"cors_allow_origin"`

	// Remote is the quote repository backend; empty picks postgres when a
	// database url is set and supabase otherwise.
	Remote      string `yaml:"remote"`
	SupabaseURL string `yaml:"supabase_url"`
	SupabaseKey string `yaml:"supabase_key"`
	DatabaseURL string `yaml:"database_url"`
	// APIToken is the bearer token local callers must present when the
	// remote store has no auth of its own (postgres).
	APIToken    string   `yaml:"api_token"`
	HTTPTimeout Duration `yaml:"http_timeout"`

	StoreDriver string `yaml:"store_driver"`
	StorePath   string `yaml:"store_path"`
	RedisURL    string `yaml:"redis_url"`
	RedisPrefix string `yaml:"redis_prefix"`

	DrainOldestFirst bool `yaml:"drain_oldest_first"`
	DrainSkipFailed  bool `yaml:"drain_skip_failed"`

	LogLevel         string `yaml:"log_level"`
	LogFormat        string `yaml:"log_format"`
	LogOutput        string `yaml:"log_output"`
	MetricsNamespace string `yaml:"metrics_namespace"`
	Company          string `yaml:"company"`
}

// Duration reads "15s"-style strings from YAML.
type Duration time.Duration

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

func (d Duration) Std() time.Duration { return time.Duration(d) }

func defaults() Config {
	return Config{
		HTTPAddr:         "127.0.0.1:8080",
		ShutdownTimeout:  Duration(10 * time.Second),
		CORSAllowOrigin:  "*",
		HTTPTimeout:      Duration(15 * time.Second),
		StoreDriver:      StoreSQLite,
		StorePath:        "quotesync.db",
		RedisPrefix:      "quotesync:",
		LogLevel:         "info",
		LogFormat:        "json",
		LogOutput:        "stdout",
		MetricsNamespace: "quotesync",
	}
}

// Load applies defaults, then the YAML file named by QUOTESYNC_CONFIG, then
// environment overrides, then validates.
func Load() (Config, error) {
	cfg := defaults()
	if path := os.Getenv("QUOTESYNC_CONFIG"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if cfg.Remote == "" {
		cfg.Remote = RemoteSupabase
		if cfg.DatabaseURL != "" {
			cfg.Remote = RemotePostgres
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.HTTPAddr = env("HTTP_ADDR", c.HTTPAddr)
	c.CORSAllowOrigin = env("CORS_ALLOW_ORIGIN", c.CORSAllowOrigin)
	c.Remote = env("REMOTE_BACKEND", c.Remote)
	c.SupabaseURL = env("SUPABASE_URL", c.SupabaseURL)
	c.SupabaseKey = env("SUPABASE_KEY", c.SupabaseKey)
	c.DatabaseURL = env("DATABASE_URL", c.DatabaseURL)
	c.APIToken = env("API_TOKEN", c.APIToken)
	c.StoreDriver = env("STORE_DRIVER", c.StoreDriver)
	c.StorePath = env("STORE_PATH", c.StorePath)
	c.RedisURL = env("REDIS_URL", c.RedisURL)
	c.RedisPrefix = env("REDIS_PREFIX", c.RedisPrefix)
	c.LogLevel = env("LOG_LEVEL", c.LogLevel)
	c.LogFormat = env("LOG_FORMAT", c.LogFormat)
	c.LogOutput = env("LOG_OUTPUT", c.LogOutput)
	c.MetricsNamespace = env("METRICS_NAMESPACE", c.MetricsNamespace)
	c.Company = env("COMPANY_NAME", c.Company)

	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	collect(envDuration("HTTP_TIMEOUT", &c.HTTPTimeout))
	collect(envDuration("SHUTDOWN_TIMEOUT", &c.ShutdownTimeout))
	collect(envBool("DRAIN_OLDEST_FIRST", &c.DrainOldestFirst))
	collect(envBool("DRAIN_SKIP_FAILED", &c.DrainSkipFailed))
	return errors.Join(errs...)
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("http_addr is required"))
	}
	switch c.Remote {
	case RemoteSupabase:
		if c.SupabaseURL == "" || c.SupabaseKey == "" {
			errs = append(errs, errors.New("supabase backend needs SUPABASE_URL and SUPABASE_KEY"))
		}
	case RemotePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("postgres backend needs DATABASE_URL"))
		}
		if c.APIToken == "" {
			errs = append(errs, errors.New("postgres backend needs API_TOKEN"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown remote backend %q", c.Remote))
	}
	switch c.StoreDriver {
	case StoreSQLite:
		if c.StorePath == "" {
			errs = append(errs, errors.New("sqlite store needs STORE_PATH"))
		}
	case StoreRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("redis store needs REDIS_URL"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.StoreDriver))
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, errors.New("http_timeout must be positive"))
	}
	return errors.Join(errs...)
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envBool(k string, dst *bool) error {
	v := os.Getenv(k)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("env %s: %w", k, err)
	}
	*dst = b
	return nil
}

func envDuration(k string, dst *Duration) error {
	v := os.Getenv(k)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("env %s: %w", k, err)
	}
	*dst = Duration(d)
	return nil
}
