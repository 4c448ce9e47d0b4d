// Package config loads the service configuration from config.yaml, a .env
// file and TIEBA_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. TIEBA_SERVER_PORT.
const EnvPrefix = "TIEBA"

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Signer   SignerConfig   `mapstructure:"signer"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Database DatabaseConfig `mapstructure:"database"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Derive   DeriveConfig   `mapstructure:"derive"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Address is the listen address.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type UpstreamConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	NewsURL        string        `mapstructure:"news_url"`
	OutbreakURL    string        `mapstructure:"outbreak_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RatePerSecond  float64       `mapstructure:"rate_per_second"`
	Burst          int           `mapstructure:"burst"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
}

type SignerConfig struct {
	Secret string `mapstructure:"secret"`
}

// CacheConfig selects the last-good store. An empty RedisAddr selects the
// in-process LRU.
type CacheConfig struct {
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	Prefix        string        `mapstructure:"prefix"`
	TTL           time.Duration `mapstructure:"ttl"`
	LRUSize       int           `mapstructure:"lru_size"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type LoggerConfig struct {
	Level       string   `mapstructure:"level"`
	Development bool     `mapstructure:"development"`
	OutputPaths []string `mapstructure:"output_paths"`
}

type DeriveConfig struct {
	Timezone        string `mapstructure:"timezone"`
	ThresholdLevel  int    `mapstructure:"threshold_level"`
	IncomeStartDate string `mapstructure:"income_start_date"`
}

// Location resolves Timezone.
func (d DeriveConfig) Location() (*time.Location, error) {
	return time.LoadLocation(d.Timezone)
}

// IncomeStart parses IncomeStartDate (YYYYMMDD) in loc.
func (d DeriveConfig) IncomeStart(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("20060102", d.IncomeStartDate, loc)
}

// Load reads the configuration. path may be empty, in which case
// ./config.yaml and ./config/config.yaml are tried; a missing file is not an
// error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("upstream.base_url", "https://app.drjchn.com/api/v2/tieba")
	v.SetDefault("upstream.news_url", "https://h5.peopleapp.com/2019ncov/newsApi")
	v.SetDefault("upstream.outbreak_url", "https://h5.peopleapp.com/2019ncov/Home/index")
	v.SetDefault("upstream.timeout", "10s")
	v.SetDefault("upstream.rate_per_second", 5)
	v.SetDefault("upstream.burst", 5)
	v.SetDefault("upstream.max_attempts", 3)
	v.SetDefault("upstream.initial_backoff", "200ms")
	v.SetDefault("upstream.max_backoff", "5s")

	v.SetDefault("signer.secret", "")

	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.prefix", "tieba-stats:")
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.lru_size", 256)

	v.SetDefault("database.path", "data/preferences.db")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.development", false)
	v.SetDefault("logger.output_paths", []string{"stdout"})

	v.SetDefault("derive.timezone", "Asia/Shanghai")
	v.SetDefault("derive.threshold_level", 10)
	v.SetDefault("derive.income_start_date", "20200928")
}

// Validate checks the values Load cannot default sensibly.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		errs = append(errs, fmt.Errorf("server.mode %q must be debug, release or test", c.Server.Mode))
	}
	if c.Upstream.BaseURL == "" {
		errs = append(errs, errors.New("upstream.base_url is required"))
	}
	if c.Upstream.RatePerSecond < 0 {
		errs = append(errs, errors.New("upstream.rate_per_second must not be negative"))
	}
	if c.Signer.Secret == "" {
		errs = append(errs, errors.New("signer.secret is required"))
	}
	if c.Cache.LRUSize <= 0 {
		errs = append(errs, errors.New("cache.lru_size must be positive"))
	}
	if c.Derive.ThresholdLevel <= 0 {
		errs = append(errs, errors.New("derive.threshold_level must be positive"))
	}
	loc, err := c.Derive.Location()
	if err != nil {
		errs = append(errs, fmt.Errorf("derive.timezone: %w", err))
	} else if _, err := c.Derive.IncomeStart(loc); err != nil {
		errs = append(errs, fmt.Errorf("derive.income_start_date: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
