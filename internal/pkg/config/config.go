package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Location  LocationConfig  `mapstructure:"location"`
	Geocode   GeocodeConfig   `mapstructure:"geocode"`
	Coupon    CouponConfig    `mapstructure:"coupon"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

// LocationConfig drives the location session: the fallback position used when
// acquisition fails, and the watch-mode cadence.
type LocationConfig struct {
	DefaultLat     float64 `mapstructure:"default_lat"`
	DefaultLon     float64 `mapstructure:"default_lon"`
	DefaultAddress string  `mapstructure:"default_address"`
	WatchInterval  int     `mapstructure:"watch_interval"`  // seconds
	RequestTimeout int     `mapstructure:"request_timeout"` // seconds
}

func (l LocationConfig) WatchIntervalDuration() time.Duration {
	return time.Duration(l.WatchInterval) * time.Second
}

func (l LocationConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(l.RequestTimeout) * time.Second
}

type GeocodeConfig struct {
	GoogleAPIKey string `mapstructure:"google_api_key"`
}

type CouponConfig struct {
	DefaultTTL int `mapstructure:"default_ttl"` // seconds
}

func (c CouponConfig) DefaultTTLDuration() time.Duration {
	return time.Duration(c.DefaultTTL) * time.Second
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	OTLPAddr    string `mapstructure:"otlp_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "jilju")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "jilju")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	// Jeju City Hall, the product's default search anchor.
	v.SetDefault("location.default_lat", 33.4996)
	v.SetDefault("location.default_lon", 126.5312)
	v.SetDefault("location.default_address", "제주시청")
	v.SetDefault("location.watch_interval", 30)
	v.SetDefault("location.request_timeout", 10)
	v.SetDefault("geocode.google_api_key", "")
	v.SetDefault("coupon.default_ttl", 600)
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.otlp_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: JILJU_DATABASE_HOST → database.host
	v.SetEnvPrefix("JILJU")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Location.DefaultLat < -90 || c.Location.DefaultLat > 90 {
		errs = append(errs, fmt.Sprintf("location.default_lat out of range: %v", c.Location.DefaultLat))
	}
	if c.Location.DefaultLon < -180 || c.Location.DefaultLon > 180 {
		errs = append(errs, fmt.Sprintf("location.default_lon out of range: %v", c.Location.DefaultLon))
	}
	if c.Location.WatchInterval <= 0 {
		errs = append(errs, "location.watch_interval must be positive")
	}
	if c.Location.RequestTimeout <= 0 {
		errs = append(errs, "location.request_timeout must be positive")
	}
	if c.Coupon.DefaultTTL <= 0 {
		errs = append(errs, "coupon.default_ttl must be positive")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
