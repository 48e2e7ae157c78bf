package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g. KOLNET_DATABASE_PASSWORD
const EnvPrefix = "KOLNET"

// Config holds all application configuration
type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Log        LogConfig
	HTTP       HTTPConfig
	Telemetry  TelemetryConfig
	Network    NetworkConfig
	Device     DeviceConfig
	Commission CommissionConfig
	Integrity  IntegrityConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
	// OperationTimeout bounds every service call, transaction included
	OperationTimeout time.Duration
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
	LogLevel        string
	SlowThreshold   time.Duration
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
	Output string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxBodySize     int64
	TrustedProxies  []string
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	MetricsEnabled    bool
	LogsEnabled       bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	MetricsInterval   time.Duration
	DBTraceEnabled    bool
	DBLogFullSQL      bool
	DBSlowQueryThresh time.Duration
}

// NetworkConfig bounds hierarchy traversal and the tree cache
type NetworkConfig struct {
	MaxChainDepth    int
	MaxTreeDepth     int
	TreeCacheEnabled bool
	TreeCacheTTL     time.Duration
}

// DeviceConfig controls accumulator writes
type DeviceConfig struct {
	MaxWriteRetries int
}

// CommissionConfig holds tier economics
type CommissionConfig struct {
	LowTierRate               decimal.Decimal
	HighTierRate              decimal.Decimal
	LowTierUnitCommission     decimal.Decimal
	HighTierUnitCommission    decimal.Decimal
	DeviceCommissionTolerance decimal.Decimal
}

// IntegrityConfig bounds cascading deletes
type IntegrityConfig struct {
	MaxCascadeDepth int
}

// Load loads configuration from config.toml and KOLNET_ environment variables.
// Environment variables win over the file, the file wins over defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Name:             v.GetString("app.name"),
			Env:              v.GetString("app.env"),
			Port:             v.GetString("app.port"),
			OperationTimeout: v.GetDuration("app.operation_timeout"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
			LogLevel:        v.GetString("database.log_level"),
			SlowThreshold:   v.GetDuration("database.slow_threshold"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:     v.GetDuration("http.read_timeout"),
			WriteTimeout:    v.GetDuration("http.write_timeout"),
			IdleTimeout:     v.GetDuration("http.idle_timeout"),
			ShutdownTimeout: v.GetDuration("http.shutdown_timeout"),
			MaxBodySize:     v.GetInt64("http.max_body_size"),
			TrustedProxies:  v.GetStringSlice("http.trusted_proxies"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
		},
		Network: NetworkConfig{
			MaxChainDepth:    v.GetInt("network.max_chain_depth"),
			MaxTreeDepth:     v.GetInt("network.max_tree_depth"),
			TreeCacheEnabled: v.GetBool("network.tree_cache_enabled"),
			TreeCacheTTL:     v.GetDuration("network.tree_cache_ttl"),
		},
		Device: DeviceConfig{
			MaxWriteRetries: v.GetInt("device.max_write_retries"),
		},
		Integrity: IntegrityConfig{
			MaxCascadeDepth: v.GetInt("integrity.max_cascade_depth"),
		},
	}

	c := &cfg.Commission
	for key, dst := range map[string]*decimal.Decimal{
		"commission.low_tier_rate":             &c.LowTierRate,
		"commission.high_tier_rate":            &c.HighTierRate,
		"commission.low_tier_unit_commission":  &c.LowTierUnitCommission,
		"commission.high_tier_unit_commission": &c.HighTierUnitCommission,
		"commission.tolerance":                 &c.DeviceCommissionTolerance,
	} {
		d, err := decimal.NewFromString(v.GetString(key))
		if err != nil {
			return nil, fmt.Errorf("%s: invalid decimal %q: %w", key, v.GetString(key), err)
		}
		*dst = d
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// defaults are applied below the config file and the environment.
// Decimals are kept as strings so they parse exactly.
var defaults = map[string]any{
	"app.name":              "kolnet-backend",
	"app.env":               "development",
	"app.port":              "8080",
	"app.operation_timeout": 10 * time.Second,

	"database.host":               "localhost",
	"database.port":               5432,
	"database.user":               "postgres",
	"database.dbname":             "kolnet",
	"database.sslmode":            "disable",
	"database.max_open_conns":     25,
	"database.max_idle_conns":     5,
	"database.conn_max_lifetime":  60,
	"database.conn_max_idle_time": 30,
	"database.log_level":          "warn",
	"database.slow_threshold":     200 * time.Millisecond,

	"redis.enabled": true,
	"redis.host":    "localhost",
	"redis.port":    6379,

	"log.level":  "info",
	"log.format": "console",
	"log.output": "stdout",

	"http.read_timeout":     15 * time.Second,
	"http.write_timeout":    15 * time.Second,
	"http.idle_timeout":     60 * time.Second,
	"http.shutdown_timeout": 10 * time.Second,
	"http.max_body_size":    1 << 20,

	"telemetry.collector_endpoint":      "localhost:4317",
	"telemetry.sampling_ratio":          1.0,
	"telemetry.service_name":            "kolnet-backend",
	"telemetry.metrics_interval":        60 * time.Second,
	"telemetry.db_slow_query_threshold": 200 * time.Millisecond,

	"network.max_chain_depth":    10,
	"network.max_tree_depth":     10,
	"network.tree_cache_enabled": true,
	"network.tree_cache_ttl":     5 * time.Minute,

	"device.max_write_retries":    3,
	"integrity.max_cascade_depth": 16,

	"commission.low_tier_rate":             "0.10",
	"commission.high_tier_rate":            "0.15",
	"commission.low_tier_unit_commission":  "1500000",
	"commission.high_tier_unit_commission": "2500000",
	"commission.tolerance":                 "0.5",
}

func setDefaults(v *viper.Viper) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Network.MaxChainDepth < 1 || c.Network.MaxTreeDepth < 1 {
		return fmt.Errorf("network depth limits must be at least 1")
	}
	if c.Device.MaxWriteRetries < 1 {
		return fmt.Errorf("device.max_write_retries must be at least 1")
	}
	if c.Integrity.MaxCascadeDepth < 1 {
		return fmt.Errorf("integrity.max_cascade_depth must be at least 1")
	}
	one := decimal.NewFromInt(1)
	if c.Commission.LowTierRate.IsNegative() || c.Commission.LowTierRate.GreaterThan(one) ||
		c.Commission.HighTierRate.IsNegative() || c.Commission.HighTierRate.GreaterThan(one) {
		return fmt.Errorf("commission rates must be between 0 and 1")
	}
	if c.Commission.LowTierUnitCommission.IsNegative() || c.Commission.HighTierUnitCommission.IsNegative() {
		return fmt.Errorf("commission unit amounts cannot be negative")
	}
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production")
		}
	}
	return nil
}

// IsProduction reports whether the app runs in production
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
