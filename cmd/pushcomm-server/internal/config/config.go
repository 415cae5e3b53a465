// Package config loads pushcomm-server settings from a YAML file, .env files
// and PUSHCOMM_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/coregx/pushcomm/retry"
)

// EnvPrefix prefixes every environment variable, e.g. PUSHCOMM_SERVER_PORT.
const EnvPrefix = "PUSHCOMM"

// Config holds all configuration for the server.
type Config struct {
	Debug     bool            `mapstructure:"debug"`
	SentryDSN string          `mapstructure:"sentry_dsn"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Directory DirectoryConfig `mapstructure:"directory"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Relay     RelayConfig     `mapstructure:"relay"`
	Connect   ConnectConfig   `mapstructure:"connect"`
}

// ServerConfig holds HTTP server configuration. Timeouts are in seconds.
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	IdleTimeout  int    `mapstructure:"idle_timeout"`

	// SignatureMaxSkew bounds request timestamp drift, in seconds.
	SignatureMaxSkew int `mapstructure:"signature_max_skew"`
	NonceCacheSize   int `mapstructure:"nonce_cache_size"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // sqlite3, mysql, postgres
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"` // file path for sqlite3
	SSLMode  string `mapstructure:"sslmode"`
}

// DirectoryConfig holds directory policy switches.
type DirectoryConfig struct {
	StrictPause bool `mapstructure:"strict_pause"`
	LogEvents   bool `mapstructure:"log_events"`
}

// NATSConfig holds JetStream publishing configuration.
type NATSConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	URL            string `mapstructure:"url"`
	StreamName     string `mapstructure:"stream_name"`
	SubjectPrefix  string `mapstructure:"subject_prefix"`
	ConnectionName string `mapstructure:"connection_name"`
	MaxReconnects  int    `mapstructure:"max_reconnects"`
	ReconnectWait  int    `mapstructure:"reconnect_wait"` // seconds
	// DuplicateWindow is the JetStream Msg-Id dedup window, in seconds.
	DuplicateWindow int `mapstructure:"duplicate_window"`
}

// RelayConfig controls journal relaying to NATS.
type RelayConfig struct {
	IntervalMs  int   `mapstructure:"interval_ms"`
	BatchSize   int   `mapstructure:"batch_size"`
	StartAfter  int64 `mapstructure:"start_after"`
	BaseDelayMs int   `mapstructure:"base_delay_ms"`
	MaxDelayMs  int   `mapstructure:"max_delay_ms"`
	AlertAfter  int   `mapstructure:"alert_after"`
}

// ConnectConfig bounds startup retries when dialing the database and NATS.
type ConnectConfig struct {
	MaxAttempts int `mapstructure:"max_attempts"`
	BaseDelayMs int `mapstructure:"base_delay_ms"`
	MaxDelayMs  int `mapstructure:"max_delay_ms"`
}

// Load reads configuration. configFile may be empty to search the default
// locations; envPath is the directory holding .env files (default "config/").
func Load(configFile, envPath string) (*Config, error) {
	v := configureViper(configFile, envPath)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func configureViper(configFile, envPath string) *viper.Viper {
	v := viper.New()

	loadEnv(envPath)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("cmd/pushcomm-server/")
		v.AddConfigPath("config/")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// setDefaults registers every key, which also lets Unmarshal see values that
// only exist in the environment.
func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("sentry_dsn", "")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15)
	v.SetDefault("server.write_timeout", 15)
	v.SetDefault("server.idle_timeout", 60)
	v.SetDefault("server.signature_max_skew", 300)
	v.SetDefault("server.nonce_cache_size", 100000)

	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 0)
	v.SetDefault("database.user", "pushcomm")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "pushcomm.db")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("directory.strict_pause", false)
	v.SetDefault("directory.log_events", true)

	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.url", "nats://127.0.0.1:4222")
	v.SetDefault("nats.stream_name", "PUSHCOMM")
	v.SetDefault("nats.subject_prefix", "pushcomm.events")
	v.SetDefault("nats.connection_name", "pushcomm-server")
	v.SetDefault("nats.max_reconnects", 60)
	v.SetDefault("nats.reconnect_wait", 2)
	v.SetDefault("nats.duplicate_window", 86400)

	v.SetDefault("relay.interval_ms", 1000)
	v.SetDefault("relay.batch_size", 100)
	v.SetDefault("relay.start_after", 0)
	v.SetDefault("relay.base_delay_ms", 1000)
	v.SetDefault("relay.max_delay_ms", 300000)
	v.SetDefault("relay.alert_after", 5)

	v.SetDefault("connect.max_attempts", 10)
	v.SetDefault("connect.base_delay_ms", 500)
	v.SetDefault("connect.max_delay_ms", 10000)
}

// loadEnv loads .env then .env.local from envPath; later files win, and
// variables already in the process environment are overridden.
func loadEnv(envPath string) {
	if envPath == "" {
		envPath = "config/"
	}
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Overload(filepath.Join(envPath, envFile))
	}
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server),
		validation.Field(&c.Database),
		validation.Field(&c.NATS),
		validation.Field(&c.Relay),
		validation.Field(&c.Connect),
	)
}

// Validate checks server settings.
func (s ServerConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&s.SignatureMaxSkew, validation.Required, validation.Min(1)),
		validation.Field(&s.NonceCacheSize, validation.Required, validation.Min(1)),
	)
}

// Validate checks database settings.
func (d DatabaseConfig) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Driver, validation.Required, validation.In("sqlite3", "mysql", "postgres")),
		validation.Field(&d.DBName, validation.Required),
		validation.Field(&d.Host, validation.When(d.Driver != "sqlite3", validation.Required)),
	)
}

// Validate checks NATS settings when publishing is enabled.
func (n NATSConfig) Validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.URL, validation.When(n.Enabled, validation.Required)),
		validation.Field(&n.StreamName, validation.When(n.Enabled, validation.Required)),
		validation.Field(&n.SubjectPrefix, validation.When(n.Enabled, validation.Required)),
		validation.Field(&n.DuplicateWindow, validation.Min(0)),
	)
}

// Validate checks relay settings.
func (r RelayConfig) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.IntervalMs, validation.Required, validation.Min(1)),
		validation.Field(&r.BatchSize, validation.Required, validation.Min(1)),
		validation.Field(&r.StartAfter, validation.Min(int64(0))),
	)
}

// Validate checks connection retry settings.
func (c ConnectConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.MaxAttempts, validation.Required, validation.Min(1)),
	)
}

// DSN returns the driver-specific connection string.
func (d *DatabaseConfig) DSN() string {
	switch d.Driver {
	case "mysql":
		mc := mysql.NewConfig()
		mc.User = d.User
		mc.Passwd = d.Password
		mc.Net = "tcp"
		mc.Addr = fmt.Sprintf("%s:%d", d.Host, d.portOr(3306))
		mc.DBName = d.DBName
		mc.ParseTime = true
		return mc.FormatDSN()
	case "postgres":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.portOr(5432), d.User, d.Password, d.DBName, d.SSLMode)
	case "sqlite3":
		return d.DBName
	default:
		return ""
	}
}

func (d *DatabaseConfig) portOr(def int) int {
	if d.Port == 0 {
		return def
	}
	return d.Port
}

// Address returns the HTTP listen address.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RelayStrategy returns the backoff schedule for failed publishes.
func (r RelayConfig) RelayStrategy() retry.Strategy {
	s := retry.DefaultStrategy()
	s.BaseDelay = time.Duration(r.BaseDelayMs) * time.Millisecond
	s.MaxDelay = time.Duration(r.MaxDelayMs) * time.Millisecond
	s.AlertThreshold = r.AlertAfter
	return s
}

// Strategy returns the bounded backoff used while dialing dependencies.
func (c ConnectConfig) Strategy() retry.Strategy {
	s := retry.DefaultStrategy()
	s.MaxAttempts = c.MaxAttempts
	s.BaseDelay = time.Duration(c.BaseDelayMs) * time.Millisecond
	s.MaxDelay = time.Duration(c.MaxDelayMs) * time.Millisecond
	return s
}
