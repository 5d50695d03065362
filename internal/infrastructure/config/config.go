package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Sessions  SessionsConfig
	Storage   StorageConfig
	Telemetry TelemetryConfig
}

// SessionsConfig bounds the cart sessions held in memory
type SessionsConfig struct {
	MaxLive int           // live session stores before the least recently used is released
	IdleTTL time.Duration // idle time after which a session store is released
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	ShutdownTimeout  time.Duration
	MaxHeaderBytes   int
	SessionHeader    string // header carrying the cart session id
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
}

// StorageConfig selects and configures the key-value backend for carts
type StorageConfig struct {
	Driver           string // memory, redis, postgres, sqlite
	Key              string // storage key of the cart slot
	FallbackInMemory bool   // fall back to process memory if the driver is unreachable
	AutoMigrate      bool   // create cart_storage through GORM instead of SQL migrations
	Redis            RedisConfig
	Database         DatabaseConfig
	SQLite           SQLiteConfig
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host      string
	Port      int
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration // 0 keeps carts forever
}

// DatabaseConfig holds PostgreSQL connection settings
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
	ConnMaxIdleTime int           // in minutes
	SlowThreshold   time.Duration // queries slower than this are logged; 0 disables
}

// SQLiteConfig holds the SQLite database location
type SQLiteConfig struct {
	Path string // file path or ":memory:"
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	DBTraceEnabled    bool    // Enable database query tracing (otelgorm)
	DBLogFullSQL      bool    // Log full SQL statements (dev only)

	MetricsEnabled        bool          // Export cart and storage metrics over OTLP
	MetricsExportInterval time.Duration // Default: 60s
	LogsEnabled           bool          // Bridge zap entries to the OTLP logs pipeline
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with CART_ prefix (e.g., CART_STORAGE_DRIVER)
// 2. config.toml
// 3. Built-in defaults
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
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("CART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bools that default to true need an explicit default so env vars can turn them off
	v.SetDefault("storage.fallback_in_memory", true)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			ShutdownTimeout:  v.GetDuration("http.shutdown_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			SessionHeader:    v.GetString("http.session_header"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Sessions: SessionsConfig{
			MaxLive: v.GetInt("sessions.max_live"),
			IdleTTL: v.GetDuration("sessions.idle_ttl"),
		},
		Storage: StorageConfig{
			Driver:           strings.ToLower(v.GetString("storage.driver")),
			Key:              v.GetString("storage.key"),
			FallbackInMemory: v.GetBool("storage.fallback_in_memory"),
			AutoMigrate:      v.GetBool("storage.auto_migrate"),
			Redis: RedisConfig{
				Host:      v.GetString("storage.redis.host"),
				Port:      v.GetInt("storage.redis.port"),
				Password:  v.GetString("storage.redis.password"),
				DB:        v.GetInt("storage.redis.db"),
				KeyPrefix: v.GetString("storage.redis.key_prefix"),
				TTL:       v.GetDuration("storage.redis.ttl"),
			},
			Database: DatabaseConfig{
				Host:            v.GetString("storage.database.host"),
				Port:            v.GetInt("storage.database.port"),
				User:            v.GetString("storage.database.user"),
				Password:        v.GetString("storage.database.password"),
				DBName:          v.GetString("storage.database.dbname"),
				SSLMode:         v.GetString("storage.database.sslmode"),
				MaxOpenConns:    v.GetInt("storage.database.max_open_conns"),
				MaxIdleConns:    v.GetInt("storage.database.max_idle_conns"),
				ConnMaxLifetime: v.GetInt("storage.database.conn_max_lifetime"),
				ConnMaxIdleTime: v.GetInt("storage.database.conn_max_idle_time"),
				SlowThreshold:   v.GetDuration("storage.database.slow_threshold"),
			},
			SQLite: SQLiteConfig{
				Path: v.GetString("storage.sqlite.path"),
			},
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),

			MetricsEnabled:        v.GetBool("telemetry.metrics_enabled"),
			MetricsExportInterval: v.GetDuration("telemetry.metrics_export_interval"),
			LogsEnabled:           v.GetBool("telemetry.logs_enabled"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "storefront-cart"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 30 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.SessionHeader == "" {
		cfg.HTTP.SessionHeader = "X-Cart-Session"
	}
	// An empty origin list means no cross-origin requests are allowed until configured.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "X-Request-ID", cfg.HTTP.SessionHeader}
	}
	if cfg.Sessions.MaxLive == 0 {
		cfg.Sessions.MaxLive = 10000
	}
	if cfg.Sessions.IdleTTL == 0 {
		cfg.Sessions.IdleTTL = 30 * time.Minute
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DriverMemory
	}
	if cfg.Storage.Key == "" {
		cfg.Storage.Key = "shopping-cart"
	}
	if cfg.Storage.Redis.Host == "" {
		cfg.Storage.Redis.Host = "localhost"
	}
	if cfg.Storage.Redis.Port == 0 {
		cfg.Storage.Redis.Port = 6379
	}
	if cfg.Storage.Redis.KeyPrefix == "" {
		cfg.Storage.Redis.KeyPrefix = "storefront:cart:"
	}
	if cfg.Storage.Database.Host == "" {
		cfg.Storage.Database.Host = "localhost"
	}
	if cfg.Storage.Database.Port == 0 {
		cfg.Storage.Database.Port = 5432
	}
	if cfg.Storage.Database.User == "" {
		cfg.Storage.Database.User = "postgres"
	}
	if cfg.Storage.Database.DBName == "" {
		cfg.Storage.Database.DBName = "storefront"
	}
	if cfg.Storage.Database.SSLMode == "" {
		cfg.Storage.Database.SSLMode = "disable"
	}
	if cfg.Storage.Database.MaxOpenConns == 0 {
		cfg.Storage.Database.MaxOpenConns = 10
	}
	if cfg.Storage.Database.MaxIdleConns == 0 {
		cfg.Storage.Database.MaxIdleConns = 2
	}
	if cfg.Storage.Database.ConnMaxLifetime == 0 {
		cfg.Storage.Database.ConnMaxLifetime = 60
	}
	if cfg.Storage.Database.ConnMaxIdleTime == 0 {
		cfg.Storage.Database.ConnMaxIdleTime = 30
	}
	// Negative disables the slow query warning; zero selects the default
	if cfg.Storage.Database.SlowThreshold == 0 {
		cfg.Storage.Database.SlowThreshold = 200 * time.Millisecond
	} else if cfg.Storage.Database.SlowThreshold < 0 {
		cfg.Storage.Database.SlowThreshold = 0
	}
	if cfg.Storage.SQLite.Path == "" {
		cfg.Storage.SQLite.Path = "cart.db"
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.MetricsExportInterval == 0 {
		cfg.Telemetry.MetricsExportInterval = 60 * time.Second
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	drivers := []string{DriverMemory, DriverRedis, DriverPostgres, DriverSQLite}
	if !slices.Contains(drivers, c.Storage.Driver) {
		return fmt.Errorf("storage.driver must be one of %s, got %q",
			strings.Join(drivers, ", "), c.Storage.Driver)
	}
	if strings.TrimSpace(c.Storage.Key) == "" {
		return fmt.Errorf("storage.key cannot be blank")
	}
	if c.Sessions.MaxLive < 0 {
		return fmt.Errorf("sessions.max_live cannot be negative")
	}
	if c.Sessions.IdleTTL < 0 {
		return fmt.Errorf("sessions.idle_ttl cannot be negative")
	}
	if c.Storage.Redis.TTL < 0 {
		return fmt.Errorf("storage.redis.ttl cannot be negative")
	}

	if c.Storage.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("storage.database.max_open_conns must be positive")
	}
	if c.Storage.Database.MaxIdleConns < 0 {
		return fmt.Errorf("storage.database.max_idle_conns cannot be negative")
	}
	if c.Storage.Database.MaxIdleConns > c.Storage.Database.MaxOpenConns {
		return fmt.Errorf("storage.database.max_idle_conns (%d) cannot exceed storage.database.max_open_conns (%d)",
			c.Storage.Database.MaxIdleConns, c.Storage.Database.MaxOpenConns)
	}

	if c.App.Env == "production" {
		// Carts held only in process memory are lost on every deploy
		if c.Storage.Driver == DriverMemory {
			return fmt.Errorf("storage.driver cannot be 'memory' in production")
		}
		if c.Storage.Driver == DriverPostgres && c.Storage.Database.SSLMode == "disable" {
			return fmt.Errorf("storage.database.sslmode cannot be 'disable' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production to prevent sensitive data exposure in traces")
		}
	}

	if c.Telemetry.MetricsExportInterval < 0 {
		return fmt.Errorf("telemetry.metrics_export_interval cannot be negative")
	}
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// IsProduction reports whether the app runs in the production environment
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

// Addr returns the Redis host:port address
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
