package storage

import (
	"fmt"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/infrastructure/config"
	applogger "github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Factory creates the cart key-value store selected by configuration
type Factory struct {
	cfg                   config.StorageConfig
	telemetry             config.TelemetryConfig
	meter                 metric.Meter
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory store
// when the configured backend is unavailable. Defaults to cfg.FallbackInMemory.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// WithTelemetry enables tracing of storage calls and, for SQL drivers, of queries
func WithTelemetry(cfg config.TelemetryConfig) FactoryOption {
	return func(f *Factory) {
		f.telemetry = cfg
	}
}

// WithMeter records storage call latency on meter
func WithMeter(meter metric.Meter) FactoryOption {
	return func(f *Factory) {
		f.meter = meter
	}
}

// NewFactory creates a new factory
func NewFactory(cfg config.StorageConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		cfg:                   cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: cfg.FallbackInMemory,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisStore creates a Redis-based store
func (f *Factory) CreateRedisStore() (cart.KeyValueStore, error) {
	store, err := NewRedisStore(RedisConfig{
		Host:      f.cfg.Redis.Host,
		Port:      f.cfg.Redis.Port,
		Password:  f.cfg.Redis.Password,
		DB:        f.cfg.Redis.DB,
		KeyPrefix: f.cfg.Redis.KeyPrefix,
		TTL:       f.cfg.Redis.TTL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis cart store: %w", err)
	}
	return store, nil
}

// CreatePostgresStore connects to PostgreSQL and returns a store that owns the connection
func (f *Factory) CreatePostgresStore() (cart.KeyValueStore, error) {
	db, err := persistence.NewDatabaseWithCustomLogger(&f.cfg.Database, f.gormLogger())
	if err != nil {
		return nil, fmt.Errorf("failed to create PostgreSQL cart store: %w", err)
	}
	return f.gormStore(db, "postgresql", f.cfg.AutoMigrate)
}

// CreateSQLiteStore opens the SQLite database and returns a store that owns it.
// SQLite has no migration runner, so its table is always created through GORM.
func (f *Factory) CreateSQLiteStore() (cart.KeyValueStore, error) {
	db, err := persistence.NewSQLiteDatabase(&f.cfg.SQLite, f.gormLogger())
	if err != nil {
		return nil, fmt.Errorf("failed to create SQLite cart store: %w", err)
	}
	return f.gormStore(db, "sqlite", true)
}

// CreateInMemoryStore creates an in-memory store.
// WARNING: carts held in memory are lost on restart and are not shared
// across process instances.
func (f *Factory) CreateInMemoryStore() cart.KeyValueStore {
	return NewInMemoryStore()
}

// CreateStore creates the store named by cfg.Driver. If that backend cannot
// be reached and fallback is allowed, it logs a warning and returns an
// in-memory store instead. The result is wrapped with tracing when telemetry
// is enabled and with latency metrics when a meter is set.
func (f *Factory) CreateStore() (cart.KeyValueStore, string, error) {
	var (
		store cart.KeyValueStore
		err   error
	)

	driver := f.cfg.Driver
	switch driver {
	case config.DriverMemory:
		store = f.CreateInMemoryStore()
	case config.DriverRedis:
		store, err = f.CreateRedisStore()
	case config.DriverPostgres:
		store, err = f.CreatePostgresStore()
	case config.DriverSQLite:
		store, err = f.CreateSQLiteStore()
	default:
		return nil, "", fmt.Errorf("unknown storage driver %q", driver)
	}

	if err != nil {
		if !f.allowInMemoryFallback {
			return nil, "", fmt.Errorf("%s required for cart storage but unavailable: %w", driver, err)
		}

		f.logger.Warn("cart storage unavailable, falling back to in-memory store. "+
			"Carts will not survive a restart.",
			zap.String("driver", driver),
			zap.Error(err),
		)
		driver = config.DriverMemory
		store = f.CreateInMemoryStore()
	}

	f.logger.Info("using cart storage", zap.String("driver", driver))

	if f.telemetry.Enabled || f.meter != nil {
		var opts []TracedStoreOption
		if f.meter != nil {
			histogram, err := NewDurationHistogram(f.meter)
			if err != nil {
				_ = store.Close()
				return nil, "", err
			}
			opts = append(opts, WithDurationHistogram(histogram))
		}
		store = NewTracedStore(store, driver, opts...)
	}
	return store, driver, nil
}

func (f *Factory) gormStore(db *persistence.Database, system string, migrate bool) (cart.KeyValueStore, error) {
	err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:    f.telemetry.Enabled && f.telemetry.DBTraceEnabled,
		LogFullSQL: f.telemetry.DBLogFullSQL,
		DBSystem:   system,
	}, f.logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to register database tracing: %w", err)
	}

	store := NewGormStoreWithCloser(db.DB, db.Close)
	if migrate {
		if err := store.AutoMigrate(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return store, nil
}

func (f *Factory) gormLogger() *applogger.GormLogger {
	return applogger.NewGormLogger(f.logger, applogger.MapGormLogLevel("warn"),
		applogger.WithSlowThreshold(f.cfg.Database.SlowThreshold),
	)
}
