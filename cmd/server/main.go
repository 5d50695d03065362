package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	cartapp "github.com/storefront/backend/internal/application/cart"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/storage"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	logCfg := &logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	// Initialize log export and bridge zap into it
	lp, err := telemetry.NewLoggerProvider(context.Background(), telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Environment:       cfg.App.Env,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize log export", zap.Error(err))
	}
	if lp.IsEnabled() {
		logCfg.LoggerProvider = lp.Provider()
		logCfg.Name = cfg.Telemetry.ServiceName
		if log, err = logger.New(logCfg); err != nil {
			panic("Failed to initialize logger: " + err.Error())
		}
	}
	defer logger.Sync(log)

	log.Info("Starting cart service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	// Initialize tracing
	tp, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Environment:       cfg.App.Env,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	// Initialize metrics
	mp, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Environment:       cfg.App.Env,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}

	// Initialize cart storage
	storageOpts := []storage.FactoryOption{
		storage.WithLogger(log.Named("storage")),
		storage.WithTelemetry(cfg.Telemetry),
	}
	var cartMetrics *cartapp.Metrics
	if mp.IsEnabled() {
		meter := mp.Meter(telemetry.MeterName)
		storageOpts = append(storageOpts, storage.WithMeter(meter))
		if cartMetrics, err = cartapp.NewMetrics(meter); err != nil {
			log.Fatal("Failed to create cart metrics", zap.Error(err))
		}
	}
	kv, driver, err := storage.NewFactory(cfg.Storage, storageOpts...).CreateStore()
	if err != nil {
		log.Fatal("Failed to initialize cart storage", zap.Error(err))
	}
	defer func() {
		if err := kv.Close(); err != nil {
			log.Error("Error closing cart storage", zap.Error(err))
		}
	}()

	// Initialize cart sessions
	cartLog := log.Named("cart")
	registry := cartapp.NewRegistry(kv,
		cartapp.WithRegistryLogger(cartLog),
		cartapp.WithRegistryStorageKey(cfg.Storage.Key),
		cartapp.WithSessionLimits(cfg.Sessions.MaxLive, cfg.Sessions.IdleTTL),
		cartapp.WithRegistryMetrics(cartMetrics),
		cartapp.WithSessionHook(func(ctx context.Context, sessionID string, state cartapp.State) {
			logger.WithLogger(ctx, cartLog).Debug("cart changed",
				zap.String("session_id", sessionID),
				zap.Int("items", len(state.Items)),
				zap.Int("cart_quantity", state.Quantity),
				zap.Bool("is_open", state.IsOpen),
			)
		}),
	)
	cartService := cartapp.NewCartService(registry)

	// Setup Gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	if cfg.HTTP.SessionHeader != middleware.DefaultSessionHeader {
		corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, cfg.HTTP.SessionHeader)
		corsCfg.ExposeHeaders = append(corsCfg.ExposeHeaders, cfg.HTTP.SessionHeader)
	}

	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     tp.IsEnabled(),
	}))
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log, cfg.HTTP.SessionHeader))
	engine.Use(middleware.CORSWithConfig(corsCfg))
	engine.Use(middleware.Secure())

	// Setup routes
	cartHandler := handler.NewCartHandler(cartService)
	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, driver, registry)

	cartRoutes := router.CartRoutes(cartHandler, middleware.Session(cfg.HTTP.SessionHeader)).
		Use(middleware.SpanEnricher())
	systemRoutes := router.SystemRoutes(systemHandler)

	router.NewRouter(engine, router.WithHealthCheck("/health", systemHandler.Health)).
		Register(cartRoutes).
		Register(systemRoutes).
		Setup()

	log.Info("Routes registered",
		zap.Int("cart", cartRoutes.Len()),
		zap.Int("system", systemRoutes.Len()),
	)

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := tp.Shutdown(ctx); err != nil {
		log.Error("Failed to flush traces", zap.Error(err))
	}
	if err := mp.Shutdown(ctx); err != nil {
		log.Error("Failed to flush metrics", zap.Error(err))
	}

	log.Info("Server exited gracefully",
		zap.Int("active_sessions", registry.Len()),
	)
	if err := lp.Shutdown(ctx); err != nil {
		log.Error("Failed to flush logs", zap.Error(err))
	}
}
