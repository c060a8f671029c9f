package main

import (
    "context"
    "fmt"
    "math/rand"
    "os"
    "time"

    "github.com/dirflash/fuse-pairing/internal/attendance"
    "github.com/dirflash/fuse-pairing/internal/config"
    "github.com/dirflash/fuse-pairing/internal/db"
    "github.com/dirflash/fuse-pairing/internal/directory"
    "github.com/dirflash/fuse-pairing/internal/engine"
    "github.com/dirflash/fuse-pairing/internal/health"
    "github.com/dirflash/fuse-pairing/internal/history"
    "github.com/dirflash/fuse-pairing/internal/metrics"
    "github.com/dirflash/fuse-pairing/internal/pairing"
    "github.com/dirflash/fuse-pairing/internal/writer"
    "github.com/dirflash/fuse-pairing/pkg/logger"
    "github.com/dirflash/fuse-pairing/pkg/retry"
)

// services bundles every component a subcommand might need, assembled once
// by initializeForCLI and shared via the package-level svc variable.
type services struct {
    cfg             *config.Config
    database        *db.DB
    cache           *db.Cache
    dirStore        directory.Store
    histStore       history.Store
    prematch        *attendance.PrematchStore
    attendanceStore attendance.Store
    engine          *engine.Engine
    healthSvc       *health.HealthService
    metricsSvc      *metrics.PrometheusMetrics
}

var cfg *config.Config

func loadConfig() error {
    loaded, err := config.Load(configFile)
    if err != nil {
        return err
    }
    cfg = loaded
    return nil
}

func initLogger() error {
    logConfig := logger.Config{
        Level:  cfg.Monitoring.Logging.Level,
        Format: cfg.Monitoring.Logging.Format,
        Output: cfg.Monitoring.Logging.Output,
        File: logger.FileConfig{
            Enabled:    cfg.Monitoring.Logging.File.Enabled,
            Path:       cfg.Monitoring.Logging.File.Path,
            MaxSize:    cfg.Monitoring.Logging.File.MaxSize,
            MaxBackups: cfg.Monitoring.Logging.File.MaxBackups,
            MaxAge:     cfg.Monitoring.Logging.File.MaxAge,
            Compress:   cfg.Monitoring.Logging.File.Compress,
        },
        Fields: cfg.Monitoring.Logging.Fields,
    }

    if verbose {
        logConfig.Level = "debug"
    }

    return logger.Init(logConfig)
}

// initializeForCLI is the root command's PersistentPreRunE: load config,
// start logging, then assemble every store and the engine.
func initializeForCLI() error {
    if err := loadConfig(); err != nil {
        return fmt.Errorf("failed to load config: %w", err)
    }
    if err := initLogger(); err != nil {
        return fmt.Errorf("failed to initialize logger: %w", err)
    }
    if err := initServices(); err != nil {
        return fmt.Errorf("failed to initialize services: %w", err)
    }
    return nil
}

func initServices() error {
    dbConfig := db.Config{
        Driver:          cfg.Database.Driver,
        Host:            cfg.Database.Host,
        Port:            cfg.Database.Port,
        Username:        cfg.Database.Username,
        Password:        cfg.Database.Password,
        Database:        cfg.Database.Database,
        MaxOpenConns:    cfg.Database.MaxOpenConns,
        MaxIdleConns:    cfg.Database.MaxIdleConns,
        ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
        RetryAttempts:   cfg.Database.RetryAttempts,
        RetryDelay:      cfg.Database.RetryDelay,
    }
    if err := db.Initialize(dbConfig); err != nil {
        return err
    }
    database := db.GetDB()

    if err := db.RunDatabaseMigrations(database.DB); err != nil {
        logger.WithError(err).Warn("database migrations failed, continuing against existing schema")
    }

    cacheConfig := db.CacheConfig{
        Host:         cfg.Redis.Host,
        Port:         cfg.Redis.Port,
        Password:     cfg.Redis.Password,
        DB:           cfg.Redis.DB,
        PoolSize:     cfg.Redis.PoolSize,
        MinIdleConns: cfg.Redis.MinIdleConns,
        MaxRetries:   cfg.Redis.MaxRetries,
    }
    if err := db.InitializeCache(cacheConfig, cfg.App.Name); err != nil {
        logger.WithError(err).Warn("failed to initialize redis cache, directory lookups will always miss it")
    }
    cache := db.GetCache()

    if err := os.MkdirAll(cfg.Pairing.MatchFileDir, 0o755); err != nil {
        return fmt.Errorf("failed to create match file directory: %w", err)
    }

    retryCfg := retry.Config{
        MaxAttempts:   cfg.Pairing.RetryMaxAttempts,
        BaseDelay:     cfg.Pairing.RetryBaseDelay,
        BackoffFactor: cfg.Pairing.RetryBackoffFactor,
    }

    rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

    dirStore := directory.NewMySQLStore(database.DB, cache, retryCfg, cfg.Pairing.DirectoryWorkers, rnd)
    histStore := history.NewMySQLStore(database.DB, retryCfg)
    prematchStore := attendance.NewPrematchStore(database.DB, retryCfg)
    attendanceStore := attendance.NewMySQLStore(database.DB, retryCfg)
    w := writer.New(histStore, dirStore, cfg.Pairing.MatchFileDir, rnd)

    selCfg := pairing.Config{WaterlineYears: cfg.Pairing.WaterlineYears, DateLayout: cfg.Pairing.DateLayout}
    eng := engine.New(dirStore, histStore, w, cfg.Pairing.HostAlias, cfg.Pairing.MaxKobayashiResets, rnd, selCfg)

    metricsSvc := metrics.NewPrometheusMetrics()
    if cfg.Monitoring.Metrics.Enabled {
        go metricsSvc.ServeHTTP(cfg.Monitoring.Metrics.Port)
    }

    var healthSvc *health.HealthService
    if cfg.Monitoring.Health.Enabled {
        healthSvc = health.NewHealthService(cfg.Monitoring.Health.Port)
        healthSvc.RegisterLivenessCheck("database", health.CheckFunc(func(ctx context.Context) error {
            if !database.IsHealthy() {
                return fmt.Errorf("database not healthy")
            }
            return database.PingContext(ctx)
        }))
        healthSvc.RegisterReadinessCheck("database", health.CheckFunc(func(ctx context.Context) error {
            return database.PingContext(ctx)
        }))
        go healthSvc.Start()
    }

    svc = &services{
        cfg:             cfg,
        database:        database,
        cache:           cache,
        dirStore:        dirStore,
        histStore:       histStore,
        prematch:        prematchStore,
        attendanceStore: attendanceStore,
        engine:          eng,
        healthSvc:       healthSvc,
        metricsSvc:      metricsSvc,
    }

    return nil
}
