package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/temcen/bookrec/internal/config"
	"github.com/temcen/bookrec/internal/engine"
	"github.com/temcen/bookrec/internal/handlers"
	"github.com/temcen/bookrec/internal/messaging"
	"github.com/temcen/bookrec/internal/metrics"
	"github.com/temcen/bookrec/internal/middleware"
	"github.com/temcen/bookrec/internal/store"
)

// Core is the engine and the resources it owns, without the HTTP surface.
type Core struct {
	Engine    *engine.Engine
	Metrics   *metrics.Collector
	store     store.Store
	publisher *messaging.Publisher
}

// NewCore wires the engine to its store, metrics and optional event publisher.
func NewCore(cfg *config.Config, logger *logrus.Logger, reg prometheus.Registerer) (*Core, error) {
	core := &Core{}

	if cfg.Monitoring.Enabled && reg != nil {
		m, err := metrics.New(reg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
		core.Metrics = m
	}

	st, err := store.New(cfg.Store, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize model store: %w", err)
	}
	core.store = st

	opts := []engine.Option{
		engine.WithStore(st),
		engine.WithMetrics(core.Metrics),
	}
	if cfg.Kafka.Enabled {
		core.publisher = messaging.NewPublisher(cfg.Kafka, logger, core.Metrics)
		opts = append(opts, engine.WithObserver(core.publisher))
		logger.WithFields(logrus.Fields{
			"brokers": cfg.Kafka.Brokers,
			"topic":   cfg.Kafka.Topic,
		}).Info("Model events enabled")
	}

	core.Engine = engine.New(cfg, logger, opts...)
	return core, nil
}

func (c *Core) Close() error {
	var errs []error
	if c.publisher != nil {
		if err := c.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close event publisher: %w", err))
		}
	}
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close model store: %w", err))
		}
	}
	return errors.Join(errs...)
}

type App struct {
	*Core

	config   *config.Config
	logger   *logrus.Logger
	redis    *redis.Client
	handlers *handlers.Handlers
	router   *gin.Engine
}

func New(cfg *config.Config) (*App, error) {
	app := &App{
		config: cfg,
		logger: SetupLogger(cfg),
	}

	core, err := NewCore(cfg, app.logger, prometheus.DefaultRegisterer)
	if err != nil {
		return nil, err
	}
	app.Core = core

	if cfg.Redis.Enabled {
		app.redis = openRedis(cfg.Redis, app.logger)
	}

	app.handlers = handlers.New(core.Engine, app.logger)
	app.setupRouter()

	return app, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func (a *App) Logger() *logrus.Logger {
	return a.logger
}

// WarmAsync builds or restores the model in the background so the first
// request does not pay for it. Queries arriving earlier wait for the same build.
func (a *App) WarmAsync() {
	go func() {
		info, err := a.Engine.Warm()
		if err != nil {
			a.logger.WithError(err).Error("Model warm-up failed, queries will retry")
			return
		}
		a.logger.WithFields(logrus.Fields{
			"snapshot_id": info.SnapshotID,
			"mode":        info.Mode,
			"books":       info.Books,
		}).Info("Recommendation model ready")
	}()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down application...")

	var errs []error
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
		}
	}
	if err := a.Core.Close(); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		a.logger.WithError(err).Error("Error releasing resources")
		return err
	}
	return nil
}

func SetupLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

// openRedis returns a client even when the server is unreachable; the
// response cache degrades to pass-through on errors.
func openRedis(cfg config.RedisConfig, logger *logrus.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.URL,
		MaxRetries:   cfg.MaxRetries,
		PoolSize:     cfg.PoolSize,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.WithError(err).WithField("addr", cfg.URL).Warn("Redis not reachable, response cache will miss")
	} else {
		logger.WithField("addr", cfg.URL).Info("Connected to Redis")
	}
	return client
}

func (a *App) setupRouter() {
	if a.config.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(a.logger))
	router.Use(middleware.Recovery(a.logger))
	router.Use(middleware.CORS(a.config.Security.CORS))
	router.Use(a.Metrics.HTTPMiddleware())

	router.GET("/", a.handlers.Health.Root)
	router.GET("/health", a.handlers.Health.Check)

	if a.config.Monitoring.Enabled {
		router.GET(a.config.Monitoring.MetricsPath, gin.WrapH(promhttp.Handler()))
	}

	api := router.Group("/api/v1")
	{
		api.Use(middleware.ResponseCache(a.redis, middleware.CacheConfig{
			DefaultTTL: a.config.Redis.TTL,
			MaxSize:    a.config.Redis.MaxSize,
			KeyPrefix:  a.config.Redis.KeyPrefix,
			SkipPaths:  []string{"/api/v1/admin"},
		}, a.Engine.SnapshotID, a.Metrics, a.logger))

		api.GET("/recommend", a.handlers.Genres.Recommend)
		api.POST("/recommend/preferences", a.handlers.Books.Preferences)
		api.GET("/genres", a.handlers.Genres.List)
		api.GET("/genre/:genre/info", a.handlers.Genres.Info)
		api.GET("/search", a.handlers.Books.Search)
		api.GET("/analytics", a.handlers.Books.Analytics)
		api.GET("/sentiment", a.handlers.Sentiment.Analyze)

		books := api.Group("/books")
		{
			books.GET("/similar", a.handlers.Books.Similar)
			books.GET("/popular", a.handlers.Books.Popular)
		}

		admin := api.Group("/admin")
		{
			admin.POST("/retrain", a.handlers.Admin.Retrain)
			admin.GET("/model", a.handlers.Admin.Model)
		}
	}

	a.router = router
}
