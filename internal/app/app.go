// Package app wires the application's components together: configuration,
// storage, the optional Redis connection, the rate limiter, auth and routes.
package app

import (
	"wellness-tracker/internal/auth"
	"wellness-tracker/internal/common/logging"
	"wellness-tracker/internal/config"
	"wellness-tracker/internal/handlers"
	"wellness-tracker/internal/ratelimit"
	"wellness-tracker/internal/redis"
	"wellness-tracker/internal/storage"
	"wellness-tracker/internal/telemetry"
)

// App holds all the application dependencies
type App struct {
	Config      *config.Config
	Storage     *storage.Storage
	Auth        *auth.Auth
	RedisClient *redis.Client
	Limiter     *ratelimit.Limiter
	Handlers    *handlers.Handlers
	Logger      logging.Logger
	Reporter    telemetry.Reporter
}

// New creates a new application instance with all dependencies initialized
// in order. Redis is optional: a missing or unreachable shared backend
// leaves the rate limiter in local-only mode instead of failing startup.
func New(cfg *config.Config) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logging.GetGlobalLogger().WithFields(logging.Field{Key: "component", Value: "app"}),
	}
	app.Reporter = telemetry.NewLogReporter(app.Logger)

	store, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	app.Storage = store
	app.Logger.Info("Storage: Connected", logging.Field{Key: "path", Value: cfg.DatabasePath})

	app.initializeRedis()
	app.Limiter = app.initializeRateLimiter()

	app.Auth = auth.New(cfg.JWTSecret)
	app.Handlers = handlers.New(app.Storage, app.Auth, app.Limiter, cfg, app.Logger)

	return app, nil
}

func (app *App) initializeRedis() {
	if !app.Config.SharedCountersConfigured() {
		app.Logger.Warn("Redis: Not configured; rate limiting runs in local-only mode for the life of the process")
		return
	}

	client, err := redis.NewClient(&redis.Config{
		Address:  app.Config.RedisAddress,
		Password: app.Config.RedisPassword,
		DB:       app.Config.RedisDB,
		PoolSize: app.Config.RedisPoolSize,
	})
	if err != nil {
		app.Logger.Warn("Redis: Connection failed; rate limiting runs in local-only mode",
			logging.Err(err))
		return
	}

	app.RedisClient = client
	app.Logger.Info("Redis: Connected", logging.Field{Key: "address", Value: app.Config.RedisAddress})
}

// Cleanup releases all resources
func (app *App) Cleanup() {
	if app.Storage != nil {
		app.Storage.Close()
	}
	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
