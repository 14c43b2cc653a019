package app

import (
	"context"
	"time"

	"wellness-tracker/internal/circuitbreaker"
	"wellness-tracker/internal/common/logging"
	"wellness-tracker/internal/ratelimit"
	"wellness-tracker/internal/redis"
)

// initializeRateLimiter builds the policy table and limiter engine. Backend
// mode is resolved exactly once here: a connected Redis client means shared
// counting, anything else means local-only for the life of the process.
func (app *App) initializeRateLimiter() *ratelimit.Limiter {
	policies := ratelimit.DefaultPolicies()

	// The generic API policy is the only tunable one; the rest are part of
	// the abuse-mitigation posture and change only with a redeploy.
	window, ok := ratelimit.ParseWindow(app.Config.RateLimitAPIWindow)
	if !ok {
		app.Logger.Warn("Rate Limiting: could not parse RATE_LIMIT_API_WINDOW, using default",
			logging.Field{Key: "value", Value: app.Config.RateLimitAPIWindow},
			logging.Field{Key: "default", Value: ratelimit.DefaultWindow.String()},
		)
	}
	apiPolicy := policies[ratelimit.CategoryAPI]
	apiPolicy.Window = window
	apiPolicy.Limit = app.Config.RateLimitAPILimit
	policies[ratelimit.CategoryAPI] = apiPolicy

	mode := ratelimit.BackendLocalOnly
	var shared ratelimit.SharedBackend
	if app.RedisClient != nil {
		mode = ratelimit.BackendShared
		shared = newSharedCounterAdapter(app.RedisClient, app.Logger)
	}

	limiter := ratelimit.New(ratelimit.Config{
		Mode:     mode,
		Shared:   shared,
		Policies: policies,
		Logger:   app.Logger,
		Reporter: app.Reporter,
		Enabled:  app.Config.RateLimitEnabled,
	})

	app.Logger.Info("Rate Limiting: Initialized",
		logging.Field{Key: "mode", Value: mode.String()},
		logging.Field{Key: "enabled", Value: app.Config.RateLimitEnabled},
	)

	return limiter
}

// sharedCounterAdapter adapts the Redis client to the limiter's backend
// interface and guards every call with a circuit breaker, so a dead Redis
// fails fast instead of costing each request the full backend timeout.
type sharedCounterAdapter struct {
	client  *redis.Client
	breaker *circuitbreaker.Breaker
}

func newSharedCounterAdapter(client *redis.Client, logger logging.Logger) *sharedCounterAdapter {
	breaker, err := circuitbreaker.New("redis-rate-limit", circuitbreaker.DefaultConfig())
	if err != nil {
		// DefaultConfig is always valid; this is unreachable short of a bug
		logger.Error("failed to build circuit breaker for shared counters", err)
	}
	return &sharedCounterAdapter{client: client, breaker: breaker}
}

func (a *sharedCounterAdapter) IncrWindow(ctx context.Context, key string, window time.Duration) (ratelimit.WindowSample, error) {
	result, err := a.breaker.Execute(func() (interface{}, error) {
		return a.client.IncrWindow(ctx, key, window)
	})
	if err != nil {
		return ratelimit.WindowSample{}, err
	}

	sample := result.(*redis.WindowSample)
	return ratelimit.WindowSample{Count: sample.Count, ResetAt: sample.ResetAt}, nil
}

func (a *sharedCounterAdapter) Delete(ctx context.Context, key string) error {
	_, err := a.breaker.Execute(func() (interface{}, error) {
		return nil, a.client.Delete(ctx, key)
	})
	return err
}

func (a *sharedCounterAdapter) Health() error {
	return a.client.Health()
}
