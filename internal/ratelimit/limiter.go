package ratelimit

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"wellness-tracker/internal/common/logging"
	"wellness-tracker/internal/telemetry"
)

// BackendMode is resolved once at construction. Absent shared-backend
// credentials mean permanently local-only counting; the mode is never
// re-checked per request.
type BackendMode int

const (
	// BackendShared uses the shared counter backend, falling back to the
	// local store on failure
	BackendShared BackendMode = iota
	// BackendLocalOnly counts exclusively in the local store
	BackendLocalOnly
)

func (m BackendMode) String() string {
	if m == BackendLocalOnly {
		return "local-only"
	}
	return "shared"
}

// Health summarizes the limiter's operational state for dashboards
type Health string

const (
	HealthHealthy  Health = "healthy"
	HealthDegraded Health = "degraded"
	HealthFailed   Health = "failed"
)

// WindowSample is one shared-backend observation: requests currently in the
// window (including the one just recorded) and when the oldest leaves it.
type WindowSample struct {
	Count   int
	ResetAt time.Time
}

// SharedBackend is the shared counter store the limiter consults first.
// Implementations are expected to be network-backed and may fail; the
// limiter treats every error identically by falling back to local counting.
type SharedBackend interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (WindowSample, error)
	Delete(ctx context.Context, key string) error
	Health() error
}

// Config configures a Limiter.
type Config struct {
	Mode     BackendMode
	Shared   SharedBackend // required for BackendShared
	Policies map[Category]Policy
	Logger   logging.Logger
	Reporter telemetry.Reporter
	Enabled  bool
	// SharedTimeout bounds each shared-backend call; expiry counts as a
	// backend failure (default 2s)
	SharedTimeout time.Duration
}

// failedStateWindow is how long after a fail-open the limiter reports
// Health as failed.
const failedStateWindow = time.Minute

// Limiter evaluates requests against the policy table. Construct one at
// process start and share it across handlers; it is safe for concurrent use
// and holds no per-request state.
type Limiter struct {
	mode          BackendMode
	shared        SharedBackend
	local         *LocalStore
	policies      map[Category]Policy
	logger        logging.Logger
	reporter      telemetry.Reporter
	enabled       bool
	sharedTimeout time.Duration

	lastFailOpen atomic.Int64 // unix nano of the most recent fail-open, 0 if none
	now          func() time.Time
}

// New creates a Limiter. Missing optional fields get working defaults; a
// BackendShared mode without a backend degrades to local-only with a
// warning rather than failing construction.
func New(cfg Config) *Limiter {
	if cfg.Policies == nil {
		cfg.Policies = DefaultPolicies()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.GetGlobalLogger()
	}
	if cfg.Reporter == nil {
		cfg.Reporter = telemetry.NopReporter{}
	}
	if cfg.SharedTimeout <= 0 {
		cfg.SharedTimeout = 2 * time.Second
	}
	if cfg.Mode == BackendShared && cfg.Shared == nil {
		cfg.Logger.Warn("rate limiter: shared mode requested without a backend, running local-only")
		cfg.Mode = BackendLocalOnly
	}

	return &Limiter{
		mode:          cfg.Mode,
		shared:        cfg.Shared,
		local:         NewLocalStore(),
		policies:      cfg.Policies,
		logger:        cfg.Logger,
		reporter:      cfg.Reporter,
		enabled:       cfg.Enabled,
		sharedTimeout: cfg.SharedTimeout,
		now:           time.Now,
	}
}

// Policy returns the policy for category, falling back to the generic API
// policy for unknown categories so the limiter never faults on a bad token.
func (l *Limiter) Policy(category Category) Policy {
	if p, ok := l.policies[category]; ok {
		return p
	}
	return l.policies[CategoryAPI]
}

// Check evaluates one request and always returns a usable decision. Backend
// failures are logged and reported, never propagated: the shared backend is
// tried first (bounded by SharedTimeout), the local store substitutes on
// failure, and if both paths fail the limiter fails open so it can never
// become a total outage by itself.
func (l *Limiter) Check(ctx context.Context, category Category, identifier string) Decision {
	policy := l.Policy(category)

	if !l.enabled {
		return Decision{
			Allowed:    true,
			Remaining:  policy.Limit,
			Limit:      policy.Limit,
			ResetAt:    l.now().Add(policy.Window),
			Identifier: identifier,
			Category:   policy.Category,
			Source:     SourceBypass,
		}
	}

	if l.mode == BackendShared {
		decision, err := l.checkShared(ctx, policy, identifier)
		if err == nil {
			decision.Identifier = identifier
			decision.Category = policy.Category
			return decision
		}

		l.logger.Warn("rate limiter: shared backend unavailable, falling back to local counting",
			logging.Field{Key: "category", Value: string(policy.Category)},
			logging.Err(err),
		)
		l.reporter.Report("rate_limit", map[string]interface{}{
			"action":     "backend_unavailable",
			"category":   string(policy.Category),
			"identifier": AnonymizeIdentifier(identifier),
		}, telemetry.SeverityWarning)
	}

	decision, err := l.checkLocal(policy, identifier)
	if err == nil {
		decision.Identifier = identifier
		decision.Category = policy.Category
		return decision
	}

	// Both paths failed. A rate limiter must never be a single point of
	// total outage, so admit the request and be loud about it.
	l.lastFailOpen.Store(l.now().UnixNano())
	l.logger.Error("rate limiter: evaluation failed on every backend, failing open", err,
		logging.Field{Key: "category", Value: string(policy.Category)},
	)
	l.reporter.Report("rate_limit", map[string]interface{}{
		"action":     "fail_open",
		"category":   string(policy.Category),
		"identifier": AnonymizeIdentifier(identifier),
	}, telemetry.SeverityCritical)

	return Decision{
		Allowed:    true,
		Remaining:  policy.Limit,
		Limit:      policy.Limit,
		ResetAt:    l.now().Add(policy.Window),
		Identifier: identifier,
		Category:   policy.Category,
		Source:     SourceFailOpen,
	}
}

// Reset clears any accumulated window for (identifier, category) in
// whichever backends may hold one. A shared-backend delete failure is
// logged but never fails the caller: a successful sign-in must not be
// blocked by limiter bookkeeping.
func (l *Limiter) Reset(ctx context.Context, identifier string, category Category) {
	policy := l.Policy(category)

	if l.mode == BackendShared && l.shared != nil {
		ctx, cancel := context.WithTimeout(ctx, l.sharedTimeout)
		defer cancel()
		if err := l.shared.Delete(ctx, counterKey(policy.Category, identifier)); err != nil {
			l.logger.Warn("rate limiter: failed to clear shared counter",
				logging.Field{Key: "category", Value: string(policy.Category)},
				logging.Err(err),
			)
		}
	}

	l.local.Remove(counterKey(policy.Category, identifier))
}

// Snapshot reports operational state for dashboards.
type Snapshot struct {
	Mode          string `json:"mode"`
	Health        Health `json:"health"`
	ActiveEntries int    `json:"activeConnections"`
	BlockedHits   int    `json:"blockedHits"`
	Enabled       bool   `json:"enabled"`
}

// Snapshot returns the limiter's current operational state: healthy when
// the authoritative backend is reachable, degraded when counting locally
// (by configuration or backend outage), failed when a fail-open occurred
// within the last minute.
func (l *Limiter) Snapshot() Snapshot {
	health := HealthHealthy
	switch {
	case l.now().UnixNano()-l.lastFailOpen.Load() < int64(failedStateWindow) && l.lastFailOpen.Load() != 0:
		health = HealthFailed
	case l.mode == BackendLocalOnly:
		health = HealthDegraded
	default:
		if err := l.shared.Health(); err != nil {
			health = HealthDegraded
		}
	}

	return Snapshot{
		Mode:          l.mode.String(),
		Health:        health,
		ActiveEntries: l.local.Len(),
		BlockedHits:   l.local.BlockedHits(),
		Enabled:       l.enabled,
	}
}

func (l *Limiter) checkShared(ctx context.Context, policy Policy, identifier string) (decision Decision, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("shared backend panic: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, l.sharedTimeout)
	defer cancel()

	sample, err := l.shared.IncrWindow(ctx, counterKey(policy.Category, identifier), policy.Window)
	if err != nil {
		return Decision{}, err
	}

	remaining := policy.Limit - sample.Count
	if remaining < 0 {
		remaining = 0
	}

	return Decision{
		Allowed:   sample.Count <= policy.Limit,
		Remaining: remaining,
		Limit:     policy.Limit,
		ResetAt:   sample.ResetAt,
		Source:    SourceShared,
	}, nil
}

func (l *Limiter) checkLocal(policy Policy, identifier string) (decision Decision, err error) {
	// The local store is pure in-memory logic; a panic here means a bug,
	// not a transient condition, but the caller still deserves a decision.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("local store panic: %v", r)
		}
	}()

	return l.local.CheckAndIncrement(counterKey(policy.Category, identifier), policy), nil
}

// notifyNearExhaustion emits the low-severity approaching-limit event. This
// is the only case where an allowed request also triggers telemetry.
func (l *Limiter) notifyNearExhaustion(d Decision) {
	l.reporter.Report("rate_limit", map[string]interface{}{
		"action":     "approaching_limit",
		"category":   string(d.Category),
		"identifier": AnonymizeIdentifier(d.Identifier),
		"remaining":  d.Remaining,
		"limit":      d.Limit,
	}, telemetry.SeverityInfo)
}

func counterKey(category Category, identifier string) string {
	return fmt.Sprintf("ratelimit:%s:%s", category, identifier)
}
