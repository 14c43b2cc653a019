// Package ratelimit implements the adaptive rate-limiting layer that guards
// mutating and authentication-sensitive endpoints.
//
// Evaluation is a single pass per request: resolve a client identifier,
// select the policy for the request category, try the shared Redis-backed
// sliding-window counter, and on any backend failure fall back to an
// in-process fixed-window store. A request is counted in exactly one backend
// per evaluation; fallback substitutes for the shared counter, it never
// supplements it.
//
// The two backends intentionally use different window algorithms. The shared
// backend counts a trailing sliding window, which smooths bursts across
// window boundaries. The local fallback resets a fixed window, which can
// admit up to twice the limit across a boundary. The fallback is therefore
// slightly more permissive at window edges; that asymmetry is accepted
// because degraded mode trades strictness for availability, and its counts
// are per-instance anyway.
//
// When both backends fail to evaluate, the limiter fails open: the request
// proceeds unthrottled and a critical diagnostic is emitted. The limiter
// never surfaces its own failures to the end user.
package ratelimit
