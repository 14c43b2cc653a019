package ratelimit

import "time"

// DecisionSource records which evaluation path produced a decision
type DecisionSource string

const (
	// SourceShared means the shared sliding-window counter was authoritative
	SourceShared DecisionSource = "shared"
	// SourceLocal means the in-process fallback store counted the request
	SourceLocal DecisionSource = "local"
	// SourceFailOpen means both backends failed and the request was admitted
	SourceFailOpen DecisionSource = "fail_open"
	// SourceBypass means limiting is disabled by configuration
	SourceBypass DecisionSource = "bypass"
)

// Decision is the ephemeral result of one rate-limit evaluation. It is
// produced fresh per request and never persisted. Identifier holds the full,
// non-anonymized identifier for internal use; anything emitted externally
// must go through AnonymizeIdentifier first.
type Decision struct {
	Allowed    bool           `json:"allowed"`
	Remaining  int            `json:"remaining"`
	Limit      int            `json:"limit"`
	ResetAt    time.Time      `json:"resetAt"`
	Identifier string         `json:"-"`
	Category   Category       `json:"category"`
	Source     DecisionSource `json:"source"`
}
