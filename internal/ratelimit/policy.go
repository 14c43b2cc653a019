package ratelimit

import (
	"strings"
	"time"
)

// Category selects which quota applies to a request
type Category string

const (
	CategoryAuthentication Category = "authentication"
	CategoryRegistration   Category = "registration"
	CategoryPasswordReset  Category = "password-reset"
	CategoryWrite          Category = "write"
	CategoryAPI            Category = "api"
	CategoryRead           Category = "read"
	CategorySensitive      Category = "sensitive"
	CategoryGlobal         Category = "global"
)

// Policy is an immutable quota: at most Limit requests per Window for one
// identifier, with a user-facing message for rejections. The policy set is
// fixed at startup; changing it requires redeploying configuration.
type Policy struct {
	Category Category      `json:"category"`
	Limit    int           `json:"limit"`
	Window   time.Duration `json:"window"`
	Message  string        `json:"message"`
}

// RejectionCode returns the stable machine-readable code for rejections
// under this policy, e.g. RATE_LIMIT_PASSWORD_RESET.
func (p Policy) RejectionCode() string {
	return "RATE_LIMIT_" + strings.ToUpper(strings.ReplaceAll(string(p.Category), "-", "_"))
}

// DefaultPolicies builds the static policy table. Authentication-adjacent
// categories are the strictest, read the most permissive, and global is a
// per-identifier backstop across all categories.
func DefaultPolicies() map[Category]Policy {
	return map[Category]Policy{
		CategoryAuthentication: newPolicy(CategoryAuthentication, 5, "15 m",
			"Too many sign-in attempts. Please try again later."),
		CategoryRegistration: newPolicy(CategoryRegistration, 3, "60 m",
			"Too many accounts created from this location. Please try again later."),
		CategoryPasswordReset: newPolicy(CategoryPasswordReset, 3, "60 m",
			"Too many password reset requests. Please try again later."),
		CategoryWrite: newPolicy(CategoryWrite, 50, "1 m",
			"You are saving changes too quickly. Please slow down."),
		CategoryAPI: newPolicy(CategoryAPI, 100, "1 m",
			"Too many requests. Please slow down."),
		CategoryRead: newPolicy(CategoryRead, 300, "1 m",
			"Too many requests. Please slow down."),
		CategorySensitive: newPolicy(CategorySensitive, 10, "60 m",
			"Too many attempts to change security settings. Please try again later."),
		CategoryGlobal: newPolicy(CategoryGlobal, 1000, "1 m",
			"Too many requests. Please slow down."),
	}
}

func newPolicy(category Category, limit int, window, message string) Policy {
	w, _ := ParseWindow(window)
	return Policy{
		Category: category,
		Limit:    limit,
		Window:   w,
		Message:  message,
	}
}
