package ratelimit

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultWindow is used when a policy window string cannot be parsed. The
// limiter must never be disabled by a malformed policy string, so parsing
// fails open to a one-minute window instead of returning an error.
const DefaultWindow = time.Minute

var windowPattern = regexp.MustCompile(`^\s*(\d+)\s*([smh])\s*$`)

// ParseWindow parses a human-readable window such as "15 m", "30s" or "1 H"
// into a duration. The unit is one of s, m, h (case-insensitive, optional
// whitespace). On no match it returns DefaultWindow and false so callers can
// observe that the default was substituted.
func ParseWindow(s string) (time.Duration, bool) {
	m := windowPattern.FindStringSubmatch(strings.ToLower(s))
	if m == nil {
		return DefaultWindow, false
	}

	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return DefaultWindow, false
	}

	switch m[2] {
	case "s":
		return time.Duration(n) * time.Second, true
	case "m":
		return time.Duration(n) * time.Minute, true
	case "h":
		return time.Duration(n) * time.Hour, true
	}
	return DefaultWindow, false
}
