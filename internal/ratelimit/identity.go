package ratelimit

import (
	"fmt"
	"hash/fnv"
	"net"
	"net/http"
	"strings"
)

// SessionCookieName is the cookie consulted for the session identifier
// fragment. It matches the cookie the auth layer issues.
const SessionCookieName = "session"

// uaPrefixLen bounds how much of the user-agent string feeds the fingerprint
// digest. User agents are attacker-controlled; hashing a fixed prefix keeps
// the digest deterministic and cheap.
const uaPrefixLen = 64

// Ordered network-address candidates. The first non-empty, non-"unknown"
// value wins. Proxy-injected headers come before the raw peer address since
// this service runs behind a reverse proxy in every deployment.
var addressHeaders = []string{
	"X-Forwarded-For",
	"CF-Connecting-IP",
	"True-Client-IP",
	"X-Real-IP",
}

// ResolveIdentifier derives the counting identifier for a request. An
// authenticated user id always wins the primary segment: distinct users
// behind one NAT or proxy address must not share a quota. Anonymous requests
// key on the best network-address signal available, refined with the session
// cookie and a short user-agent digest to separate same-address clients.
//
// The result is deterministic for identical input and resolution never
// fails; with no usable signal at all the primary segment is "anonymous".
// The full identifier may contain raw addresses and must be anonymized with
// AnonymizeIdentifier before leaving the process.
func ResolveIdentifier(r *http.Request, userID string) string {
	var sb strings.Builder

	if userID != "" {
		sb.WriteString("user:")
		sb.WriteString(userID)
	} else if addr := clientAddress(r); addr != "" {
		sb.WriteString("ip:")
		sb.WriteString(addr)
	} else {
		sb.WriteString("anonymous")
	}

	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		sb.WriteString(":session:")
		sb.WriteString(cookie.Value)
	}

	if ua := r.Header.Get("User-Agent"); ua != "" {
		sb.WriteString(":ua:")
		sb.WriteString(fingerprintUA(ua))
	}

	return sb.String()
}

// AnonymizeIdentifier strips everything but the primary segment's type tag
// so an identifier can cross the telemetry boundary without carrying raw
// addresses, session ids or user ids.
func AnonymizeIdentifier(identifier string) string {
	primary, _, _ := strings.Cut(identifier, ":")
	switch primary {
	case "user", "ip":
		return primary + ":***"
	default:
		return "anonymous"
	}
}

func clientAddress(r *http.Request) string {
	for _, header := range addressHeaders {
		value := r.Header.Get(header)
		if header == "X-Forwarded-For" {
			// Only the first hop is the client; the rest are proxies
			value, _, _ = strings.Cut(value, ",")
		}
		value = strings.TrimSpace(value)
		if value != "" && !strings.EqualFold(value, "unknown") {
			return value
		}
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}

func fingerprintUA(ua string) string {
	if len(ua) > uaPrefixLen {
		ua = ua[:uaPrefixLen]
	}
	h := fnv.New32a()
	h.Write([]byte(ua))
	return fmt.Sprintf("%08x", h.Sum32())
}
