package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveIdentifier(t *testing.T) {
	t.Run("user id wins over network signals", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/checkins", nil)
		req.Header.Set("X-Forwarded-For", "1.2.3.4")
		req.RemoteAddr = "10.0.0.1:12345"

		id := ResolveIdentifier(req, "u1")

		assert.True(t, strings.HasPrefix(id, "user:u1"))
		assert.NotContains(t, id, "ip:")
	})

	t.Run("forwarded-for first entry", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 198.51.100.1, 10.0.0.1")

		id := ResolveIdentifier(req, "")
		assert.True(t, strings.HasPrefix(id, "ip:203.0.113.7"))
	})

	t.Run("header priority order", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("CF-Connecting-IP", "203.0.113.8")
		req.Header.Set("X-Real-IP", "203.0.113.9")

		id := ResolveIdentifier(req, "")
		assert.True(t, strings.HasPrefix(id, "ip:203.0.113.8"))
	})

	t.Run("skips unknown placeholder values", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-Forwarded-For", "unknown")
		req.Header.Set("X-Real-IP", "203.0.113.9")

		id := ResolveIdentifier(req, "")
		assert.True(t, strings.HasPrefix(id, "ip:203.0.113.9"))
	})

	t.Run("falls back to remote address host", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = "192.0.2.5:54321"

		id := ResolveIdentifier(req, "")
		assert.True(t, strings.HasPrefix(id, "ip:192.0.2.5"))
	})

	t.Run("anonymous when no signal at all", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = ""

		id := ResolveIdentifier(req, "")
		assert.True(t, strings.HasPrefix(id, "anonymous"))
	})

	t.Run("session cookie and user-agent refine the key", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-Real-IP", "203.0.113.9")
		req.Header.Set("User-Agent", "Mozilla/5.0 (test)")
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "sess-abc"})

		id := ResolveIdentifier(req, "")

		assert.Contains(t, id, ":session:sess-abc")
		assert.Contains(t, id, ":ua:")
	})

	t.Run("deterministic for identical input", func(t *testing.T) {
		make := func() *http.Request {
			req := httptest.NewRequest("GET", "/", nil)
			req.Header.Set("X-Real-IP", "203.0.113.9")
			req.Header.Set("User-Agent", "same-agent")
			return req
		}
		assert.Equal(t, ResolveIdentifier(make(), ""), ResolveIdentifier(make(), ""))
	})

	t.Run("distinct user agents get distinct fingerprints", func(t *testing.T) {
		a := httptest.NewRequest("GET", "/", nil)
		a.Header.Set("X-Real-IP", "203.0.113.9")
		a.Header.Set("User-Agent", "agent-a")

		b := httptest.NewRequest("GET", "/", nil)
		b.Header.Set("X-Real-IP", "203.0.113.9")
		b.Header.Set("User-Agent", "agent-b")

		assert.NotEqual(t, ResolveIdentifier(a, ""), ResolveIdentifier(b, ""))
	})
}

func TestAnonymizeIdentifier(t *testing.T) {
	cases := map[string]string{
		"user:u1:session:abc:ua:11223344": "user:***",
		"ip:203.0.113.9:ua:aabbccdd":      "ip:***",
		"ip:203.0.113.9":                  "ip:***",
		"anonymous:ua:aabbccdd":           "anonymous",
		"anonymous":                       "anonymous",
		"":                               "anonymous",
	}

	for input, want := range cases {
		assert.Equal(t, want, AnonymizeIdentifier(input), "input %q", input)
	}
}
