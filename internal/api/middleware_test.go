package api

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/librisapp/libris-server/internal/ratelimit"
)

// rateLimitedHandler wraps a trivial handler in the per-IP limiter middleware.
func rateLimitedHandler(limiter *ratelimit.KeyedRateLimiter) http.Handler {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return rateLimitByIP(limiter, slog.New(slog.DiscardHandler))(ok)
}

func doRequest(t *testing.T, handler http.Handler, remoteAddr string) int {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimitByIP_KeysByHostNotPort(t *testing.T) {
	handler := rateLimitedHandler(ratelimit.New(0.001, 1))

	// Two connections from the same host share one bucket regardless of
	// their source ports.
	require.Equal(t, http.StatusOK, doRequest(t, handler, "192.0.2.1:1111"))
	assert.Equal(t, http.StatusTooManyRequests, doRequest(t, handler, "192.0.2.1:2222"))

	// A different host gets a fresh bucket.
	assert.Equal(t, http.StatusOK, doRequest(t, handler, "192.0.2.2:3333"))
}

func TestRateLimitByIP_BareIPv6AddressesAreDistinct(t *testing.T) {
	handler := rateLimitedHandler(ratelimit.New(0.001, 1))

	// RealIP leaves a bare address in RemoteAddr when it trusts a proxy
	// header. Bare IPv6 addresses have colons but no port; they must key
	// whole, not truncated at the last colon.
	require.Equal(t, http.StatusOK, doRequest(t, handler, "2001:db8::1"))
	assert.Equal(t, http.StatusOK, doRequest(t, handler, "2001:db8::2"))
	assert.Equal(t, http.StatusTooManyRequests, doRequest(t, handler, "2001:db8::1"))
}

func TestRateLimitByIP_BracketedIPv6SharesBucketWithBareForm(t *testing.T) {
	handler := rateLimitedHandler(ratelimit.New(0.001, 1))

	// The bracketed host:port form strips to the same host key as the bare
	// address form.
	require.Equal(t, http.StatusOK, doRequest(t, handler, "[2001:db8::1]:1234"))
	assert.Equal(t, http.StatusTooManyRequests, doRequest(t, handler, "2001:db8::1"))
}
