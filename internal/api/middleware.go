package api

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/librisapp/libris-server/internal/domain"
	"github.com/librisapp/libris-server/internal/http/response"
	"github.com/librisapp/libris-server/internal/ratelimit"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const contextKeyUser contextKey = "user"

// resolveIdentity attaches the authenticated user to the request context
// when a valid bearer token is presented. A missing, malformed, or invalid
// token never rejects the request; it simply leaves the request anonymous,
// and operations that need an identity fail downstream.
func (s *Server) resolveIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			next.ServeHTTP(w, r)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			next.ServeHTTP(w, r)
			return
		}

		user, _, err := s.authService.VerifyAccessToken(r.Context(), parts[1])
		if err != nil {
			s.logger.Debug("token rejected, continuing anonymously", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), contextKeyUser, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// currentUser extracts the authenticated user from request context.
// Returns nil for anonymous requests.
func currentUser(ctx context.Context) *domain.User {
	if user, ok := ctx.Value(contextKeyUser).(*domain.User); ok {
		return user
	}
	return nil
}

// rateLimitByIP limits requests per client IP.
// Returns 429 Too Many Requests when the limit is exceeded.
func rateLimitByIP(limiter *ratelimit.KeyedRateLimiter, logger interface{ Warn(msg string, args ...any) }) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// RealIP middleware has already normalized RemoteAddr. A bare
			// address without a port, as RealIP produces from X-Forwarded-For,
			// is used as the key unchanged.
			key := r.RemoteAddr
			if host, _, err := net.SplitHostPort(key); err == nil {
				key = host
			}

			if !limiter.Allow(key) {
				logger.Warn("Rate limit exceeded",
					"ip", key,
					"path", r.URL.Path,
				)
				response.TooManyRequests(w, "Too many requests. Please try again later.", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
