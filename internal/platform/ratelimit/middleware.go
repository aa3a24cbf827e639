package ratelimit

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"domainagent/pkg/platform/httputil"
	"domainagent/pkg/platform/middleware/metadata"
)

// Limiter decides whether a keyed request may proceed.
type Limiter interface {
	Allow(key string) Result
}

// Middleware limits requests per client IP. A nil limiter disables it.
func Middleware(limiter Limiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := metadata.GetClientIP(r.Context())
			if ip == "" {
				ip = metadata.ClientIPFromRequest(r)
			}

			result := limiter.Allow(ip)
			addHeaders(w, result)
			if !result.Allowed {
				logger.WarnContext(r.Context(), "rate limit exceeded",
					"path", r.URL.Path,
					"retry_after", result.RetryAfter,
				)
				writeExceeded(w, result)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func addHeaders(w http.ResponseWriter, result Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeExceeded(w http.ResponseWriter, result Result) {
	seconds := int(math.Ceil(result.RetryAfter.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	httputil.WriteJSON(w, http.StatusTooManyRequests, map[string]any{
		"error":             "rate_limit_exceeded",
		"error_description": "Too many messages from this address. Please try again later.",
		"retry_after":       seconds,
	})
}
