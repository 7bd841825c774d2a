package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// IPRateLimitMiddleware throttles unauthenticated endpoints (template
// download) per client IP, backed by the in-memory sliding window limiter.
type IPRateLimitMiddleware struct {
	limiter *RateLimiter
	limit   int
	prefix  string
}

func NewIPRateLimitMiddleware(limit int, prefix string) *IPRateLimitMiddleware {
	return &IPRateLimitMiddleware{
		limiter: NewRateLimiter(),
		limit:   limit,
		prefix:  prefix,
	}
}

func (m *IPRateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
			ip = realIP
		}

		key := fmt.Sprintf("ip:%s:%s", m.prefix, ip)
		allowed, _, resetAt := m.limiter.Check(key, m.limit)

		if !allowed {
			secondsLeft := resetAt - time.Now().Unix() + 1
			w.Header().Set("Retry-After", strconv.FormatInt(secondsLeft, 10))
			writeJSON(w, http.StatusTooManyRequests, map[string]string{
				"error": "Too many requests. Please try again later.",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
