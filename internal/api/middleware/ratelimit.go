package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Faqih001/Threads-WebApp/internal/auth"
	"github.com/Faqih001/Threads-WebApp/internal/metrics"
	"github.com/Faqih001/Threads-WebApp/internal/store"
)

// RateLimit defines limits for an endpoint pattern.
type RateLimit struct {
	Requests int
	Window   time.Duration
}

// RateLimiter enforces fixed-window per-route limits backed by Redis.
// Authenticated requests are keyed by session, anonymous ones by client IP.
type RateLimiter struct {
	redis        *store.RedisStore
	logger       zerolog.Logger
	limits       map[string]RateLimit
	whitelist    []*net.IPNet
	whitelistIPs map[string]bool
}

// NewRateLimiter creates a new rate limiter. Whitelist entries may be
// single IPs or CIDRs.
func NewRateLimiter(redis *store.RedisStore, logger zerolog.Logger, whitelist []string) *RateLimiter {
	rl := &RateLimiter{
		redis:        redis,
		logger:       logger,
		whitelistIPs: make(map[string]bool),
		limits: map[string]RateLimit{
			"POST /api/users/signup": {10, time.Hour},
			"POST /api/users/login":  {20, 15 * time.Minute},
			"POST /api/messages":     {60, time.Minute},
			"POST /api/posts/create": {30, time.Minute},
			"GET /api/users/profile": {120, time.Minute},
		},
	}

	for _, entry := range whitelist {
		if strings.Contains(entry, "/") {
			_, ipNet, err := net.ParseCIDR(entry)
			if err != nil {
				logger.Warn().Str("entry", entry).Err(err).Msg("invalid CIDR in whitelist")
				continue
			}
			rl.whitelist = append(rl.whitelist, ipNet)
		} else {
			rl.whitelistIPs[entry] = true
		}
	}

	return rl
}

// Middleware returns the rate limiting middleware.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := RealIP(r)
		if rl.isWhitelisted(ip) {
			next.ServeHTTP(w, r)
			return
		}

		limit, endpoint := rl.findLimit(r)
		if limit == nil {
			next.ServeHTTP(w, r)
			return
		}

		count, err := rl.redis.IncrementWindow(r.Context(), limitKey(r, ip), limit.Window)
		if err != nil {
			// Redis trouble must not take the API down; let the request pass.
			rl.logger.Warn().Err(err).Msg("rate limiter unavailable")
			next.ServeHTTP(w, r)
			return
		}

		remaining := limit.Requests - int(count)
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit.Requests))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if count > int64(limit.Requests) {
			metrics.RateLimitHits.WithLabelValues(endpoint).Inc()
			rl.logger.Warn().
				Str("ip", ip).
				Str("endpoint", endpoint).
				Msg("rate limit exceeded")

			w.Header().Set("Retry-After", strconv.Itoa(int(limit.Window.Seconds())))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"rate limit exceeded"}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// findLimit finds the matching rate limit for a request.
func (rl *RateLimiter) findLimit(r *http.Request) (*RateLimit, string) {
	key := r.Method + " " + r.URL.Path
	for pattern, limit := range rl.limits {
		if strings.HasPrefix(key, pattern) {
			l := limit
			return &l, pattern
		}
	}
	return nil, ""
}

func (rl *RateLimiter) isWhitelisted(ipStr string) bool {
	if rl.whitelistIPs[ipStr] {
		return true
	}
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	for _, ipNet := range rl.whitelist {
		if ipNet.Contains(ip) {
			return true
		}
	}
	return false
}

// limitKey keys the counter by session cookie when present, IP otherwise,
// so users behind one NAT do not share a bucket once logged in.
func limitKey(r *http.Request, ip string) string {
	if cookie, err := r.Cookie(auth.CookieName); err == nil && cookie.Value != "" {
		return "session:" + cookie.Value
	}
	return "ip:" + ip
}

// RealIP extracts the real client IP from headers or connection.
func RealIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return strings.TrimSpace(strings.Split(ip, ",")[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
