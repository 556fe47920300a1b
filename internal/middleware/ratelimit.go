package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/artemis-chat-go/internal/config"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const defaultIdleTTL = 10 * time.Minute

// RateLimiter interface for rate limiting
type RateLimiter interface {
	Allow(key string) bool
	Middleware(next http.Handler) http.Handler
}

// ClientRateLimiter keeps one token bucket per client address. Buckets that
// stay idle for the configured TTL are evicted.
type ClientRateLimiter struct {
	enabled  bool
	limiters *cache.Cache
	limit    rate.Limit
	burst    int
	metrics  *Metrics
	logger   *logrus.Logger
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(cfg *config.RateLimitConfig, metrics *Metrics, logger *logrus.Logger) RateLimiter {
	if !cfg.Enabled {
		return &ClientRateLimiter{enabled: false}
	}

	ttl := cfg.IdleTTL
	if ttl <= 0 {
		ttl = defaultIdleTTL
	}

	return &ClientRateLimiter{
		enabled:  true,
		limiters: cache.New(ttl, ttl*2),
		// Rate per second = RPM / 60
		limit:   rate.Limit(float64(cfg.RequestsPerMinute) / 60.0),
		burst:   cfg.Burst,
		metrics: metrics,
		logger:  logger,
	}
}

// Allow checks if a client is allowed to make a request
func (r *ClientRateLimiter) Allow(key string) bool {
	if !r.enabled {
		return true
	}

	allowed := r.getLimiter(key).Allow()
	if !allowed {
		r.logger.WithField("client", key).Warn("Rate limit exceeded")
		if r.metrics != nil {
			r.metrics.RecordRateLimitExceeded()
		}
	}
	return allowed
}

// getLimiter gets or creates the limiter for a client. Every hit refreshes
// the idle expiry.
func (r *ClientRateLimiter) getLimiter(key string) *rate.Limiter {
	if v, found := r.limiters.Get(key); found {
		limiter := v.(*rate.Limiter)
		r.limiters.SetDefault(key, limiter)
		return limiter
	}

	limiter := rate.NewLimiter(r.limit, r.burst)
	// Add fails when a concurrent request created the limiter first.
	if err := r.limiters.Add(key, limiter, cache.DefaultExpiration); err != nil {
		if v, found := r.limiters.Get(key); found {
			return v.(*rate.Limiter)
		}
	}
	return limiter
}

// Middleware rejects requests over the limit with 429.
func (r *ClientRateLimiter) Middleware(next http.Handler) http.Handler {
	if !r.enabled {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if !r.Allow(ClientIP(req)) {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, req)
	})
}

// ClientIP returns the first X-Forwarded-For hop, or the peer address.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if ip := strings.TrimSpace(strings.Split(fwd, ",")[0]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
