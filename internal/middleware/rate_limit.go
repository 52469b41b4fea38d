package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"floorplan-server/internal/shared/config"
	"floorplan-server/internal/shared/errors"
	"floorplan-server/internal/shared/response"

	"golang.org/x/time/rate"
)

type RateLimiter struct {
	config  config.RateLimitConfig
	clients map[string]*rate.Limiter
	mu      sync.Mutex
}

// NewRateLimiter builds a per-client token bucket limiter. Idle clients are
// evicted every minute until ctx is done.
func NewRateLimiter(ctx context.Context, cfg config.RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		config:  cfg,
		clients: make(map[string]*rate.Limiter),
	}

	if cfg.Enabled {
		go rl.cleanupClients(ctx, time.Minute)
	}

	return rl
}

func (rl *RateLimiter) getLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.clients[ip]
	if !exists {
		limiter = rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.BurstSize)
		rl.clients[ip] = limiter
	}
	return limiter
}

func (rl *RateLimiter) cleanupClients(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.evictIdle(time.Now())
		}
	}
}

// evictIdle drops clients whose bucket has refilled completely
func (rl *RateLimiter) evictIdle(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, limiter := range rl.clients {
		if limiter.TokensAt(now) >= float64(rl.config.BurstSize) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.config.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		ip := getClientIP(r, rl.config.TrustProxy)
		limiter := rl.getLimiter(ip)

		if !limiter.Allow() {
			logger := slog.With(
				"middleware", "rate_limit",
				"client_ip", ip,
				"requests_per_second", rl.config.RequestsPerSecond,
				"burst_size", rl.config.BurstSize,
			)
			w.Header().Set("Retry-After", "1")
			response.Error(w, r, logger, errors.RateLimited("rate limit exceeded"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func getClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			// first entry is the client
			first, _, _ := strings.Cut(xff, ",")
			return strings.TrimSpace(first)
		}

		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return xri
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
