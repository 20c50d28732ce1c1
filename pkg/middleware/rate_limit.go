package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	apperrors "jdpanel/pkg/errors"
	"jdpanel/pkg/logger"
)

type KeyExtractor func(r *http.Request) string

type tenantLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// TenantRateLimiter keeps one token bucket per tenant.
// limit requests are allowed per window, refilled evenly.
type TenantRateLimiter struct {
	mu           sync.Mutex
	limiters     map[string]*tenantLimiter
	limit        int
	window       time.Duration
	keyExtractor KeyExtractor
	log          *logger.Logger
	stopCh       chan struct{}
	once         sync.Once
}

func NewTenantRateLimiter(limit int, window time.Duration, extractor KeyExtractor, log *logger.Logger) *TenantRateLimiter {
	limiter := &TenantRateLimiter{
		limiters:     make(map[string]*tenantLimiter),
		limit:        limit,
		window:       window,
		keyExtractor: extractor,
		log:          log,
		stopCh:       make(chan struct{}),
	}

	go limiter.cleanup()

	return limiter
}

func (rl *TenantRateLimiter) cleanup() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			for key, l := range rl.limiters {
				if time.Since(l.lastSeen) > rl.window {
					delete(rl.limiters, key)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *TenantRateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stopCh) })
}

func (rl *TenantRateLimiter) Allow(key string) bool {
	if key == "" {
		return true
	}

	rl.mu.Lock()
	l, exists := rl.limiters[key]
	if !exists {
		l = &tenantLimiter{
			limiter: rate.NewLimiter(rate.Every(rl.window/time.Duration(rl.limit)), rl.limit),
		}
		rl.limiters[key] = l
	}
	l.lastSeen = time.Now()
	rl.mu.Unlock()

	return l.limiter.Allow()
}

func TenantRateLimit(limiter *TenantRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := extractKey(r, limiter.keyExtractor)

			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !limiter.Allow(key) {
				reject(w, r, limiter.log, apperrors.RateLimited(), "tenant_id", key)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func extractKey(r *http.Request, extractor KeyExtractor) string {
	if extractor == nil {
		return DefaultTenantExtractor(r)
	}
	return extractor(r)
}

func DefaultTenantExtractor(r *http.Request) string {
	return r.Header.Get(ScopeHeader)
}
