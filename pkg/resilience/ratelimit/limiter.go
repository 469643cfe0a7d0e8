// Package ratelimit provides HTTP rate limiting middleware using ulule/limiter.
package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/your-org/integrations-service/internal/config"
	"github.com/your-org/integrations-service/pkg/logger"
)

// Limiter wraps the ulule/limiter with configuration.
type Limiter struct {
	cfg      config.RateLimitConfig
	instance *limiter.Limiter
	store    limiter.Store
}

// NewLimiter creates a new rate limiter from configuration.
func NewLimiter(cfg config.RateLimitConfig) (*Limiter, error) {
	l := &Limiter{cfg: cfg}

	var err error
	l.store, err = l.createStore()
	if err != nil {
		return nil, err
	}

	rate, err := limiter.NewRateFromFormatted(cfg.Rate)
	if err != nil {
		return nil, err
	}

	l.instance = limiter.New(l.store, rate)
	return l, nil
}

// createStore creates the appropriate store based on configuration.
func (l *Limiter) createStore() (limiter.Store, error) {
	switch l.cfg.Store {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     l.cfg.Redis.Address,
			Password: l.cfg.Redis.Password,
			DB:       l.cfg.Redis.DB,
		})

		if _, err := client.Ping(context.Background()).Result(); err != nil {
			return nil, err
		}

		return redisstore.NewStoreWithOptions(client, limiter.StoreOptions{
			Prefix: l.cfg.Redis.KeyPrefix,
		})

	default:
		return memory.NewStore(), nil
	}
}

// Middleware returns an HTTP middleware that applies rate limiting.
func (l *Limiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l.isExcluded(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			clientKey := l.getClientKey(r)

			limitContext, err := l.instance.Get(r.Context(), clientKey)
			if err != nil {
				logger.Error("rate limiter error", logger.Err(err))
				// On error, allow the request to proceed
				next.ServeHTTP(w, r)
				return
			}

			if l.cfg.Headers.Enabled {
				w.Header().Set(l.cfg.Headers.LimitHeader, strconv.FormatInt(limitContext.Limit, 10))
				w.Header().Set(l.cfg.Headers.RemainingHeader, strconv.FormatInt(limitContext.Remaining, 10))
				w.Header().Set(l.cfg.Headers.ResetHeader, strconv.FormatInt(limitContext.Reset, 10))
			}

			if limitContext.Reached {
				logger.Warn("rate limit exceeded",
					logger.String("client_key", clientKey),
					logger.String("path", r.URL.Path),
					logger.Int64("limit", limitContext.Limit),
				)
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getClientKey determines the client identifier for rate limiting.
func (l *Limiter) getClientKey(r *http.Request) string {
	if l.cfg.TrustForwardedFor {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			if idx := strings.Index(xff, ","); idx != -1 {
				return strings.TrimSpace(xff[:idx])
			}
			return strings.TrimSpace(xff)
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

// isExcluded checks if the path should be excluded from rate limiting.
func (l *Limiter) isExcluded(path string) bool {
	for _, excluded := range l.cfg.ExcludePaths {
		if strings.HasPrefix(path, excluded) {
			return true
		}
	}
	return false
}

// Peek checks the rate limit for a key without incrementing.
func (l *Limiter) Peek(ctx context.Context, key string) (limiter.Context, error) {
	return l.instance.Peek(ctx, key)
}
