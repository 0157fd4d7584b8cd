package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// windowEntry tracks requests per client IP inside a fixed window.
type windowEntry struct {
	count     int
	windowEnd time.Time
}

// WindowLimiter is a per-IP fixed-window request counter.
type WindowLimiter struct {
	limit   int
	window  time.Duration
	mu      sync.Mutex
	entries map[string]*windowEntry
	now     func() time.Time
}

func NewWindowLimiter(limit int, window time.Duration) *WindowLimiter {
	return &WindowLimiter{
		limit:   limit,
		window:  window,
		entries: make(map[string]*windowEntry),
		now:     time.Now,
	}
}

// Allow counts one request for key and reports whether it fits the window.
// The returned time is when the current window ends.
func (l *WindowLimiter) Allow(key string) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[key]
	if !ok || now.After(e.windowEnd) {
		e = &windowEntry{windowEnd: now.Add(l.window)}
		l.entries[key] = e
	}
	e.count++
	return e.count <= l.limit, e.windowEnd
}

// Purge drops expired windows and returns how many were removed.
func (l *WindowLimiter) Purge() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	purged := 0
	for key, e := range l.entries {
		if now.After(e.windowEnd) {
			delete(l.entries, key)
			purged++
		}
	}
	return purged
}

// Middleware rejects requests over the limit with 429 and a Retry-After header.
func (l *WindowLimiter) Middleware(msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, windowEnd := l.Allow(c.ClientIP())
		if !ok {
			c.Header("Retry-After", windowEnd.UTC().Format(http.TimeFormat))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(msg))
			return
		}
		c.Next()
	}
}

// LoginRateLimiter limits login attempts to 20 per minute per IP.
func LoginRateLimiter(l *WindowLimiter) gin.HandlerFunc {
	return l.Middleware("too many login attempts, try again in a minute")
}

// RateLimiter is the general API limiter.
func RateLimiter(l *WindowLimiter) gin.HandlerFunc {
	return l.Middleware("too many requests, slow down")
}

const purgeInterval = 5 * time.Minute

// PurgeLoop removes expired windows every purgeInterval until ctx is done.
func PurgeLoop(ctx context.Context, limiters ...*WindowLimiter) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purged := 0
			for _, l := range limiters {
				purged += l.Purge()
			}
			if purged > 0 {
				log.Debug().Int("entries_purged", purged).Msg("rate limiter windows purged")
			}
		}
	}
}
