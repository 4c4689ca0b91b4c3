// Package ratelimit throttles clients by key, normally the remote IP address.
package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/siahsang/conduit/internal/utils/collectionutils"
	"golang.org/x/time/rate"
)

type client struct {
	limiter *rate.Limiter

	mu       sync.Mutex
	lastSeen time.Time
}

func (c *client) touch(now time.Time) {
	c.mu.Lock()
	c.lastSeen = now
	c.mu.Unlock()
}

func (c *client) idleSince(cutoff time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeen.Before(cutoff)
}

// Limiter keeps one token bucket per client key.
type Limiter struct {
	rps     rate.Limit
	burst   int
	clients *collectionutils.SafeMap[string, *client]
	now     func() time.Time
}

func New(rps float64, burst int) *Limiter {
	return &Limiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		clients: collectionutils.New[string, *client](),
		now:     time.Now,
	}
}

// Allow reports whether key may make a request now and consumes a token if so.
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	c := l.clients.GetOrStore(key, func() *client {
		return &client{limiter: rate.NewLimiter(l.rps, l.burst)}
	})
	c.touch(now)
	return c.limiter.AllowN(now, 1)
}

// Evict forgets clients that have not been seen for idle and returns how many were removed.
func (l *Limiter) Evict(idle time.Duration) int {
	cutoff := l.now().Add(-idle)
	return l.clients.DeleteFunc(func(_ string, c *client) bool {
		return c.idleSince(cutoff)
	})
}

func (l *Limiter) Len() int {
	return l.clients.Len()
}

// Run evicts idle clients every interval until ctx is done.
func (l *Limiter) Run(ctx context.Context, interval, idle time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := l.Evict(idle); removed > 0 {
				log.Debug("Evicted idle rate limiter clients", "removed", removed, "remaining", l.Len())
			}
		}
	}
}
