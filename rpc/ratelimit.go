package rpc

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimit bounds requests per client source.
type RateLimit struct {
	RequestsPerSecond float64
	Burst             int
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client. Idle buckets are dropped
// after idleTTL.
type RateLimiter struct {
	cfg      RateLimit
	mu       sync.Mutex
	visitors map[string]*visitor
	clockNow func() time.Time
	idleTTL  time.Duration
}

func NewRateLimiter(cfg RateLimit) *RateLimiter {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	return &RateLimiter{
		cfg:      cfg,
		visitors: make(map[string]*visitor),
		clockNow: time.Now,
		idleTTL:  5 * time.Minute,
	}
}

// Allow reports whether source may issue another request now.
func (r *RateLimiter) Allow(source string) bool {
	if source == "" {
		source = "unknown"
	}
	now := r.clockNow()
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, v := range r.visitors {
		if now.Sub(v.lastSeen) > r.idleTTL {
			delete(r.visitors, id)
		}
	}
	v, ok := r.visitors[source]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(r.cfg.RequestsPerSecond), r.cfg.Burst)}
		r.visitors[source] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}
