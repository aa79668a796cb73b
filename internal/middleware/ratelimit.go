package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// idleTTL is how long a client's bucket survives without requests.
const idleTTL = 10 * time.Minute

type client struct {
	limiter *rate.Limiter
	seen    time.Time
}

// RateLimiter keeps one token bucket per client IP. Buckets idle for
// idleTTL are swept at most once per idleTTL.
type RateLimiter struct {
	mu        sync.Mutex
	m         map[string]*client
	rps       rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = 5
	}
	return &RateLimiter{
		m:         make(map[string]*client),
		rps:       rate.Limit(rps),
		burst:     burst,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (p *RateLimiter) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if now.Sub(p.lastSweep) >= idleTTL {
		for k, c := range p.m {
			if now.Sub(c.seen) >= idleTTL {
				delete(p.m, k)
			}
		}
		p.lastSweep = now
	}

	c, ok := p.m[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(p.rps, p.burst)}
		p.m[key] = c
	}
	c.seen = now
	return c.limiter
}

// Allow reports whether key may make another request now.
func (p *RateLimiter) Allow(key string) bool {
	return p.get(key).Allow()
}

// Limit answers 429 once the caller's bucket is empty. The key is the
// host part of RemoteAddr, so chi's RealIP should run first.
func (p *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if !p.Allow(host) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
