package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// idleTTL is how long an IP may stay silent before its limiter is dropped.
const idleTTL = 5 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipRateLimiter keeps one token bucket per client IP.
type ipRateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	rps       rate.Limit
	burst     int
	lastSweep time.Time
}

func newIPRateLimiter(rps int) *ipRateLimiter {
	return &ipRateLimiter{
		visitors:  make(map[string]*visitor),
		rps:       rate.Limit(rps),
		burst:     rps,
		lastSweep: time.Now(),
	}
}

// allow reports whether ip may proceed.  Idle visitors are evicted at most
// once per idleTTL, on the request path.
func (l *ipRateLimiter) allow(ip string) bool {
	l.mu.Lock()
	now := time.Now()
	if now.Sub(l.lastSweep) > idleTTL {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > idleTTL {
				delete(l.visitors, k)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	l.mu.Unlock()

	return v.limiter.Allow()
}

// RateLimitMiddleware returns a per-IP limiter allowing rps requests per
// second with a burst of the same size.
func RateLimitMiddleware(rps int) gin.HandlerFunc {
	rl := newIPRateLimiter(rps)
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			abort(c, http.StatusTooManyRequests, "ERR_RATE_LIMITED", "too many requests, please slow down")
			return
		}
		c.Next()
	}
}
