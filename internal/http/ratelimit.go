package http

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	applog "closeout/internal/log"
)

// rateLimiter keeps one token bucket per client IP. Entries idle for longer
// than staleAfter are evicted by a background sweep.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	logger   *applog.Logger
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const staleAfter = 3 * time.Minute

func newRateLimiter(requestsPerMinute int, logger *applog.Logger) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:    requestsPerMinute,
		logger:   logger,
	}
	go rl.sweep()
	return rl
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	return v.limiter.Allow()
}

func (rl *rateLimiter) sweep() {
	for {
		time.Sleep(time.Minute)
		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastSeen) > staleAfter {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(r.RemoteAddr) {
			rl.logger.Warn("rate limit exceeded", "remote", r.RemoteAddr, "path", r.URL.Path)
			respondError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}
