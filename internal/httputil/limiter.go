package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/star/starephem/internal/metrics"
)

// defaultMaxTotal is the global cap on in-flight limited requests.
const defaultMaxTotal = 1000

// Limiter caps concurrent in-flight requests per client IP and globally.
type Limiter struct {
	mu       sync.Mutex
	inFlight map[string]int
	total    int
	maxPerIP int
	maxTotal int
}

// NewLimiter returns a limiter allowing maxPerIP concurrent requests per IP.
func NewLimiter(maxPerIP int) *Limiter {
	if maxPerIP < 1 {
		maxPerIP = 1
	}
	return &Limiter{
		inFlight: make(map[string]int),
		maxPerIP: maxPerIP,
		maxTotal: defaultMaxTotal,
	}
}

// Acquire attempts to register a request for the given IP.
// Returns false if the IP or global limit has been reached.
func (l *Limiter) Acquire(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.total >= l.maxTotal {
		return false
	}
	if l.inFlight[ip] >= l.maxPerIP {
		return false
	}

	l.inFlight[ip]++
	l.total++
	return true
}

// Release ends a request registered by Acquire.
func (l *Limiter) Release(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.inFlight[ip]--
	l.total--
	if l.inFlight[ip] <= 0 {
		delete(l.inFlight, ip)
	}
}

// Count returns the number of in-flight requests for the given IP.
func (l *Limiter) Count(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inFlight[ip]
}

// Limit wraps next so that requests beyond the limit get 429.
func (l *Limiter) Limit(next http.Handler, trustProxy bool, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r, trustProxy)
		if !l.Acquire(ip) {
			metrics.IncRequestsRejected("rate_limit")
			logger.Warn("concurrency limit exceeded",
				"remote_ip", ip,
				"path", r.URL.Path,
				"current_count", l.Count(ip),
			)
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "5")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{"error": "too many concurrent requests"})
			return
		}
		defer l.Release(ip)
		next.ServeHTTP(w, r)
	})
}
