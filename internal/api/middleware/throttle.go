package middleware

import (
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/darmiel/riegel/internal/api/presenter"
)

// Throttle bounds request rates before they reach the handlers: one
// shared limiter for the process plus one limiter per client address.
// It slows down credential-stuffing runs without touching the
// per-principal lockout bookkeeping inside the chain.
type Throttle struct {
	mu      sync.Mutex
	global  *rate.Limiter
	clients map[string]*rate.Limiter
	rps     rate.Limit
	burst   int
}

// NewThrottle builds a throttle allowing rps sustained requests per
// client with the given burst. Non-positive rps disables throttling.
func NewThrottle(rps float64, burst int) *Throttle {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = int(rps) + 1
	}
	return &Throttle{
		// The process-wide cap leaves headroom for a handful of clients.
		global:  rate.NewLimiter(rate.Limit(rps*10), burst*10),
		clients: make(map[string]*rate.Limiter),
		rps:     rate.Limit(rps),
		burst:   burst,
	}
}

func (t *Throttle) clientLimiter(remote string) *rate.Limiter {
	host, _, err := net.SplitHostPort(remote)
	if err != nil {
		host = remote
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	limiter, ok := t.clients[host]
	if !ok {
		limiter = rate.NewLimiter(t.rps, t.burst)
		t.clients[host] = limiter
	}
	return limiter
}

// Middleware rejects requests over the limit with 429. A nil throttle
// passes everything through.
func (t *Throttle) Middleware(next http.Handler) http.Handler {
	if t == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !t.global.Allow() || !t.clientLimiter(r.RemoteAddr).Allow() {
			presenter.Error(w, r, "too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
