package middleware

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/time/rate"
)

var ErrRateLimited = errors.New("too many requests, try again later")

const (
	visitorTTL    = 3 * time.Minute
	sweepInterval = time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles selected procedures per client address.
type RateLimiter struct {
	limit      rate.Limit
	burst      int
	procedures map[string]bool
	now        func() time.Time

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

// NewRateLimiter allows rps requests per second with the given burst for
// each client calling one of procedures. No procedures means every procedure.
func NewRateLimiter(rps float64, burst int, procedures ...string) *RateLimiter {
	rl := &RateLimiter{
		limit:      rate.Limit(rps),
		burst:      burst,
		procedures: make(map[string]bool, len(procedures)),
		now:        time.Now,
		visitors:   make(map[string]*visitor),
	}
	for _, p := range procedures {
		rl.procedures[p] = true
	}
	return rl
}

// Allow reports whether a request from key may proceed now.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) > sweepInterval {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) > visitorTTL {
				delete(rl.visitors, k)
			}
		}
		rl.lastSweep = now
	}

	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// Interceptor returns the connect interceptor enforcing the limit.
func (rl *RateLimiter) Interceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if len(rl.procedures) > 0 && !rl.procedures[req.Spec().Procedure] {
				return next(ctx, req)
			}
			if !rl.Allow(clientKey(req)) {
				return nil, connect.NewError(connect.CodeResourceExhausted, ErrRateLimited)
			}
			return next(ctx, req)
		}
	}
}

// clientKey identifies the caller: the first X-Forwarded-For hop, then
// X-Real-IP, then the peer address without its port.
func clientKey(req connect.AnyRequest) string {
	if xff := req.Header().Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := req.Header().Get("X-Real-IP"); xri != "" {
		return xri
	}
	addr := req.Peer().Addr
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
