package auth

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LoginThrottle limits login attempts per client IP with a token bucket
type LoginThrottle struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	idle     time.Duration
	now      func() time.Time
}

// NewLoginThrottle allows burst attempts at once and then one attempt per
// interval for each IP.
func NewLoginThrottle(interval time.Duration, burst int) *LoginThrottle {
	return &LoginThrottle{
		visitors: make(map[string]*visitor),
		limit:    rate.Every(interval),
		burst:    burst,
		idle:     interval * time.Duration(burst) * 2,
		now:      time.Now,
	}
}

// Allow consumes one attempt for ip
func (t *LoginThrottle) Allow(ip string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	v, ok := t.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.visitors[ip] = v
	}
	v.lastSeen = now

	// drop idle visitors
	for key, other := range t.visitors {
		if now.Sub(other.lastSeen) > t.idle {
			delete(t.visitors, key)
		}
	}

	return v.limiter.AllowN(now, 1)
}

// ClientIP returns the address of the connection peer. With trustProxy set
// the first X-Forwarded-For hop, then X-Real-IP, take precedence; clients can
// forge both headers, so only trust them behind a proxy that rewrites them.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
