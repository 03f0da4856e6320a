package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig configures the sliding window rate limiter.
type RateLimitConfig struct {
	// Max is the number of requests allowed per Window.
	Max    int
	Window time.Duration
	// KeyFunc identifies the client. ClientIP when nil.
	KeyFunc func(*http.Request) string
}

// counter holds request counts of the current and the previous fixed window.
// The effective count weights the previous window by its overlap with the
// sliding window ending now.
type counter struct {
	start time.Time
	curr  float64
	prev  float64
}

func (c *counter) roll(now time.Time, window time.Duration) {
	elapsed := now.Sub(c.start)
	if elapsed < window {
		return
	}
	if elapsed < 2*window {
		c.prev = c.curr
	} else {
		c.prev = 0
	}
	c.curr = 0
	c.start = now.Truncate(window)
}

func (c *counter) effective(now time.Time, window time.Duration) float64 {
	overlap := 1 - now.Sub(c.start).Seconds()/window.Seconds()
	return c.prev*max(overlap, 0) + c.curr
}

type limiter struct {
	max    int
	window time.Duration
	key    func(*http.Request) string

	mu       sync.Mutex
	counters map[string]*counter
}

func newLimiter(cfg RateLimitConfig) *limiter {
	l := &limiter{
		max:      cfg.Max,
		window:   cfg.Window,
		key:      cfg.KeyFunc,
		counters: make(map[string]*counter),
	}
	if l.key == nil {
		l.key = ClientIP
	}
	return l
}

// take records a request for key if it fits in the limit.
func (l *limiter) take(key string, now time.Time) (remaining int, reset time.Time, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, found := l.counters[key]
	if !found {
		c = &counter{start: now.Truncate(l.window)}
		l.counters[key] = c
	}
	c.roll(now, l.window)

	reset = c.start.Add(l.window)
	n := c.effective(now, l.window)
	if n >= float64(l.max) {
		return 0, reset, false
	}
	c.curr++
	return max(int(float64(l.max)-n-1), 0), reset, true
}

func (l *limiter) evict(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, c := range l.counters {
		if now.Sub(c.start) >= 2*l.window {
			delete(l.counters, key)
		}
	}
}

func (l *limiter) evictLoop(ctx context.Context) {
	ticker := time.NewTicker(2 * l.window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.evict(now)
		}
	}
}

// RateLimit limits each client to cfg.Max requests per sliding cfg.Window and
// answers 429 beyond it. Responses carry X-RateLimit-* headers. Stale client
// entries are evicted until ctx is done.
func RateLimit(ctx context.Context, cfg RateLimitConfig) Middleware {
	l := newLimiter(cfg)
	go l.evictLoop(ctx)
	return l.middleware
}

func (l *limiter) middleware(next http.Handler) http.Handler {
	limit := strconv.Itoa(l.max)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		remaining, reset, ok := l.take(l.key(r), time.Now())

		h := w.Header()
		h.Set("X-RateLimit-Limit", limit)
		h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
		if !ok {
			wait := max(time.Until(reset), 0)
			h.Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIP returns the first X-Forwarded-For address, X-Real-IP, or the host
// of RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// BearerOrIP keys authenticated clients by hash(token) and anonymous ones by
// ClientIP, so that users behind one NAT do not share a budget.
func BearerOrIP(hash func(token string) string) func(*http.Request) string {
	return func(r *http.Request) string {
		if token, ok := BearerToken(r); ok {
			return "bearer:" + hash(token)
		}
		return "ip:" + ClientIP(r)
	}
}

// BearerToken extracts the token of an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
