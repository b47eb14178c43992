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
	// Max is the number of requests allowed per window.
	Max    int
	Window time.Duration
	// KeyFunc extracts the rate limit key. Defaults to ClientIP.
	KeyFunc func(*http.Request) string
}

// window counts requests in the current and previous fixed windows. The
// previous count is weighted by its overlap with the sliding window.
type window struct {
	prev      float64
	prevStart time.Time
	curr      float64
	currStart time.Time
}

func (w *window) rotate(now time.Time, size time.Duration) {
	if now.Sub(w.currStart) < size {
		return
	}
	w.prev, w.prevStart = w.curr, w.currStart
	w.curr, w.currStart = 0, now.Truncate(size)
	if now.Sub(w.prevStart) >= 2*size {
		w.prev = 0
	}
}

func (w *window) estimate(now time.Time, size time.Duration) float64 {
	overlap := 1 - now.Sub(w.currStart).Seconds()/size.Seconds()
	return w.prev*max(overlap, 0) + w.curr
}

type limiter struct {
	max  int
	size time.Duration
	key  func(*http.Request) string

	mu      sync.Mutex
	windows map[string]*window
}

func newLimiter(cfg RateLimitConfig) *limiter {
	key := cfg.KeyFunc
	if key == nil {
		key = ClientIP
	}
	return &limiter{
		max:     cfg.Max,
		size:    cfg.Window,
		key:     key,
		windows: make(map[string]*window),
	}
}

// take records a request for key if it fits in the limit.
func (l *limiter) take(key string, now time.Time) (remaining int, reset time.Time, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, found := l.windows[key]
	if !found {
		w = &window{currStart: now}
		l.windows[key] = w
	}
	w.rotate(now, l.size)

	used := w.estimate(now, l.size)
	reset = w.currStart.Add(l.size)
	if used >= float64(l.max) {
		return 0, reset, false
	}
	w.curr++
	return max(int(float64(l.max)-used-1), 0), reset, true
}

func (l *limiter) evict(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, w := range l.windows {
		if now.Sub(w.currStart) >= 2*l.size {
			delete(l.windows, key)
		}
	}
}

func (l *limiter) evictLoop(ctx context.Context) {
	ticker := time.NewTicker(2 * l.size)
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

// RateLimit enforces a per-key sliding window limit, answering 429 with a
// JSON error once it is exceeded. Stale keys are never evicted; use
// RateLimitWithCleanup in long-running servers.
func RateLimit(cfg RateLimitConfig) Middleware {
	return newLimiter(cfg).middleware
}

// RateLimitWithCleanup is RateLimit with a background goroutine evicting
// stale keys until ctx is done.
func RateLimitWithCleanup(ctx context.Context, cfg RateLimitConfig) Middleware {
	l := newLimiter(cfg)
	go l.evictLoop(ctx)
	return l.middleware
}

func (l *limiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		remaining, reset, ok := l.take(l.key(r), time.Now())

		h := w.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(l.max))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

		if !ok {
			retry := max(time.Until(reset), 0)
			h.Set("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
			WriteError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIP keys requests by the first X-Forwarded-For hop, then X-Real-IP,
// then the remote address.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// HeaderOrClientIP keys requests by the given header, falling back to
// ClientIP when it is absent. API clients then share one budget per key.
func HeaderOrClientIP(header string) func(*http.Request) string {
	return func(r *http.Request) string {
		if v := r.Header.Get(header); v != "" {
			return "h:" + v
		}
		return ClientIP(r)
	}
}
