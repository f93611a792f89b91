package httpx

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const tooManyRequests = "Too many requests, please try again later"

// maxTrackedClients bounds the in-memory limiter; the least recently seen
// clients are forgotten first.
const maxTrackedClients = 10000

// RateLimiter is a per-client fixed-window limiter kept in process memory.
// It is used when no Redis address is configured.
type RateLimiter struct {
	limit  int
	window time.Duration

	mu      sync.Mutex
	clients *expirable.LRU[string, *fixedWindow]
	now     func() time.Time
}

type fixedWindow struct {
	count   int64
	resetAt time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		limit:   limit,
		window:  window,
		clients: expirable.NewLRU[string, *fixedWindow](maxTrackedClients, nil, window),
		now:     time.Now,
	}
}

func (rl *RateLimiter) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			count, resetIn := rl.hit(clientKey(r))
			if admit(w, rl.limit, count, resetIn) {
				next.ServeHTTP(w, r)
			}
		})
	}
}

// hit counts one request for key and reports the window's count so far and
// the time left in the window.
func (rl *RateLimiter) hit(key string) (int64, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	win, ok := rl.clients.Get(key)
	if !ok || !now.Before(win.resetAt) {
		win = &fixedWindow{resetAt: now.Add(rl.window)}
		rl.clients.Add(key, win)
	}
	win.count++
	return win.count, win.resetAt.Sub(now)
}

// admit sets the quota headers and writes a 429 once count exceeds limit.
func admit(w http.ResponseWriter, limit int, count int64, resetIn time.Duration) bool {
	remaining := int64(limit) - count
	if remaining < 0 {
		remaining = 0
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
	if count <= int64(limit) {
		return true
	}

	retry := int(math.Ceil(resetIn.Seconds()))
	if retry < 1 {
		retry = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retry))
	WriteError(w, http.StatusTooManyRequests, tooManyRequests)
	return false
}

// clientKey prefers the first X-Forwarded-For hop, then the remote host.
func clientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
