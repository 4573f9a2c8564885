package server

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// maxTrackedAddresses bounds the limiter map before idle entries are pruned
const maxTrackedAddresses = 4096

// loginThrottle limits failed logins per remote address. Only failures
// spend tokens, so a user who gets the password right is never slowed down.
type loginThrottle struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

func newLoginThrottle(perSecond float64, burst int) *loginThrottle {
	return &loginThrottle{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Blocked reports whether addr has no failed attempts left
func (t *loginThrottle) Blocked(addr string) bool {
	if t.burst <= 0 {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.limiters[addr]
	return ok && l.Tokens() < 1
}

// Fail spends one attempt for addr
func (t *loginThrottle) Fail(addr string) {
	if t.burst <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	l, ok := t.limiters[addr]
	if !ok {
		if len(t.limiters) >= maxTrackedAddresses {
			t.prune()
		}
		l = rate.NewLimiter(t.limit, t.burst)
		t.limiters[addr] = l
	}
	l.Allow()
}

// RetryAfter is how long addr waits for its next attempt
func (t *loginThrottle) RetryAfter(addr string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.limiters[addr]
	if !ok || t.limit <= 0 {
		return 0
	}
	missing := 1 - l.Tokens()
	if missing <= 0 {
		return 0
	}
	return time.Duration(missing / float64(t.limit) * float64(time.Second))
}

// prune drops limiters that have refilled completely. Caller holds mu.
func (t *loginThrottle) prune() {
	for addr, l := range t.limiters {
		if l.Tokens() >= float64(t.burst) {
			delete(t.limiters, addr)
		}
	}
}
