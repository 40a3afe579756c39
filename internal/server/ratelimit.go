package server

import (
	"fmt"
	"sync"
	"time"
)

// RateLimiter counts requests per client in a sliding minute and a
// calendar day.
type RateLimiter struct {
	mu sync.Mutex

	perMinute int
	perDay    int
	now       func() time.Time

	clients map[string]*clientUsage
}

type clientUsage struct {
	minute   []time.Time // request times within the last minute
	today    int
	dayStart time.Time
}

// NewRateLimiter creates a limiter; a zero limit disables that window.
func NewRateLimiter(perMinute, perDay int) *RateLimiter {
	return &RateLimiter{
		perMinute: perMinute,
		perDay:    perDay,
		now:       time.Now,
		clients:   make(map[string]*clientUsage),
	}
}

// Allow records a request from client or returns a *RateLimitError.
func (rl *RateLimiter) Allow(client string) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	u, ok := rl.clients[client]
	if !ok {
		u = &clientUsage{dayStart: startOfDay(now)}
		rl.clients[client] = u
	}
	if day := startOfDay(now); !day.Equal(u.dayStart) {
		u.dayStart = day
		u.today = 0
	}
	cutoff := now.Add(-time.Minute)
	kept := u.minute[:0]
	for _, t := range u.minute {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	u.minute = kept

	if rl.perMinute > 0 && len(u.minute) >= rl.perMinute {
		return &RateLimitError{Window: "minute", Limit: rl.perMinute, RetryAfter: u.minute[0].Sub(cutoff)}
	}
	if rl.perDay > 0 && u.today >= rl.perDay {
		return &RateLimitError{Window: "day", Limit: rl.perDay, RetryAfter: u.dayStart.AddDate(0, 0, 1).Sub(now)}
	}

	u.minute = append(u.minute, now)
	u.today++
	return nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// RateLimitError reports which window rejected a request.
type RateLimitError struct {
	Window     string // "minute" or "day"
	Limit      int
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s (limit: %d, retry after: %v)", e.Window, e.Limit, e.RetryAfter.Round(time.Second))
}
