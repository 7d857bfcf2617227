// Package quota tracks daily request budgets for metered upstream APIs
// (Google Custom Search, YouTube Data API). Counters reset at the next UTC
// midnight; a zero limit means unlimited.
package quota

import (
	"fmt"
	"sync"
	"time"

	"github.com/buildpulse/buildpulse/internal/logger"
)

type Guard struct {
	mu        sync.Mutex
	limits    map[string]int
	counts    map[string]int
	resetTime time.Time
}

func New(limits map[string]int) *Guard {
	g := &Guard{
		limits: make(map[string]int, len(limits)),
		counts: make(map[string]int, len(limits)),
	}
	for api, limit := range limits {
		g.limits[api] = limit
	}
	g.resetTime = nextMidnightUTC(time.Now())
	return g
}

// Allow reports whether another request to api fits in today's budget.
func (g *Guard) Allow(api string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.checkReset()

	limit := g.limits[api]
	if limit > 0 && g.counts[api] >= limit {
		logger.Warn("daily quota reached", "api", api, "used", g.counts[api], "limit", limit)
		return false
	}
	return true
}

// Use consumes one request from api's budget, failing when exhausted.
func (g *Guard) Use(api string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.checkReset()

	limit := g.limits[api]
	if limit > 0 && g.counts[api] >= limit {
		return fmt.Errorf("daily quota exceeded for %s (%d/%d)", api, g.counts[api], limit)
	}
	g.counts[api]++
	return nil
}

// Stats returns a snapshot of used/limit pairs per API.
func (g *Guard) Stats() map[string]map[string]int {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.checkReset()

	out := make(map[string]map[string]int, len(g.limits))
	for api, limit := range g.limits {
		out[api] = map[string]int{"used": g.counts[api], "limit": limit}
	}
	return out
}

func (g *Guard) checkReset() {
	now := time.Now()
	if now.After(g.resetTime) {
		logger.Info("resetting daily API quotas")
		g.counts = make(map[string]int, len(g.limits))
		g.resetTime = nextMidnightUTC(now)
	}
}

func nextMidnightUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
}
