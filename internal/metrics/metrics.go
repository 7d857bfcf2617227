// Package metrics keeps lightweight in-process counters for the crawl and
// scoring pipeline. They back the /api/v1/metrics and /api/v1/health
// endpoints.
package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	ArticlesCollected int64
	ArticlesScored    int64
	ArticlesExcluded  int64
	ArticlesStored    int64
	DuplicatesSkipped int64
	CollectorErrors   int64
	DigestsSent       int64

	// Per-collector results of the most recent run
	CollectorCounts map[string]int

	// Timings
	LastRunDuration    time.Duration
	TotalRunDuration   time.Duration
	AverageRunDuration time.Duration
	RunCount           int64

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = &Metrics{IsHealthy: true, CollectorCounts: map[string]int{}}

func (m *Metrics) AddCollected(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesCollected += int64(n)
}

func (m *Metrics) SetCollectorCount(name string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CollectorCounts[name] = n
}

func (m *Metrics) IncrementScored() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesScored++
}

func (m *Metrics) IncrementExcluded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesExcluded++
}

func (m *Metrics) IncrementStored() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesStored++
}

func (m *Metrics) IncrementDuplicates() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesSkipped++
}

func (m *Metrics) IncrementCollectorErrors() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CollectorErrors++
}

func (m *Metrics) IncrementDigestsSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DigestsSent++
}

func (m *Metrics) RecordRunDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastRunDuration = d
	m.TotalRunDuration += d
	m.RunCount++
	m.AverageRunDuration = m.TotalRunDuration / time.Duration(m.RunCount)
}

func (m *Metrics) SetLastRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	collectors := make(map[string]int, len(m.CollectorCounts))
	for k, v := range m.CollectorCounts {
		collectors[k] = v
	}

	return map[string]interface{}{
		"articles_collected":      m.ArticlesCollected,
		"articles_scored":         m.ArticlesScored,
		"articles_excluded":       m.ArticlesExcluded,
		"articles_stored":         m.ArticlesStored,
		"duplicates_skipped":      m.DuplicatesSkipped,
		"collector_errors":        m.CollectorErrors,
		"digests_sent":            m.DigestsSent,
		"collector_counts":        collectors,
		"last_run_duration_ms":    m.LastRunDuration.Milliseconds(),
		"average_run_duration_ms": m.AverageRunDuration.Milliseconds(),
		"last_run_time":           m.LastRunTime.Format(time.RFC3339),
		"last_error_time":         m.LastErrorTime.Format(time.RFC3339),
		"last_error":              m.LastError,
		"is_healthy":              m.IsHealthy,
	}
}
