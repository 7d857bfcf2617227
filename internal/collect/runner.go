package collect

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/buildpulse/buildpulse/internal/logger"
	"github.com/buildpulse/buildpulse/internal/metrics"
)

// ErrAllCollectorsFailed means no source produced anything this run.
var ErrAllCollectorsFailed = errors.New("collect: all collectors failed")

// Runner fans in all configured collectors. One slow or broken source must
// never sink a run, so collectors execute concurrently and their errors are
// recorded but not propagated; Run fails only when every collector fails.
type Runner struct {
	collectors []Collector
}

func NewRunner(collectors ...Collector) *Runner {
	return &Runner{collectors: collectors}
}

// Run executes all collectors, stamps and deduplicates their output.
// Articles come back sorted newest first with duplicates dropped in that
// order, so the freshest copy of a story survives.
func (r *Runner) Run(ctx context.Context) ([]Article, error) {
	start := time.Now()

	var (
		mu     sync.Mutex
		all    []Article
		failed int
		wg     sync.WaitGroup
	)

	for _, c := range r.collectors {
		wg.Add(1)
		go func(c Collector) {
			defer wg.Done()

			items, err := c.Collect(ctx)
			if err != nil {
				logger.Error("collector failed", "collector", c.Name(), "error", err)
				metrics.Global.IncrementCollectorErrors()
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}
			logger.Info("collector finished", "collector", c.Name(), "articles", len(items))
			metrics.Global.SetCollectorCount(c.Name(), len(items))

			mu.Lock()
			all = append(all, items...)
			mu.Unlock()
		}(c)
	}
	wg.Wait()

	if failed == len(r.collectors) && len(r.collectors) > 0 {
		return nil, ErrAllCollectorsFailed
	}

	now := time.Now()
	for i := range all {
		if all[i].CollectedAt.IsZero() {
			all[i].CollectedAt = now
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].PublishedAt.After(all[j].PublishedAt)
	})

	kept, dropped := Dedupe(all)
	for i := 0; i < dropped; i++ {
		metrics.Global.IncrementDuplicates()
	}
	metrics.Global.AddCollected(len(kept))

	logger.Info("collection run complete",
		"collectors", len(r.collectors),
		"failed", failed,
		"articles", len(kept),
		"duplicates", dropped,
		"took", time.Since(start).Round(time.Millisecond))

	return kept, nil
}
