// Package search collects articles through the Google Custom Search API.
// Each configured query runs against the programmable search engine and the
// hits are folded into the normal article pipeline.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/buildpulse/buildpulse/internal/collect"
	"github.com/buildpulse/buildpulse/internal/logger"
	"github.com/buildpulse/buildpulse/internal/quota"
)

// QuotaAPI is the key under which the guard meters this collector.
const QuotaAPI = "customsearch"

const resultsPerQuery = 10

// Collector runs a fixed query list against one search engine (cx).
type Collector struct {
	svc     *customsearch.Service
	cx      string
	queries []string
	guard   *quota.Guard

	// dateRestrict narrows results to a recency window, e.g. "d7".
	dateRestrict string
}

func New(ctx context.Context, apiKey, cx string, queries []string, guard *quota.Guard) (*Collector, error) {
	if apiKey == "" || cx == "" {
		return nil, fmt.Errorf("search: api key and cx are required")
	}
	svc, err := customsearch.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("search: creating service: %w", err)
	}
	return &Collector{
		svc:          svc,
		cx:           cx,
		queries:      queries,
		guard:        guard,
		dateRestrict: "d7",
	}, nil
}

func (c *Collector) Name() string { return "search" }

// Collect runs each query once. Quota exhaustion stops the run quietly with
// whatever was gathered; individual query failures are logged and skipped.
func (c *Collector) Collect(ctx context.Context) ([]collect.Article, error) {
	var articles []collect.Article

	for _, q := range c.queries {
		if ctx.Err() != nil {
			return articles, ctx.Err()
		}
		if err := c.guard.Use(QuotaAPI); err != nil {
			logger.Warn("search quota exhausted, stopping early",
				"queries_done", len(articles), "error", err)
			break
		}

		resp, err := c.svc.Cse.List().
			Cx(c.cx).
			Q(q).
			Num(resultsPerQuery).
			DateRestrict(c.dateRestrict).
			Context(ctx).
			Do()
		if err != nil {
			logger.Warn("search query failed", "query", q, "error", err)
			continue
		}

		for _, item := range resp.Items {
			articles = append(articles, collect.Article{
				Title:       item.Title,
				Summary:     item.Snippet,
				URL:         item.Link,
				Source:      item.DisplayLink,
				Kind:        collect.KindSearch,
				PublishedAt: pagemapDate(item),
			})
		}
		logger.Debug("search query done", "query", q, "hits", len(resp.Items))
	}

	return articles, nil
}

// pagemapDate digs a publication date out of the result's pagemap metatags.
// Search results carry no first-class date, so a zero time is common.
func pagemapDate(item *customsearch.Result) time.Time {
	if len(item.Pagemap) == 0 {
		return time.Time{}
	}
	var pm struct {
		Metatags []map[string]string `json:"metatags"`
	}
	if err := json.Unmarshal(item.Pagemap, &pm); err != nil {
		return time.Time{}
	}
	for _, tags := range pm.Metatags {
		for _, key := range []string{"article:published_time", "og:published_time", "date"} {
			if raw, ok := tags[key]; ok {
				for _, layout := range []string{time.RFC3339, "2006-01-02"} {
					if t, err := time.Parse(layout, raw); err == nil {
						return t
					}
				}
			}
		}
	}
	return time.Time{}
}
