// Package collect defines the article model shared by every content source
// and the runner that fans collectors in, deduplicates their output and hands
// the survivors to scoring and storage.
package collect

import (
	"context"
	"strings"
	"time"
)

// Article kinds, recorded so the read path can filter by origin.
const (
	KindRSS    = "rss"
	KindScrape = "scrape"
	KindSearch = "search"
	KindVideo  = "video"
	KindPDF    = "pdf"
)

// Article is one piece of content in its decoded, plain-text form. Collectors
// fill what they can; Body may be a summary until the scraper enriches it.
type Article struct {
	Title       string
	Body        string
	Summary     string
	URL         string
	Source      string
	Kind        string
	PublishedAt time.Time
	CollectedAt time.Time
}

// Text returns the searchable text of the article, preferring the full body
// over the feed summary.
func (a Article) Text() string {
	if strings.TrimSpace(a.Body) != "" {
		return a.Body
	}
	return a.Summary
}

// Collector is one content source. Implementations must be safe to call
// repeatedly and should honor ctx cancellation mid-fetch.
type Collector interface {
	Name() string
	Collect(ctx context.Context) ([]Article, error)
}
