// Package scraper fetches article pages and extracts their full plain text.
// Feeds usually carry only a teaser; scoring wants the whole body.
package scraper

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/buildpulse/buildpulse/internal/collect"
	"github.com/buildpulse/buildpulse/internal/logger"
)

// Extracted is the full content pulled from one page.
type Extracted struct {
	Title   string
	Content string
	URL     string
}

// Scraper fetches pages through a shared rate limiter so target sites see a
// steady, polite request rate regardless of worker count.
type Scraper struct {
	client  *http.Client
	limiter *rate.Limiter
	workers int
	minLen  int
}

type Option func(*Scraper)

// WithWorkers sets the concurrent fetch count.
func WithWorkers(n int) Option {
	return func(s *Scraper) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithRate sets the global requests-per-second cap.
func WithRate(rps float64) Option {
	return func(s *Scraper) {
		if rps > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

func New(opts ...Option) *Scraper {
	s := &Scraper{
		client:  &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(2), 1),
		workers: 4,
		minLen:  100,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Extract fetches one URL and pulls out its article text.
func (s *Scraper) Extract(ctx context.Context, url string) (*Extracted, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "buildpulse/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}

	content := cleanContent(extractContent(doc, url))
	if content == "" {
		return nil, fmt.Errorf("no article content found at %s", url)
	}

	return &Extracted{Title: extractTitle(doc), Content: content, URL: url}, nil
}

// Enrich replaces each article's body with the scraped full text where the
// page yields one; articles that already carry a substantial body are left
// alone. Failures keep the original article untouched.
func (s *Scraper) Enrich(ctx context.Context, articles []collect.Article) []collect.Article {
	type job struct{ idx int }

	jobs := make(chan job)
	var wg sync.WaitGroup

	out := make([]collect.Article, len(articles))
	copy(out, articles)

	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				a := out[j.idx]
				ex, err := s.Extract(ctx, a.URL)
				if err != nil {
					logger.Debug("scrape skipped", "url", a.URL, "error", err)
					continue
				}
				if len(ex.Content) < s.minLen {
					continue
				}
				out[j.idx].Body = ex.Content
				if out[j.idx].Title == "" {
					out[j.idx].Title = ex.Title
				}
			}
		}()
	}

	queued := 0
	for i, a := range articles {
		if a.URL == "" || len(strings.Fields(a.Body)) >= 150 {
			continue
		}
		select {
		case jobs <- job{idx: i}:
			queued++
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(jobs)
	wg.Wait()

	logger.Info("scrape pass complete", "candidates", queued, "total", len(articles))
	return out
}

// Per-site selector tables. Each list is tried in order until paragraphs
// turn up; the generic table is the fallback for unknown hosts.
var siteSelectors = map[string][]string{
	"constructiondive.com": {
		".article-body p",
		".medium-article-body p",
		"article p",
	},
	"bisnow.com": {
		".article-content p",
		".content-text p",
		"article p",
	},
	"commercialobserver.com": {
		".entry-content p",
		".article-content p",
		"article p",
	},
	"globest.com": {
		".article-body p",
		".content-well p",
		"article p",
	},
	"smartcitiesdive.com": {
		".article-body p",
		"article p",
	},
}

var genericSelectors = []string{
	"article p",
	".article p",
	".article-body p",
	".post-content p",
	".entry-content p",
	".content p",
	"main p",
	"#content p",
	"p",
}

func extractContent(doc *goquery.Document, url string) string {
	for host, selectors := range siteSelectors {
		if strings.Contains(url, host) {
			if text := collectParagraphs(doc, selectors, 1); text != "" {
				return text
			}
			break
		}
	}
	return collectParagraphs(doc, genericSelectors, 3)
}

// collectParagraphs tries each selector until at least minParas paragraphs
// are found.
func collectParagraphs(doc *goquery.Document, selectors []string, minParas int) string {
	for _, selector := range selectors {
		var paragraphs []string
		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			text := strings.TrimSpace(sel.Text())
			if len(text) > 20 {
				paragraphs = append(paragraphs, text)
			}
		})
		if len(paragraphs) >= minParas {
			return strings.Join(paragraphs, "\n\n")
		}
	}
	return ""
}

func extractTitle(doc *goquery.Document) string {
	for _, selector := range []string{"h1", ".article-title", ".headline", ".entry-title", "title"} {
		if title := strings.TrimSpace(doc.Find(selector).First().Text()); title != "" {
			return title
		}
	}
	return ""
}

// Boilerplate that leaks into paragraph text on the covered sites.
var junkIndicators = []string{
	"subscribe to", "sign up for", "newsletter", "cookie", "privacy policy",
	"all rights reserved", "read more:", "related:", "advertisement",
	"follow us", "share this article", "log in", "create an account",
}

func cleanContent(content string) string {
	if content == "" {
		return ""
	}

	var paragraphs []string
	for _, p := range strings.Split(content, "\n\n") {
		p = strings.Join(strings.Fields(p), " ")
		if len(p) < 30 {
			continue
		}
		lower := strings.ToLower(p)
		junk := false
		for _, indicator := range junkIndicators {
			if strings.Contains(lower, indicator) {
				junk = true
				break
			}
		}
		if !junk {
			paragraphs = append(paragraphs, p)
		}
	}

	text := strings.Join(paragraphs, "\n\n")

	// Keep bodies bounded; scoring normalizes by length anyway and storage
	// does not need novels. Cut on paragraph boundaries.
	const maxLen = 8000
	if len(text) > maxLen {
		var kept []string
		total := 0
		for _, p := range paragraphs {
			if total+len(p) > maxLen {
				break
			}
			kept = append(kept, p)
			total += len(p) + 2
		}
		text = strings.Join(kept, "\n\n")
	}

	return strings.TrimSpace(text)
}
