// Package feed collects articles from RSS and Atom feeds.
package feed

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/buildpulse/buildpulse/internal/collect"
	"github.com/buildpulse/buildpulse/internal/logger"
)

// Source is one subscribed feed. Name overrides the feed's self-reported
// title for source-credibility lookup; leave it empty to trust the feed.
type Source struct {
	Name string
	URL  string
}

// Collector fetches and parses all subscribed feeds.
type Collector struct {
	sources []Source
	parser  *gofeed.Parser
	maxAge  time.Duration
}

// New builds a feed collector. Items older than maxAge are dropped at parse
// time; pass 0 to keep everything.
func New(sources []Source, maxAge time.Duration) *Collector {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: 30 * time.Second}
	parser.UserAgent = "buildpulse/1.0"

	return &Collector{sources: sources, parser: parser, maxAge: maxAge}
}

func (c *Collector) Name() string { return "feeds" }

// Collect fetches every feed, tolerating individual failures. It errors only
// when no feed could be fetched at all.
func (c *Collector) Collect(ctx context.Context) ([]collect.Article, error) {
	var (
		articles []collect.Article
		ok       int
	)

	cutoff := time.Time{}
	if c.maxAge > 0 {
		cutoff = time.Now().Add(-c.maxAge)
	}

	for _, src := range c.sources {
		if ctx.Err() != nil {
			return articles, ctx.Err()
		}

		parsed, err := c.parser.ParseURLWithContext(src.URL, ctx)
		if err != nil {
			logger.Warn("feed fetch failed", "url", src.URL, "error", err)
			continue
		}
		ok++

		sourceName := src.Name
		if sourceName == "" {
			sourceName = parsed.Title
		}

		for _, item := range parsed.Items {
			a := itemToArticle(item, sourceName)
			if !cutoff.IsZero() && !a.PublishedAt.IsZero() && a.PublishedAt.Before(cutoff) {
				continue
			}
			articles = append(articles, a)
		}
		logger.Debug("feed parsed", "source", sourceName, "items", len(parsed.Items))
	}

	if ok == 0 && len(c.sources) > 0 {
		return nil, fmt.Errorf("feed: all %d feeds failed", len(c.sources))
	}
	logger.Info("feeds fetched", "ok", ok, "total", len(c.sources), "articles", len(articles))
	return articles, nil
}

func itemToArticle(item *gofeed.Item, source string) collect.Article {
	published := time.Time{}
	if item.PublishedParsed != nil {
		published = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		published = *item.UpdatedParsed
	}

	// Some feeds ship the full article in content:encoded; most only carry
	// a teaser description.
	body := stripTags(item.Content)
	summary := stripTags(item.Description)
	if summary == "" {
		summary = firstWords(body, 60)
	}

	return collect.Article{
		Title:       strings.TrimSpace(item.Title),
		Body:        body,
		Summary:     summary,
		URL:         strings.TrimSpace(item.Link),
		Source:      source,
		Kind:        collect.KindRSS,
		PublishedAt: published,
	}
}

var tagRe = regexp.MustCompile(`<[^>]*>`)

func stripTags(s string) string {
	s = tagRe.ReplaceAllString(s, " ")
	s = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&#39;", "'", "&nbsp;", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

func firstWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ")
}
