// Package video collects recent uploads from a set of YouTube channels via
// the YouTube Data API. Titles and descriptions are the scorable text; no
// transcript fetching happens here.
package video

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/buildpulse/buildpulse/internal/collect"
	"github.com/buildpulse/buildpulse/internal/logger"
	"github.com/buildpulse/buildpulse/internal/quota"
)

// QuotaAPI is the key under which the guard meters this collector. Search
// calls are the expensive unit on this API.
const QuotaAPI = "youtube"

const maxResultsPerChannel = 10

// Channel is one subscribed YouTube channel.
type Channel struct {
	Name string
	ID   string
}

type Collector struct {
	svc      *youtube.Service
	channels []Channel
	guard    *quota.Guard
	maxAge   time.Duration
}

func New(ctx context.Context, apiKey string, channels []Channel, guard *quota.Guard, maxAge time.Duration) (*Collector, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("video: api key is required")
	}
	svc, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("video: creating service: %w", err)
	}
	return &Collector{svc: svc, channels: channels, guard: guard, maxAge: maxAge}, nil
}

func (c *Collector) Name() string { return "video" }

func (c *Collector) Collect(ctx context.Context) ([]collect.Article, error) {
	var articles []collect.Article

	publishedAfter := ""
	if c.maxAge > 0 {
		publishedAfter = time.Now().Add(-c.maxAge).UTC().Format(time.RFC3339)
	}

	for _, ch := range c.channels {
		if ctx.Err() != nil {
			return articles, ctx.Err()
		}
		if err := c.guard.Use(QuotaAPI); err != nil {
			logger.Warn("video quota exhausted, stopping early", "error", err)
			break
		}

		call := c.svc.Search.List([]string{"snippet"}).
			ChannelId(ch.ID).
			Type("video").
			Order("date").
			MaxResults(maxResultsPerChannel).
			Context(ctx)
		if publishedAfter != "" {
			call = call.PublishedAfter(publishedAfter)
		}

		resp, err := call.Do()
		if err != nil {
			logger.Warn("video channel fetch failed", "channel", ch.Name, "error", err)
			continue
		}

		for _, item := range resp.Items {
			if item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
				continue
			}
			published, _ := time.Parse(time.RFC3339, item.Snippet.PublishedAt)

			source := ch.Name
			if source == "" {
				source = item.Snippet.ChannelTitle
			}

			articles = append(articles, collect.Article{
				Title:       item.Snippet.Title,
				Summary:     item.Snippet.Description,
				Body:        item.Snippet.Description,
				URL:         "https://www.youtube.com/watch?v=" + item.Id.VideoId,
				Source:      source,
				Kind:        collect.KindVideo,
				PublishedAt: published,
			})
		}
		logger.Debug("video channel done", "channel", ch.Name, "videos", len(resp.Items))
	}

	return articles, nil
}
