package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildpulse/buildpulse/internal/collect"
	"github.com/buildpulse/buildpulse/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	m.Run()
}

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Example Construction Wire</title>
    <item>
      <title>Mass Timber Tower Tops Out</title>
      <link>https://example.com/mass-timber</link>
      <description><![CDATA[<p>A twelve-story &amp; counting project.</p>]]></description>
      <pubDate>Tue, 18 Aug 2026 09:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Old Story</title>
      <link>https://example.com/old</link>
      <description>stale</description>
      <pubDate>Mon, 01 Jan 2024 09:00:00 GMT</pubDate>
    </item>
  </channel>
</rss>`

func TestCollectParsesFeeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(sampleRSS))
	}))
	defer srv.Close()

	c := New([]Source{{Name: "Construction Dive", URL: srv.URL}}, 0)
	got, err := c.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	a := got[0]
	assert.Equal(t, "Mass Timber Tower Tops Out", a.Title)
	assert.Equal(t, "https://example.com/mass-timber", a.URL)
	assert.Equal(t, "Construction Dive", a.Source)
	assert.Equal(t, collect.KindRSS, a.Kind)
	assert.Equal(t, "A twelve-story & counting project.", a.Summary)
	assert.Equal(t, 2026, a.PublishedAt.Year())
}

func TestCollectDropsStaleItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleRSS))
	}))
	defer srv.Close()

	// Cutoff pinned between the two pubDates regardless of when the test runs.
	maxAge := time.Since(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	c := New([]Source{{URL: srv.URL}}, maxAge)
	got, err := c.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Mass Timber Tower Tops Out", got[0].Title)
	// Name falls back to the feed's own title.
	assert.Equal(t, "Example Construction Wire", got[0].Source)
}

func TestCollectToleratesBrokenFeed(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleRSS))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer bad.Close()

	c := New([]Source{{URL: bad.URL}, {URL: good.URL}}, 0)
	got, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestCollectFailsWhenAllFeedsFail(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer bad.Close()

	c := New([]Source{{URL: bad.URL}}, 0)
	_, err := c.Collect(context.Background())
	assert.Error(t, err)
}

func TestItemToArticlePrefersContent(t *testing.T) {
	item := &gofeed.Item{
		Title:       " Spaced Title ",
		Link:        " https://example.com/x ",
		Content:     "<article>Full body text here with several words to summarize.</article>",
		Description: "",
	}
	a := itemToArticle(item, "Bisnow")

	assert.Equal(t, "Spaced Title", a.Title)
	assert.Equal(t, "https://example.com/x", a.URL)
	assert.Equal(t, "Full body text here with several words to summarize.", a.Body)
	assert.NotEmpty(t, a.Summary)
}

func TestStripTags(t *testing.T) {
	assert.Equal(t, "a & b", stripTags("<p>a &amp;\n b</p>"))
	assert.Equal(t, "plain", stripTags("plain"))
	assert.Equal(t, "", stripTags("<br/>"))
}
