// Package app wires the collectors, scoring engine, storage, API server and
// digest delivery together and runs the periodic pipeline.
package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/buildpulse/buildpulse/internal/api"
	"github.com/buildpulse/buildpulse/internal/collect"
	"github.com/buildpulse/buildpulse/internal/config"
	"github.com/buildpulse/buildpulse/internal/feed"
	"github.com/buildpulse/buildpulse/internal/logger"
	"github.com/buildpulse/buildpulse/internal/metrics"
	"github.com/buildpulse/buildpulse/internal/notify"
	"github.com/buildpulse/buildpulse/internal/pdfext"
	"github.com/buildpulse/buildpulse/internal/quota"
	"github.com/buildpulse/buildpulse/internal/scoring"
	"github.com/buildpulse/buildpulse/internal/scraper"
	"github.com/buildpulse/buildpulse/internal/search"
	"github.com/buildpulse/buildpulse/internal/storage"
	"github.com/buildpulse/buildpulse/internal/synthesis"
	"github.com/buildpulse/buildpulse/internal/video"
)

// runTimeout bounds one full pipeline pass.
const runTimeout = 20 * time.Minute

type App struct {
	cfg    *config.Config
	store  *storage.Store
	engine *scoring.Engine
	runner *collect.Runner
	scrape *scraper.Scraper
	guard  *quota.Guard
	server *api.Server

	// Optional; nil when not configured.
	synth    *synthesis.Synthesizer
	notifier *notify.Notifier
	sent     *storage.SentCache

	baseCtx context.Context
	running atomic.Bool
}

// New wires every component from configuration. Collectors whose
// credentials are missing are skipped with a log line rather than failing
// startup.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	engine, err := buildEngine(cfg)
	if err != nil {
		return nil, err
	}

	store, err := storage.New(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	guard := quota.New(map[string]int{
		search.QuotaAPI: cfg.SearchDailyQuota,
		video.QuotaAPI:  cfg.YouTubeDailyQuota,
	})

	sources, err := config.LoadSources(cfg.SourcesPath)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:     cfg,
		store:   store,
		engine:  engine,
		guard:   guard,
		scrape:  scraper.New(scraper.WithWorkers(cfg.ScrapeWorkers), scraper.WithRate(cfg.ScrapeRPS)),
		baseCtx: context.Background(),
	}
	a.runner = collect.NewRunner(a.buildCollectors(ctx, sources)...)
	a.server = api.NewServer(cfg.HTTPAddr, store, a, guard, cfg.AdminToken)

	if cfg.GeminiAPIKey != "" {
		if a.synth, err = synthesis.New(ctx, cfg.GeminiAPIKey); err != nil {
			return nil, err
		}
	}
	if cfg.TelegramToken != "" {
		a.notifier = notify.New(cfg.TelegramToken, cfg.TelegramChats)
		a.sent = storage.NewSentCache(cfg.SentCachePath, cfg.SentCacheTTL)
		if err := a.sent.Load(); err != nil {
			logger.Warn("sent cache unreadable, starting fresh", "error", err)
		}
	}

	return a, nil
}

func buildEngine(cfg *config.Config) (*scoring.Engine, error) {
	sc := scoring.DefaultConfig()
	if cfg.MinCompositeScore > 0 {
		sc.MinCompositeScore = cfg.MinCompositeScore
	}
	if cfg.MinContentLength > 0 {
		sc.MinContentLength = cfg.MinContentLength
	}
	return scoring.NewEngine(sc)
}

func (a *App) buildCollectors(ctx context.Context, sources *config.Sources) []collect.Collector {
	var collectors []collect.Collector

	feedSources := make([]feed.Source, 0, len(sources.Feeds))
	for _, f := range sources.Feeds {
		feedSources = append(feedSources, feed.Source{Name: f.Name, URL: f.URL})
	}
	if len(feedSources) > 0 {
		collectors = append(collectors, feed.New(feedSources, a.cfg.ArticleMaxAge))
	}

	if a.cfg.GoogleAPIKey != "" && a.cfg.SearchEngineID != "" && len(sources.Queries) > 0 {
		c, err := search.New(ctx, a.cfg.GoogleAPIKey, a.cfg.SearchEngineID, sources.Queries, a.guard)
		if err != nil {
			logger.Warn("search collector disabled", "error", err)
		} else {
			collectors = append(collectors, c)
		}
	} else {
		logger.Info("search collector disabled: missing credentials or queries")
	}

	if a.cfg.YouTubeAPIKey != "" && len(sources.Channels) > 0 {
		channels := make([]video.Channel, 0, len(sources.Channels))
		for _, ch := range sources.Channels {
			channels = append(channels, video.Channel{Name: ch.Name, ID: ch.ID})
		}
		c, err := video.New(ctx, a.cfg.YouTubeAPIKey, channels, a.guard, a.cfg.ArticleMaxAge)
		if err != nil {
			logger.Warn("video collector disabled", "error", err)
		} else {
			collectors = append(collectors, c)
		}
	} else {
		logger.Info("video collector disabled: missing credentials or channels")
	}

	if len(sources.Documents) > 0 {
		docs := make([]pdfext.Document, 0, len(sources.Documents))
		for _, d := range sources.Documents {
			docs = append(docs, pdfext.Document{Title: d.Title, URL: d.URL, Source: d.Source})
		}
		collectors = append(collectors, pdfext.New(docs))
	}

	return collectors
}

// Run starts the API server and the periodic pipeline, blocking until ctx
// is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.baseCtx = ctx

	serverErr := make(chan error, 1)
	go func() { serverErr <- a.server.Start() }()

	// First pass right away so a fresh deployment has content.
	a.tryRun(ctx)

	ticker := time.NewTicker(a.cfg.CollectInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.tryRun(ctx)
		case err := <-serverErr:
			return fmt.Errorf("api server: %w", err)
		case <-ctx.Done():
			return a.shutdown()
		}
	}
}

func (a *App) shutdown() error {
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api shutdown failed", "error", err)
	}

	if a.sent != nil {
		if err := a.sent.Save(); err != nil {
			logger.Error("saving sent cache failed", "error", err)
		}
	}
	if a.synth != nil {
		a.synth.Close()
	}
	return a.store.Close()
}

// TriggerCollect starts a pipeline pass in the background. It reports false
// when a pass is already active.
func (a *App) TriggerCollect() bool {
	if !a.running.CompareAndSwap(false, true) {
		return false
	}
	go func() {
		defer a.running.Store(false)
		a.runOnce(a.baseCtx)
	}()
	return true
}

// tryRun is the scheduler entry: skip the tick when a triggered run is
// still going.
func (a *App) tryRun(ctx context.Context) {
	if !a.running.CompareAndSwap(false, true) {
		logger.Warn("pipeline pass still running, skipping tick")
		return
	}
	defer a.running.Store(false)
	a.runOnce(ctx)
}

func (a *App) runOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	start := time.Now()
	logger.Info("pipeline pass starting")

	articles, err := a.runner.Run(ctx)
	if err != nil {
		logger.Error("collection failed", "error", err)
		metrics.Global.SetError(err.Error())
		return
	}

	articles = a.scrape.Enrich(ctx, articles)

	stored, included := a.scoreAndStore(ctx, articles)

	if a.notifier != nil {
		a.sendDigest(ctx)
	}

	if err := a.cleanup(ctx); err != nil {
		logger.Error("cleanup failed", "error", err)
	}

	metrics.Global.RecordRunDuration(time.Since(start))
	metrics.Global.SetLastRun()
	logger.Info("pipeline pass complete",
		"collected", len(articles), "stored", stored, "included", included,
		"took", time.Since(start).Round(time.Second))
}

func (a *App) scoreAndStore(ctx context.Context, articles []collect.Article) (stored, included int) {
	for _, article := range articles {
		result := a.engine.Score(scoring.Input{
			Title:       article.Title,
			Body:        article.Text(),
			Source:      article.Source,
			URL:         article.URL,
			PublishedAt: article.PublishedAt,
		})
		metrics.Global.IncrementScored()
		if result.Excluded {
			metrics.Global.IncrementExcluded()
		}
		if result.Include {
			included++
		}

		id, _, err := a.store.UpsertArticle(ctx, article)
		if err != nil {
			logger.Error("storing article failed", "url", article.URL, "error", err)
			continue
		}
		if err := a.store.SaveScore(ctx, id, result); err != nil {
			logger.Error("storing score failed", "url", article.URL, "error", err)
			continue
		}
		stored++
		metrics.Global.IncrementStored()
	}
	return stored, included
}

// Rescore re-runs the engine over recently stored articles, refreshing
// their verdicts after a configuration change.
func (a *App) Rescore(ctx context.Context) (int, error) {
	const batch = 5000

	items, err := a.store.ListForRescore(ctx, batch)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, item := range items {
		result := a.engine.Score(scoring.Input{
			Title:       item.Title,
			Body:        item.Text(),
			Source:      item.Source,
			URL:         item.URL,
			PublishedAt: item.PublishedAt,
		})
		if err := a.store.SaveScore(ctx, item.ID, result); err != nil {
			return n, err
		}
		n++
	}
	logger.Info("rescore complete", "articles", n)
	return n, nil
}

// sendDigest delivers today's best unseen stories.
func (a *App) sendDigest(ctx context.Context) {
	listed, err := a.store.ListScored(ctx, storage.ListFilter{
		IncludeOnly: true,
		Since:       time.Now().Add(-24 * time.Hour),
		Limit:       uint64(a.cfg.DigestSize * 3),
	})
	if err != nil {
		logger.Error("digest query failed", "error", err)
		return
	}

	var (
		stories []notify.Story
		items   []synthesis.Item
		keys    []string
	)
	for _, sa := range listed {
		if len(stories) >= a.cfg.DigestSize {
			break
		}
		key := collect.ExactKey(sa.Article)
		if a.sent.WasSent(key) {
			continue
		}
		stories = append(stories, notify.Story{
			Title:  sa.Title,
			URL:    sa.URL,
			Source: sa.Source,
			Theme:  string(sa.Score.PrimaryTheme),
			Score:  sa.Score.TotalScore,
		})
		items = append(items, synthesis.Item{
			Title:   sa.Title,
			Source:  sa.Source,
			Theme:   string(sa.Score.PrimaryTheme),
			Score:   sa.Score.TotalScore,
			URL:     sa.URL,
			Summary: sa.Summary,
		})
		keys = append(keys, key)
	}

	if len(stories) == 0 {
		logger.Info("no fresh stories for digest")
		return
	}

	brief := ""
	if a.synth != nil {
		brief = a.synth.Brief(ctx, items)
	} else {
		brief = synthesis.FallbackBrief(items)
	}

	if err := a.notifier.SendDigest(ctx, brief, stories); err != nil {
		logger.Error("digest delivery failed", "error", err)
		return
	}

	for i, key := range keys {
		a.sent.MarkSent(key, stories[i].Title, stories[i].URL)
	}
	if err := a.sent.Save(); err != nil {
		logger.Error("saving sent cache failed", "error", err)
	}
}

func (a *App) cleanup(ctx context.Context) error {
	maxAge := time.Duration(a.cfg.RetentionDays) * 24 * time.Hour
	if maxAge <= 0 {
		return nil
	}
	_, err := a.store.Cleanup(ctx, maxAge)
	return err
}
