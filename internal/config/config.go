// Package config loads runtime configuration from the environment and the
// content-sources YAML file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// HTTP API
	HTTPAddr   string
	AdminToken string

	// Storage
	DatabaseURL   string
	RetentionDays int

	// Collection schedule
	CollectInterval time.Duration
	ArticleMaxAge   time.Duration

	// Scraper
	ScrapeWorkers int
	ScrapeRPS     float64

	// Upstream APIs (any may be empty; the collector is then disabled)
	GoogleAPIKey   string
	SearchEngineID string
	YouTubeAPIKey  string
	GeminiAPIKey   string

	// Daily API budgets
	SearchDailyQuota  int
	YouTubeDailyQuota int

	// Digest delivery
	TelegramToken string
	TelegramChats []string
	DigestSize    int
	SentCachePath string
	SentCacheTTL  time.Duration

	// Scoring threshold overrides; zero keeps the engine defaults.
	MinCompositeScore float64
	MinContentLength  int

	// Content sources file
	SourcesPath string

	Debug bool
}

func Load() (*Config, error) {
	cfg := &Config{
		HTTPAddr:          getEnvOrDefault("HTTP_ADDR", ":8080"),
		AdminToken:        os.Getenv("ADMIN_TOKEN"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RetentionDays:     getEnvIntOrDefault("RETENTION_DAYS", 90),
		CollectInterval:   getEnvDurationOrDefault("COLLECT_INTERVAL", 4*time.Hour),
		ArticleMaxAge:     getEnvDurationOrDefault("ARTICLE_MAX_AGE", 7*24*time.Hour),
		ScrapeWorkers:     getEnvIntOrDefault("SCRAPE_WORKERS", 4),
		ScrapeRPS:         getEnvFloatOrDefault("SCRAPE_RPS", 2),
		GoogleAPIKey:      os.Getenv("GOOGLE_API_KEY"),
		SearchEngineID:    os.Getenv("SEARCH_ENGINE_ID"),
		YouTubeAPIKey:     os.Getenv("YOUTUBE_API_KEY"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		SearchDailyQuota:  getEnvIntOrDefault("SEARCH_DAILY_QUOTA", 90),
		YouTubeDailyQuota: getEnvIntOrDefault("YOUTUBE_DAILY_QUOTA", 90),
		TelegramToken:     os.Getenv("TELEGRAM_TOKEN"),
		DigestSize:        getEnvIntOrDefault("DIGEST_SIZE", 8),
		SentCachePath:     getEnvOrDefault("SENT_CACHE_PATH", "sent_digest.json"),
		SentCacheTTL:      getEnvDurationOrDefault("SENT_CACHE_TTL", 72*time.Hour),
		MinCompositeScore: getEnvFloatOrDefault("MIN_COMPOSITE_SCORE", 0),
		MinContentLength:  getEnvIntOrDefault("MIN_CONTENT_LENGTH", 0),
		SourcesPath:       getEnvOrDefault("SOURCES_PATH", "configs/sources.yaml"),
		Debug:             os.Getenv("DEBUG") == "true",
	}

	if chats := os.Getenv("TELEGRAM_CHAT_IDS"); chats != "" {
		for _, id := range strings.Split(chats, ",") {
			if id = strings.TrimSpace(id); id != "" {
				cfg.TelegramChats = append(cfg.TelegramChats, id)
			}
		}
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.CollectInterval < time.Minute {
		return fmt.Errorf("COLLECT_INTERVAL must be at least 1m, got %s", c.CollectInterval)
	}
	if c.TelegramToken != "" && len(c.TelegramChats) == 0 {
		return fmt.Errorf("TELEGRAM_CHAT_IDS is required when TELEGRAM_TOKEN is set")
	}
	return nil
}

// Sources is the content-sources file: which feeds to poll, which queries
// to search, which channels and documents to ingest.
type Sources struct {
	Feeds     []FeedSource     `yaml:"feeds"`
	Queries   []string         `yaml:"queries"`
	Channels  []ChannelSource  `yaml:"channels"`
	Documents []DocumentSource `yaml:"documents"`
}

type FeedSource struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type ChannelSource struct {
	Name string `yaml:"name"`
	ID   string `yaml:"id"`
}

type DocumentSource struct {
	Title  string `yaml:"title"`
	URL    string `yaml:"url"`
	Source string `yaml:"source"`
}

func LoadSources(path string) (*Sources, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: opening sources file: %w", err)
	}
	defer f.Close()

	var s Sources
	if err := yaml.NewDecoder(f).Decode(&s); err != nil {
		return nil, fmt.Errorf("config: parsing sources file: %w", err)
	}
	return &s, nil
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvIntOrDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvFloatOrDefault(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvDurationOrDefault(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
