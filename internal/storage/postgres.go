// Package storage persists collected articles and their scores in
// PostgreSQL and serves the read queries behind the API.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"github.com/buildpulse/buildpulse/internal/collect"
	"github.com/buildpulse/buildpulse/internal/logger"
	"github.com/buildpulse/buildpulse/internal/scoring"
)

// StoredArticle is an article with its database identity.
type StoredArticle struct {
	ID int64
	collect.Article
}

// ScoredArticle joins an article with its most recent score.
type ScoredArticle struct {
	StoredArticle
	Score    scoring.Result
	ScoredAt time.Time
}

// ListFilter narrows ListScored. Zero values mean "no constraint" except
// Limit, which defaults to 50.
type ListFilter struct {
	Theme       scoring.Theme
	Kind        string
	MinScore    float64
	IncludeOnly bool
	Since       time.Time
	Limit       uint64
	Offset      uint64
}

type Store struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

// New connects, pings and ensures the schema exists.
func New(connString string) (*Store, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, fmt.Errorf("storage: opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("storage: pinging database: %w", err)
	}

	s := &Store{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("storage: initializing schema: %w", err)
	}

	logger.Info("postgres storage ready")
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS articles (
		id BIGSERIAL PRIMARY KEY,
		dedup_key VARCHAR(64) UNIQUE NOT NULL,
		url TEXT NOT NULL,
		title TEXT NOT NULL,
		body TEXT,
		summary TEXT,
		source VARCHAR(200),
		kind VARCHAR(20) NOT NULL,
		published_at TIMESTAMPTZ,
		collected_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_articles_published_at ON articles(published_at);
	CREATE INDEX IF NOT EXISTS idx_articles_kind ON articles(kind);

	CREATE TABLE IF NOT EXISTS article_scores (
		article_id BIGINT PRIMARY KEY REFERENCES articles(id) ON DELETE CASCADE,
		total_score DOUBLE PRECISION NOT NULL,
		primary_theme VARCHAR(30),
		quality_level VARCHAR(10) NOT NULL,
		source_tier VARCHAR(10) NOT NULL,
		excluded BOOLEAN NOT NULL,
		included BOOLEAN NOT NULL,
		result JSONB NOT NULL,
		scored_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_scores_total ON article_scores(total_score DESC);
	CREATE INDEX IF NOT EXISTS idx_scores_theme ON article_scores(primary_theme);
	`
	_, err := s.db.Exec(schema)
	return err
}

// UpsertArticle stores an article, updating body and summary when the same
// item arrives again (a scrape pass enriching a feed teaser). Returns the
// row id and whether the row was newly inserted.
func (s *Store) UpsertArticle(ctx context.Context, a collect.Article) (int64, bool, error) {
	const q = `
	INSERT INTO articles (dedup_key, url, title, body, summary, source, kind, published_at, collected_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, '0001-01-01T00:00:00Z'::timestamptz), $9)
	ON CONFLICT (dedup_key) DO UPDATE SET
		title   = EXCLUDED.title,
		body    = CASE WHEN length(EXCLUDED.body) > length(articles.body) THEN EXCLUDED.body ELSE articles.body END,
		summary = CASE WHEN articles.summary = '' THEN EXCLUDED.summary ELSE articles.summary END,
		source  = EXCLUDED.source
	RETURNING id, (xmax = 0) AS inserted`

	collectedAt := a.CollectedAt
	if collectedAt.IsZero() {
		collectedAt = time.Now()
	}

	var (
		id       int64
		inserted bool
	)
	err := s.db.QueryRowContext(ctx, q,
		collect.ExactKey(a), a.URL, a.Title, a.Body, a.Summary,
		a.Source, a.Kind, a.PublishedAt, collectedAt,
	).Scan(&id, &inserted)
	if err != nil {
		return 0, false, fmt.Errorf("storage: upserting article: %w", err)
	}
	return id, inserted, nil
}

// SaveScore stores or replaces the score for an article. Rescoring with a
// new configuration overwrites the previous verdict.
func (s *Store) SaveScore(ctx context.Context, articleID int64, r scoring.Result) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("storage: marshaling score: %w", err)
	}

	const q = `
	INSERT INTO article_scores (article_id, total_score, primary_theme, quality_level,
		source_tier, excluded, included, result, scored_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	ON CONFLICT (article_id) DO UPDATE SET
		total_score   = EXCLUDED.total_score,
		primary_theme = EXCLUDED.primary_theme,
		quality_level = EXCLUDED.quality_level,
		source_tier   = EXCLUDED.source_tier,
		excluded      = EXCLUDED.excluded,
		included      = EXCLUDED.included,
		result        = EXCLUDED.result,
		scored_at     = NOW()`

	_, err = s.db.ExecContext(ctx, q,
		articleID, r.TotalScore, string(r.PrimaryTheme), r.QualityLevel,
		r.SourceTier, r.Excluded, r.Include, payload)
	if err != nil {
		return fmt.Errorf("storage: saving score: %w", err)
	}
	return nil
}

// ListScored returns scored articles matching the filter, best first.
func (s *Store) ListScored(ctx context.Context, f ListFilter) ([]ScoredArticle, error) {
	query, args, err := buildListQuery(s.sb, f).ToSql()
	if err != nil {
		return nil, fmt.Errorf("storage: building list query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: listing scored articles: %w", err)
	}
	defer rows.Close()

	var out []ScoredArticle
	for rows.Next() {
		var (
			sa        ScoredArticle
			published sql.NullTime
			payload   []byte
		)
		if err := rows.Scan(
			&sa.ID, &sa.URL, &sa.Title, &sa.Body, &sa.Summary,
			&sa.Source, &sa.Kind, &published, &sa.CollectedAt,
			&payload, &sa.ScoredAt,
		); err != nil {
			return nil, fmt.Errorf("storage: scanning row: %w", err)
		}
		if published.Valid {
			sa.PublishedAt = published.Time
		}
		if err := json.Unmarshal(payload, &sa.Score); err != nil {
			return nil, fmt.Errorf("storage: decoding score: %w", err)
		}
		out = append(out, sa)
	}
	return out, rows.Err()
}

func buildListQuery(sb sq.StatementBuilderType, f ListFilter) sq.SelectBuilder {
	q := sb.Select(
		"a.id", "a.url", "a.title", "a.body", "a.summary",
		"a.source", "a.kind", "a.published_at", "a.collected_at",
		"s.result", "s.scored_at",
	).
		From("articles a").
		Join("article_scores s ON s.article_id = a.id")

	if f.Theme != "" {
		q = q.Where(sq.Eq{"s.primary_theme": string(f.Theme)})
	}
	if f.Kind != "" {
		q = q.Where(sq.Eq{"a.kind": f.Kind})
	}
	if f.MinScore > 0 {
		q = q.Where(sq.GtOrEq{"s.total_score": f.MinScore})
	}
	if f.IncludeOnly {
		q = q.Where(sq.Eq{"s.included": true})
	}
	if !f.Since.IsZero() {
		q = q.Where(sq.GtOrEq{"a.published_at": f.Since})
	}

	limit := f.Limit
	if limit == 0 {
		limit = 50
	}
	return q.OrderBy("s.total_score DESC", "a.published_at DESC").
		Limit(limit).
		Offset(f.Offset)
}

// ListForRescore streams stored articles back as scoring inputs, newest
// first, bounded by limit.
func (s *Store) ListForRescore(ctx context.Context, limit uint64) ([]StoredArticle, error) {
	query, args, err := s.sb.Select(
		"id", "url", "title", "body", "summary", "source", "kind",
		"published_at", "collected_at",
	).
		From("articles").
		OrderBy("collected_at DESC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: listing articles: %w", err)
	}
	defer rows.Close()

	var out []StoredArticle
	for rows.Next() {
		var (
			sa        StoredArticle
			published sql.NullTime
		)
		if err := rows.Scan(&sa.ID, &sa.URL, &sa.Title, &sa.Body, &sa.Summary,
			&sa.Source, &sa.Kind, &published, &sa.CollectedAt); err != nil {
			return nil, err
		}
		if published.Valid {
			sa.PublishedAt = published.Time
		}
		out = append(out, sa)
	}
	return out, rows.Err()
}

// Stats returns aggregate counts for the metrics endpoint.
func (s *Store) Stats(ctx context.Context) (map[string]any, error) {
	const q = `
	SELECT
		(SELECT COUNT(*) FROM articles),
		(SELECT COUNT(*) FROM article_scores),
		(SELECT COUNT(*) FROM article_scores WHERE included),
		(SELECT COUNT(*) FROM article_scores WHERE excluded),
		(SELECT COALESCE(AVG(total_score), 0) FROM article_scores WHERE included)`

	var (
		articles, scored, included, excluded int64
		avgScore                             float64
	)
	if err := s.db.QueryRowContext(ctx, q).Scan(&articles, &scored, &included, &excluded, &avgScore); err != nil {
		return nil, fmt.Errorf("storage: reading stats: %w", err)
	}

	byTheme := map[string]int64{}
	rows, err := s.db.QueryContext(ctx,
		`SELECT primary_theme, COUNT(*) FROM article_scores WHERE included GROUP BY primary_theme`)
	if err != nil {
		return nil, fmt.Errorf("storage: reading theme stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			theme string
			n     int64
		)
		if err := rows.Scan(&theme, &n); err != nil {
			return nil, err
		}
		byTheme[theme] = n
	}

	return map[string]any{
		"articles_total":    articles,
		"articles_scored":   scored,
		"articles_included": included,
		"articles_excluded": excluded,
		"average_score":     avgScore,
		"included_by_theme": byTheme,
	}, rows.Err()
}

// Cleanup deletes articles older than maxAge together with their scores.
func (s *Store) Cleanup(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM articles WHERE collected_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("storage: cleanup: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		logger.Info("storage cleanup", "deleted", n, "cutoff", cutoff.Format(time.RFC3339))
	}
	return n, nil
}
