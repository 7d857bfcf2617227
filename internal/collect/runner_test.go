package collect

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildpulse/buildpulse/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	m.Run()
}

type fakeCollector struct {
	name     string
	articles []Article
	err      error
}

func (f fakeCollector) Name() string { return f.name }

func (f fakeCollector) Collect(ctx context.Context) ([]Article, error) {
	return f.articles, f.err
}

func TestRunnerMergesAndSorts(t *testing.T) {
	old := time.Date(2026, 8, 19, 8, 0, 0, 0, time.UTC)
	fresh := time.Date(2026, 8, 20, 8, 0, 0, 0, time.UTC)

	r := NewRunner(
		fakeCollector{name: "feeds", articles: []Article{
			{Title: "older story", URL: "https://a.example.com/1", PublishedAt: old},
		}},
		fakeCollector{name: "search", articles: []Article{
			{Title: "fresh story", URL: "https://b.example.com/2", PublishedAt: fresh},
		}},
	)

	got, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "fresh story", got[0].Title)
	assert.Equal(t, "older story", got[1].Title)
	for _, a := range got {
		assert.False(t, a.CollectedAt.IsZero())
	}
}

func TestRunnerToleratesPartialFailure(t *testing.T) {
	r := NewRunner(
		fakeCollector{name: "broken", err: errors.New("boom")},
		fakeCollector{name: "feeds", articles: []Article{
			{Title: "survivor", URL: "https://a.example.com/1"},
		}},
	)

	got, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "survivor", got[0].Title)
}

func TestRunnerFailsWhenAllCollectorsFail(t *testing.T) {
	r := NewRunner(
		fakeCollector{name: "a", err: errors.New("boom")},
		fakeCollector{name: "b", err: errors.New("boom")},
	)

	_, err := r.Run(context.Background())
	assert.ErrorIs(t, err, ErrAllCollectorsFailed)
}

func TestRunnerDropsCrossSourceDuplicates(t *testing.T) {
	ts := time.Date(2026, 8, 20, 8, 0, 0, 0, time.UTC)
	r := NewRunner(
		fakeCollector{name: "feeds", articles: []Article{
			{Title: "one story", URL: "https://a.example.com/1", PublishedAt: ts},
		}},
		fakeCollector{name: "search", articles: []Article{
			{Title: "one story", URL: "https://a.example.com/1?utm_source=cse", PublishedAt: ts},
		}},
	)

	got, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
