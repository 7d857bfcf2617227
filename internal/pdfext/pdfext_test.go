package pdfext

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildpulse/buildpulse/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	m.Run()
}

func TestTitleFromURL(t *testing.T) {
	cases := map[string]string{
		"https://example.com/research/q2-2026-market-outlook.pdf": "q2 2026 market outlook",
		"https://example.com/files/modular_report.pdf":            "modular report",
		"https://example.com/plain.pdf":                           "plain",
	}
	for in, want := range cases {
		assert.Equal(t, want, titleFromURL(in), "input %q", in)
	}
}

func TestCollectSkipsBrokenDocuments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing.pdf":
			http.NotFound(w, r)
		default:
			// Valid download, invalid PDF body.
			w.Write([]byte("this is not a pdf"))
		}
	}))
	defer srv.Close()

	c := New([]Document{
		{URL: srv.URL + "/missing.pdf", Source: "JLL"},
		{URL: srv.URL + "/garbage.pdf", Source: "CBRE"},
	})

	got, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCollectHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New([]Document{{URL: "https://example.com/x.pdf"}})
	_, err := c.Collect(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractFileRejectsNonPDF(t *testing.T) {
	_, err := ExtractFile("pdfext_test.go")
	assert.Error(t, err)
}

func TestFirstWords(t *testing.T) {
	assert.Equal(t, "a b c", firstWords("a b c", 5))
	assert.Equal(t, "a b", firstWords("a b c", 2))
	assert.Equal(t, "", firstWords("", 3))
}
