// Package pdfext collects industry reports published as PDFs (brokerage
// research, consultancy outlooks) and extracts their plain text for scoring.
package pdfext

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/buildpulse/buildpulse/internal/collect"
	"github.com/buildpulse/buildpulse/internal/logger"
)

// Document is one PDF to ingest. Source feeds credibility-tier lookup
// ("McKinsey", "JLL"); Title is optional and falls back to the filename.
type Document struct {
	Title  string
	URL    string
	Source string
}

type Collector struct {
	docs    []Document
	client  *http.Client
	maxSize int64
}

func New(docs []Document) *Collector {
	return &Collector{
		docs:    docs,
		client:  &http.Client{Timeout: 60 * time.Second},
		maxSize: 32 << 20,
	}
}

func (c *Collector) Name() string { return "pdf" }

func (c *Collector) Collect(ctx context.Context) ([]collect.Article, error) {
	var articles []collect.Article

	for _, doc := range c.docs {
		if ctx.Err() != nil {
			return articles, ctx.Err()
		}

		text, err := c.extractURL(ctx, doc.URL)
		if err != nil {
			logger.Warn("pdf extraction failed", "url", doc.URL, "error", err)
			continue
		}

		title := doc.Title
		if title == "" {
			title = titleFromURL(doc.URL)
		}

		articles = append(articles, collect.Article{
			Title:   title,
			Body:    text,
			Summary: firstWords(text, 60),
			URL:     doc.URL,
			Source:  doc.Source,
			Kind:    collect.KindPDF,
		})
	}

	return articles, nil
}

// extractURL downloads the document to a temp file and extracts its text.
// The pdf reader needs random access, so streaming is not an option.
func (c *Collector) extractURL(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp("", "buildpulse-*.pdf")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := io.Copy(tmp, io.LimitReader(resp.Body, c.maxSize)); err != nil {
		return "", fmt.Errorf("saving: %w", err)
	}

	return ExtractFile(tmp.Name())
}

// ExtractFile pulls the plain text out of a PDF on disk.
func ExtractFile(filePath string) (string, error) {
	f, reader, err := pdf.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("reading text: %w", err)
	}

	text := strings.Join(strings.Fields(buf.String()), " ")
	if text == "" {
		return "", fmt.Errorf("pdf has no extractable text")
	}
	return text, nil
}

// titleFromURL turns ".../q2-2026-market-outlook.pdf" into
// "q2 2026 market outlook".
func titleFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	base := strings.TrimSuffix(path.Base(u.Path), ".pdf")
	base = strings.NewReplacer("-", " ", "_", " ").Replace(base)
	return strings.TrimSpace(base)
}

func firstWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ")
}
