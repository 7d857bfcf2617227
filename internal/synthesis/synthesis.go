// Package synthesis turns the day's top-scored articles into a short
// editorial brief using the Gemini API.
package synthesis

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/buildpulse/buildpulse/internal/logger"
)

const (
	defaultModel    = "gemini-1.5-flash"
	maxPromptChars  = 6000
	maxItemsInBrief = 12
)

// Item is one story offered to the brief.
type Item struct {
	Title   string
	Source  string
	Theme   string
	Score   float64
	URL     string
	Summary string
}

type Synthesizer struct {
	client *genai.Client
	model  string
}

func New(ctx context.Context, apiKey string) (*Synthesizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("synthesis: api key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("synthesis: creating client: %w", err)
	}
	return &Synthesizer{client: client, model: defaultModel}, nil
}

func (s *Synthesizer) Close() {
	if s.client != nil {
		s.client.Close()
	}
}

// Brief generates the daily brief. When generation fails the deterministic
// fallback digest is returned instead, so delivery never depends on the
// model being up.
func (s *Synthesizer) Brief(ctx context.Context, items []Item) string {
	if len(items) == 0 {
		return ""
	}
	if len(items) > maxItemsInBrief {
		items = items[:maxItemsInBrief]
	}

	model := s.client.GenerativeModel(s.model)
	resp, err := model.GenerateContent(ctx, genai.Text(buildPrompt(items)))
	if err != nil {
		logger.Warn("brief generation failed, using fallback", "error", err)
		return FallbackBrief(items)
	}

	text := extractText(resp)
	if strings.TrimSpace(text) == "" {
		logger.Warn("brief generation returned empty response, using fallback")
		return FallbackBrief(items)
	}
	return strings.TrimSpace(text)
}

func buildPrompt(items []Item) string {
	var b strings.Builder
	b.WriteString("You are an analyst covering construction and real estate innovation.\n")
	b.WriteString("Write a concise daily brief (max 250 words) from the stories below.\n")
	b.WriteString("Group related stories, lead with the most consequential development,\n")
	b.WriteString("and keep a neutral, practical tone. Plain text, no markdown.\n\nSTORIES:\n")

	for i, item := range items {
		fmt.Fprintf(&b, "%d. [%s | %s] %s\n", i+1, item.Theme, item.Source, item.Title)
		if summary := sanitize(item.Summary); summary != "" {
			fmt.Fprintf(&b, "   %s\n", summary)
		}
	}
	return clampRunes(b.String(), maxPromptChars)
}

// FallbackBrief is the model-free digest: a plain ranked list.
func FallbackBrief(items []Item) string {
	var b strings.Builder
	b.WriteString("Top stories today:\n")
	for i, item := range items {
		fmt.Fprintf(&b, "%d. %s (%s, %.0f)\n", i+1, item.Title, item.Source, item.Score)
	}
	return strings.TrimSpace(b.String())
}

// sanitize collapses whitespace and bounds summary length before it enters
// a prompt.
func sanitize(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.Join(strings.Fields(s), " ")
	return clampRunes(s, 400)
}

// clampRunes cuts on a rune boundary, preferring a sentence end.
func clampRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	trimmed := string(runes[:max])
	if idx := strings.LastIndex(trimmed, ". "); idx > max/4 {
		trimmed = trimmed[:idx+1]
	}
	return trimmed
}

func extractText(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
	}
	return b.String()
}
