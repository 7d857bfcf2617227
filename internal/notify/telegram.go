// Package notify delivers the daily digest to Telegram channels.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/buildpulse/buildpulse/internal/logger"
	"github.com/buildpulse/buildpulse/internal/metrics"
	"github.com/buildpulse/buildpulse/internal/retry"
)

const defaultAPIBase = "https://api.telegram.org"

// Telegram caps messages at 4096 chars; stay under it with headroom.
const maxMessageLen = 3900

type Notifier struct {
	token   string
	chatIDs []string
	client  *http.Client
	apiBase string
	retry   retry.Config
}

func New(token string, chatIDs []string) *Notifier {
	return &Notifier{
		token:   token,
		chatIDs: chatIDs,
		client:  &http.Client{Timeout: 30 * time.Second},
		apiBase: defaultAPIBase,
		retry:   retry.Config{MaxAttempts: 3, Delay: 2 * time.Second, Backoff: true},
	}
}

// Story is one digest entry.
type Story struct {
	Title  string
	URL    string
	Source string
	Theme  string
	Score  float64
}

// SendDigest formats and delivers the digest to every configured channel.
// Per-channel failures are logged; the digest counts as sent when at least
// one channel accepted it.
func (n *Notifier) SendDigest(ctx context.Context, brief string, stories []Story) error {
	if len(n.chatIDs) == 0 {
		return fmt.Errorf("notify: no chat ids configured")
	}

	text := FormatDigest(brief, stories)
	if text == "" {
		logger.Info("empty digest, nothing to send")
		return nil
	}

	sent := 0
	for _, chatID := range n.chatIDs {
		err := retry.Do(ctx, n.retry, func() error {
			return n.sendMessage(ctx, chatID, text)
		})
		if err != nil {
			logger.Error("digest delivery failed", "chat", chatID, "error", err)
			continue
		}
		sent++
	}

	if sent == 0 {
		return fmt.Errorf("notify: digest delivery failed for all %d channels", len(n.chatIDs))
	}
	metrics.Global.IncrementDigestsSent()
	logger.Info("digest delivered", "channels", sent, "stories", len(stories))
	return nil
}

func (n *Notifier) sendMessage(ctx context.Context, chatID, text string) error {
	payload := map[string]any{
		"chat_id":                  chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram api status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}

// FormatDigest renders the digest as Telegram HTML: the brief on top, then
// linked stories with their theme and score.
func FormatDigest(brief string, stories []Story) string {
	if brief == "" && len(stories) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("<b>BuildPulse Daily</b>\n\n")

	if brief != "" {
		b.WriteString(html.EscapeString(brief))
		b.WriteString("\n\n")
	}

	for i, s := range stories {
		line := fmt.Sprintf("%d. <a href=\"%s\">%s</a> — %s · %s · %.0f\n",
			i+1, html.EscapeString(s.URL), html.EscapeString(s.Title),
			html.EscapeString(s.Source), html.EscapeString(s.Theme), s.Score)
		if b.Len()+len(line) > maxMessageLen {
			break
		}
		b.WriteString(line)
	}

	return strings.TrimSpace(b.String())
}
