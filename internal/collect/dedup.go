package collect

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"
)

// Deduplication runs at two strengths. The exact key catches the same item
// arriving twice (a feed and a search hit pointing at one URL). The
// similarity key catches near-duplicates: same host, same leading headline
// words, same publication window.

const (
	simWindow   = 6 * time.Hour
	simMaxWords = 6
)

var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "as": true, "at": true, "by": true,
	"for": true, "from": true, "in": true, "is": true, "it": true, "of": true,
	"on": true, "or": true, "the": true, "to": true, "with": true,
}

// ExactKey hashes the canonical URL when present, falling back to the
// normalized title plus summary.
func ExactKey(a Article) string {
	if u := canonicalURL(a.URL); u != "" {
		return hash(u)
	}
	return hash(strings.ToLower(a.Title + a.Summary))
}

// SimilarityKey builds the lenient key: host|leading-words|window-start.
func SimilarityKey(a Article) string {
	host := "unknown"
	if u, err := url.Parse(a.URL); err == nil && u.Host != "" {
		host = strings.ToLower(u.Host)
	}

	words := significantWords(a.Title+" "+a.Summary, simMaxWords)

	ts := a.PublishedAt
	if ts.IsZero() {
		ts = a.CollectedAt
	}
	if ts.IsZero() {
		ts = time.Now()
	}
	window := ts.Truncate(simWindow).Unix()

	return fmt.Sprintf("%s|%s|%d", host, strings.Join(words, "_"), window)
}

// Dedupe drops exact and near duplicates, keeping the first occurrence.
// Input order is preserved, so callers should rank before deduping if they
// care which duplicate wins.
func Dedupe(articles []Article) (kept []Article, dropped int) {
	seenExact := make(map[string]bool, len(articles))
	seenSim := make(map[string]bool, len(articles))

	for _, a := range articles {
		ek := ExactKey(a)
		sk := SimilarityKey(a)
		if seenExact[ek] || seenSim[sk] {
			dropped++
			continue
		}
		seenExact[ek] = true
		seenSim[sk] = true
		kept = append(kept, a)
	}
	return kept, dropped
}

func hash(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:])
}

// canonicalURL lowercases host, strips fragments and common tracking params.
func canonicalURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}
	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)

	q := u.Query()
	for param := range q {
		if strings.HasPrefix(param, "utm_") || param == "ref" || param == "fbclid" {
			q.Del(param)
		}
	}
	u.RawQuery = q.Encode()
	return strings.TrimSuffix(u.String(), "/")
}

func significantWords(text string, max int) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	words := strings.Fields(b.String())

	out := make([]string, 0, max)
	for _, w := range words {
		if len(out) >= max {
			break
		}
		if stopWords[w] || len(w) <= 2 {
			continue
		}
		out = append(out, w)
	}
	// All stop words: fall back to the raw leading words so the key is
	// still stable for the same headline.
	if len(out) == 0 {
		for i := 0; i < len(words) && i < max; i++ {
			out = append(out, words[i])
		}
	}
	return out
}
