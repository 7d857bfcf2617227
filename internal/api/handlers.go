package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/buildpulse/buildpulse/internal/scoring"
	"github.com/buildpulse/buildpulse/internal/storage"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// story is the wire form of one scored article.
type story struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	Kind        string    `json:"kind"`
	Summary     string    `json:"summary,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty"`

	Score scoring.Result `json:"score"`
}

func toStory(sa storage.ScoredArticle) story {
	return story{
		ID:          sa.ID,
		Title:       sa.Title,
		URL:         sa.URL,
		Source:      sa.Source,
		Kind:        sa.Kind,
		Summary:     sa.Summary,
		PublishedAt: sa.PublishedAt,
		Score:       sa.Score,
	}
}

func toStories(sas []storage.ScoredArticle) []story {
	out := make([]story, 0, len(sas))
	for _, sa := range sas {
		out = append(out, toStory(sa))
	}
	return out
}

// handleTopStories serves the ranked included stories.
// Query params: limit, offset, theme, kind, min_score, since (RFC3339).
func (s *Server) handleTopStories(w http.ResponseWriter, r *http.Request) {
	f, ok := filterFromQuery(w, r)
	if !ok {
		return
	}
	f.IncludeOnly = true

	items, err := s.store.ListScored(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "listing stories failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"stories": toStories(items),
		"count":   len(items),
	})
}

// handleTheme serves included stories whose primary theme matches the path.
func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	theme := scoring.Theme(r.PathValue("theme"))
	if !validTheme(theme) {
		writeError(w, http.StatusNotFound, "unknown theme")
		return
	}

	f, ok := filterFromQuery(w, r)
	if !ok {
		return
	}
	f.Theme = theme
	f.IncludeOnly = true

	items, err := s.store.ListScored(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "listing stories failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"theme":   theme,
		"stories": toStories(items),
		"count":   len(items),
	})
}

// handleHome serves the landing payload: a handful of top stories per theme.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	const perTheme = 5

	sections := make(map[scoring.Theme][]story, len(scoring.Themes))
	for _, theme := range scoring.Themes {
		items, err := s.store.ListScored(r.Context(), storage.ListFilter{
			Theme:       theme,
			IncludeOnly: true,
			Limit:       perTheme,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "listing stories failed")
			return
		}
		sections[theme] = toStories(items)
	}

	out := map[string]any{
		"generated_at": time.Now().UTC(),
		"themes":       sections,
	}
	if stats, err := s.store.Stats(r.Context()); err == nil {
		out["stats"] = stats
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAdminCollect(w http.ResponseWriter, r *http.Request) {
	if !s.pipeline.TriggerCollect() {
		writeError(w, http.StatusConflict, "collection run already in progress")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

func (s *Server) handleAdminScore(w http.ResponseWriter, r *http.Request) {
	n, err := s.pipeline.Rescore(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "rescore failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rescored": n})
}

func filterFromQuery(w http.ResponseWriter, r *http.Request) (storage.ListFilter, bool) {
	q := r.URL.Query()
	f := storage.ListFilter{Limit: defaultLimit}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil || n == 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return f, false
		}
		if n > maxLimit {
			n = maxLimit
		}
		f.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid offset")
			return f, false
		}
		f.Offset = n
	}
	if v := q.Get("theme"); v != "" {
		theme := scoring.Theme(v)
		if !validTheme(theme) {
			writeError(w, http.StatusBadRequest, "unknown theme")
			return f, false
		}
		f.Theme = theme
	}
	if v := q.Get("kind"); v != "" {
		f.Kind = v
	}
	if v := q.Get("min_score"); v != "" {
		score, err := strconv.ParseFloat(v, 64)
		if err != nil || score < 0 {
			writeError(w, http.StatusBadRequest, "invalid min_score")
			return f, false
		}
		f.MinScore = score
	}
	if v := q.Get("since"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid since, want RFC3339")
			return f, false
		}
		f.Since = ts
	}
	return f, true
}

func validTheme(t scoring.Theme) bool {
	for _, known := range scoring.Themes {
		if t == known {
			return true
		}
	}
	return false
}
