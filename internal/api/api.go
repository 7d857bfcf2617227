// Package api serves the REST read path and the admin triggers over
// net/http. Routing uses method-qualified patterns on the standard mux.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/buildpulse/buildpulse/internal/cache"
	"github.com/buildpulse/buildpulse/internal/logger"
	"github.com/buildpulse/buildpulse/internal/metrics"
	"github.com/buildpulse/buildpulse/internal/quota"
	"github.com/buildpulse/buildpulse/internal/storage"
)

// readCacheTTL bounds staleness on the list endpoints; the pipeline only
// writes every few hours, so a short TTL is safe.
const readCacheTTL = time.Minute

// Store is the read side the API needs from storage.
type Store interface {
	ListScored(ctx context.Context, f storage.ListFilter) ([]storage.ScoredArticle, error)
	Stats(ctx context.Context) (map[string]any, error)
}

// Pipeline exposes the admin operations of the collection pipeline.
type Pipeline interface {
	// TriggerCollect starts a collection run in the background; it reports
	// false when a run is already active.
	TriggerCollect() bool
	// Rescore re-runs the scoring engine over stored articles and returns
	// how many were rescored.
	Rescore(ctx context.Context) (int, error)
}

type Server struct {
	store      Store
	pipeline   Pipeline
	guard      *quota.Guard
	adminToken string
	readCache  *cache.Cache
	srv        *http.Server
}

func NewServer(addr string, store Store, pipeline Pipeline, guard *quota.Guard, adminToken string) *Server {
	s := &Server{
		store:      store,
		pipeline:   pipeline,
		guard:      guard,
		adminToken: adminToken,
		readCache:  cache.New(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	mux.HandleFunc("GET /api/v1/metrics", s.handleMetrics)
	mux.HandleFunc("GET /api/v1/home", s.cached(s.handleHome))
	mux.HandleFunc("GET /api/v1/top-stories", s.cached(s.handleTopStories))
	mux.HandleFunc("GET /api/v1/themes/{theme}", s.cached(s.handleTheme))
	mux.HandleFunc("POST /api/v1/admin/collect", s.requireAdmin(s.handleAdminCollect))
	mux.HandleFunc("POST /api/v1/admin/score", s.requireAdmin(s.handleAdminScore))

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           logRequests(mux),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
	}
	return s
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	logger.Info("api server listening", "addr", s.srv.Addr)
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.adminToken == "" {
			writeError(w, http.StatusForbidden, "admin endpoints are disabled")
			return
		}
		token := r.Header.Get("X-Admin-Token")
		if token == "" {
			const prefix = "Bearer "
			if auth := r.Header.Get("Authorization"); len(auth) > len(prefix) && auth[:len(prefix)] == prefix {
				token = auth[len(prefix):]
			}
		}
		if token != s.adminToken {
			writeError(w, http.StatusUnauthorized, "invalid admin token")
			return
		}
		next(w, r)
	}
}

// bufferingWriter captures a response so successful payloads can be cached.
type bufferingWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (w *bufferingWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *bufferingWriter) Write(p []byte) (int, error) {
	w.buf.Write(p)
	return w.ResponseWriter.Write(p)
}

// cached serves GET responses from the read cache, keyed by path and query.
// Only 200 responses are stored.
func (s *Server) cached(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := cache.Key(r.URL.Path, r.URL.RawQuery)
		if v, ok := s.readCache.Get(key); ok {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-Cache", "hit")
			w.Write(v.([]byte))
			return
		}

		bw := &bufferingWriter{ResponseWriter: w, status: http.StatusOK}
		next(bw, r)
		if bw.status == http.StatusOK {
			s.readCache.Set(key, bw.buf.Bytes(), readCacheTTL)
		}
	}
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug("http request",
			"method", r.Method, "path", r.URL.Path,
			"took", time.Since(start).Round(time.Millisecond))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()
	status := "ok"
	code := http.StatusOK
	if healthy, _ := stats["is_healthy"].(bool); !healthy {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":        status,
		"last_run_time": stats["last_run_time"],
		"last_error":    stats["last_error"],
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{
		"pipeline": metrics.Global.GetStats(),
		"quotas":   s.guard.Stats(),
	}
	if dbStats, err := s.store.Stats(r.Context()); err == nil {
		out["storage"] = dbStats
	} else {
		logger.Error("reading storage stats", "error", err)
	}
	writeJSON(w, http.StatusOK, out)
}
