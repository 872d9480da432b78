// Package api exposes the HTTP trigger interface for the operations service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/team-spiral-racing/tsr-ops/internal/config"
	"github.com/team-spiral-racing/tsr-ops/internal/gitrepo"
	"github.com/team-spiral-racing/tsr-ops/internal/ingest"
	"github.com/team-spiral-racing/tsr-ops/internal/metrics"
	"github.com/team-spiral-racing/tsr-ops/internal/publish"
	"github.com/team-spiral-racing/tsr-ops/internal/store"
)

// requestTimeout bounds one trigger end to end, including every upstream call
// it fans out to.
const requestTimeout = 120 * time.Second

// Ingestor runs one video ingestion pass.
type Ingestor interface {
	Run(ctx context.Context) (ingest.Summary, error)
}

// Publisher commits blog content to the remote repository.
type Publisher interface {
	PublishPost(ctx context.Context, post store.BlogPost) (publish.Result, error)
	SyncAll(ctx context.Context) (publish.Result, error)
}

// Server wires HTTP handlers to the ingestion and publish pipelines.
type Server struct {
	router    chi.Router
	ingestor  Ingestor
	publisher Publisher
	store     store.Provider
	logger    *zap.Logger
	cfg       config.Config
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	ingestor Ingestor,
	publisher Publisher,
	st store.Provider,
	logger *zap.Logger,
	cfg config.Config,
) *Server {
	metrics.Init()
	s := &Server{
		ingestor:  ingestor,
		publisher: publisher,
		store:     st,
		logger:    logger,
		cfg:       cfg,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(metrics.Middleware)
	r.Use(timeoutMiddleware(requestTimeout))

	r.Get("/", s.root)
	r.Get("/status", s.status)
	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Post("/youtube", s.triggerIngest)
	r.Post("/blog", s.triggerBlog)

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) root(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/status", http.StatusFound)
}

func (s *Server) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"msg": "Status OK, server is running"})
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) triggerIngest(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r, s.cfg.Auth.CronSecret) {
		return
	}

	sum, err := s.ingestor.Run(r.Context())
	if err != nil {
		s.logger.Error("Ingestion run failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "youtube ingestion failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"msg":     fmt.Sprintf("Job processed successfully with %d item(s).", sum.Found),
		"summary": sum,
	})
}

// blogRequest carries the optional post id. An empty body or an absent id
// selects the full sync path.
type blogRequest struct {
	Blog string `json:"blog"`
}

func (s *Server) triggerBlog(w http.ResponseWriter, r *http.Request) {
	var req blogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if req.Blog != "" {
		s.publishOne(w, r, req.Blog)
		return
	}
	s.syncAll(w, r)
}

// publishOne handles a single-post publish, authenticated by the API key so
// members can republish a post outside the cron schedule.
func (s *Server) publishOne(w http.ResponseWriter, r *http.Request, id string) {
	if !s.authorize(w, r, s.cfg.Auth.APIKey) {
		return
	}

	post, err := s.store.BlogPost(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "blog post not found")
		return
	}
	if err != nil {
		s.logger.Error("Blog post lookup failed", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "blog post lookup failed")
		return
	}

	res, err := s.publisher.PublishPost(r.Context(), post)
	if err != nil {
		s.writePublishError(w, err, "publish failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"msg":       fmt.Sprintf("Post `%s` processed.", id),
		"committed": res.Committed,
		"files":     len(res.Paths),
	})
}

func (s *Server) syncAll(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r, s.cfg.Auth.CronSecret) {
		return
	}

	res, err := s.publisher.SyncAll(r.Context())
	if err != nil {
		s.writePublishError(w, err, "sync failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"msg":           "Blog sync processed.",
		"committed":     res.Committed,
		"files":         len(res.Paths),
		"skipped_posts": res.SkippedPosts,
	})
}

// writePublishError maps a lost commit race to 409 so the caller knows a
// retry will see a fresh head. Everything else is an upstream failure.
func (s *Server) writePublishError(w http.ResponseWriter, err error, msg string) {
	s.logger.Error("Publish run failed", zap.Error(err))
	if errors.Is(err, gitrepo.ErrRefConflict) {
		writeError(w, http.StatusConflict, "branch moved during commit, retry")
		return
	}
	writeError(w, http.StatusBadGateway, msg)
}

// authorize checks the bearer token. A missing or malformed header is 401;
// a wrong token is 403.
func (s *Server) authorize(w http.ResponseWriter, r *http.Request, expected string) bool {
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return false
	}
	if expected == "" || token != expected {
		writeError(w, http.StatusForbidden, "invalid token")
		return false
	}
	return true
}

func bearerToken(r *http.Request) (string, bool) {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return "", false
	}
	return header[len(prefix):], true
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("Request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("Panic recovered", zap.Any("error", rec))
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

type requestIDKey struct{}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
