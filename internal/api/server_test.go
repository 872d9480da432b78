package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/team-spiral-racing/tsr-ops/internal/config"
	"github.com/team-spiral-racing/tsr-ops/internal/gitrepo"
	"github.com/team-spiral-racing/tsr-ops/internal/ingest"
	"github.com/team-spiral-racing/tsr-ops/internal/publish"
	"github.com/team-spiral-racing/tsr-ops/internal/store"
)

type stubIngestor struct {
	sum ingest.Summary
	err error
}

func (s *stubIngestor) Run(_ context.Context) (ingest.Summary, error) {
	return s.sum, s.err
}

type stubPublisher struct {
	postRes publish.Result
	postErr error
	syncRes publish.Result
	syncErr error

	publishedID string
	syncCalled  bool
}

func (s *stubPublisher) PublishPost(_ context.Context, post store.BlogPost) (publish.Result, error) {
	s.publishedID = post.ID
	return s.postRes, s.postErr
}

func (s *stubPublisher) SyncAll(_ context.Context) (publish.Result, error) {
	s.syncCalled = true
	return s.syncRes, s.syncErr
}

type stubPostStore struct {
	store.NoOpProvider
	posts map[string]store.BlogPost
}

func (s *stubPostStore) BlogPost(_ context.Context, id string) (store.BlogPost, error) {
	post, ok := s.posts[id]
	if !ok {
		return store.BlogPost{}, store.ErrNotFound
	}
	return post, nil
}

func testConfig() config.Config {
	return config.Config{
		Auth: config.AuthConfig{CronSecret: "cron-token", APIKey: "api-token"},
	}
}

func newTestServer(ing Ingestor, pub Publisher, st store.Provider) *Server {
	return NewServer(ing, pub, st, zap.NewNop(), testConfig())
}

func doRequest(t *testing.T, s *Server, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func TestRootRedirectsToStatus(t *testing.T) {
	t.Parallel()

	s := newTestServer(&stubIngestor{}, &stubPublisher{}, &stubPostStore{})
	rec := doRequest(t, s, http.MethodGet, "/", "", "")

	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/status", rec.Header().Get("Location"))
}

func TestStatusEndpoint(t *testing.T) {
	t.Parallel()

	s := newTestServer(&stubIngestor{}, &stubPublisher{}, &stubPostStore{})
	rec := doRequest(t, s, http.MethodGet, "/status", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Status OK, server is running", decodeBody(t, rec)["msg"])
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	s := newTestServer(&stubIngestor{}, &stubPublisher{}, &stubPostStore{})
	rec := doRequest(t, s, http.MethodGet, "/metrics", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestTriggerIngestAuth(t *testing.T) {
	t.Parallel()

	s := newTestServer(&stubIngestor{}, &stubPublisher{}, &stubPostStore{})

	rec := doRequest(t, s, http.MethodPost, "/youtube", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/youtube", nil)
	req.Header.Set("Authorization", "Basic cron-token")
	malformed := httptest.NewRecorder()
	s.Handler().ServeHTTP(malformed, req)
	require.Equal(t, http.StatusUnauthorized, malformed.Code)

	rec = doRequest(t, s, http.MethodPost, "/youtube", "wrong-token", "")
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTriggerIngestSuccess(t *testing.T) {
	t.Parallel()

	ing := &stubIngestor{sum: ingest.Summary{Found: 3, Upserted: 2, Skipped: 1}}
	s := newTestServer(ing, &stubPublisher{}, &stubPostStore{})

	rec := doRequest(t, s, http.MethodPost, "/youtube", "cron-token", "")
	require.Equal(t, http.StatusOK, rec.Code)

	payload := decodeBody(t, rec)
	require.Equal(t, "Job processed successfully with 3 item(s).", payload["msg"])
}

func TestTriggerIngestUpstreamFailure(t *testing.T) {
	t.Parallel()

	ing := &stubIngestor{err: errors.New("youtube search: 500")}
	s := newTestServer(ing, &stubPublisher{}, &stubPostStore{})

	rec := doRequest(t, s, http.MethodPost, "/youtube", "cron-token", "")
	require.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestTriggerBlogSinglePost(t *testing.T) {
	t.Parallel()

	pub := &stubPublisher{postRes: publish.Result{
		Committed: true,
		Paths:     []string{"content/posts/track-day/index.md"},
	}}
	st := &stubPostStore{posts: map[string]store.BlogPost{
		"track-day": {ID: "track-day", Title: "Track Day"},
	}}
	s := newTestServer(&stubIngestor{}, pub, st)

	rec := doRequest(t, s, http.MethodPost, "/blog", "api-token", `{"blog":"track-day"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "track-day", pub.publishedID)

	payload := decodeBody(t, rec)
	require.Equal(t, true, payload["committed"])
	require.Equal(t, float64(1), payload["files"])
}

func TestTriggerBlogSinglePostUsesAPIKey(t *testing.T) {
	t.Parallel()

	st := &stubPostStore{posts: map[string]store.BlogPost{"track-day": {ID: "track-day"}}}
	s := newTestServer(&stubIngestor{}, &stubPublisher{}, st)

	// The cron secret is not valid for manual single-post publishes.
	rec := doRequest(t, s, http.MethodPost, "/blog", "cron-token", `{"blog":"track-day"}`)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTriggerBlogUnknownPost(t *testing.T) {
	t.Parallel()

	s := newTestServer(&stubIngestor{}, &stubPublisher{}, &stubPostStore{})

	rec := doRequest(t, s, http.MethodPost, "/blog", "api-token", `{"blog":"missing"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTriggerBlogSyncAll(t *testing.T) {
	t.Parallel()

	pub := &stubPublisher{syncRes: publish.Result{
		Committed:    true,
		Paths:        []string{"content/posts/a/index.md", "content/posts/b/index.md"},
		SkippedPosts: 1,
	}}
	s := newTestServer(&stubIngestor{}, pub, &stubPostStore{})

	rec := doRequest(t, s, http.MethodPost, "/blog", "cron-token", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, pub.syncCalled)

	payload := decodeBody(t, rec)
	require.Equal(t, float64(2), payload["files"])
	require.Equal(t, float64(1), payload["skipped_posts"])
}

func TestTriggerBlogSyncAuth(t *testing.T) {
	t.Parallel()

	s := newTestServer(&stubIngestor{}, &stubPublisher{}, &stubPostStore{})

	rec := doRequest(t, s, http.MethodPost, "/blog", "api-token", "{}")
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTriggerBlogRefConflict(t *testing.T) {
	t.Parallel()

	pub := &stubPublisher{syncErr: gitrepo.ErrRefConflict}
	s := newTestServer(&stubIngestor{}, pub, &stubPostStore{})

	rec := doRequest(t, s, http.MethodPost, "/blog", "cron-token", "")
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestTriggerBlogInvalidJSON(t *testing.T) {
	t.Parallel()

	s := newTestServer(&stubIngestor{}, &stubPublisher{}, &stubPostStore{})

	rec := doRequest(t, s, http.MethodPost, "/blog", "cron-token", "{not-json")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
