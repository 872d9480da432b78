package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *YouTubeProvider {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	// An empty API key plus WithoutAuthentication keeps the client library
	// from looking for default credentials in the test environment.
	p, err := NewYouTubeProvider(context.Background(), "", "channel-1",
		option.WithEndpoint(ts.URL), option.WithoutAuthentication())
	require.NoError(t, err)
	return p
}

func TestSearch(t *testing.T) {
	t.Parallel()

	var gotQuery map[string][]string
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"items": [
				{
					"id": {"videoId": "vid-1"},
					"snippet": {"title": "Time Attack - Buttonwillow Run", "publishedAt": "2025-06-03T12:00:00Z"}
				},
				{
					"id": {},
					"snippet": {"title": "a playlist, not a video", "publishedAt": "2025-06-03T13:00:00Z"}
				}
			]
		}`))
	})

	after := time.Date(2025, time.June, 3, 6, 0, 0, 0, time.UTC)
	videos, err := p.Search(context.Background(), after)
	require.NoError(t, err)

	require.Len(t, videos, 1)
	require.Equal(t, "vid-1", videos[0].ID)
	require.Equal(t, "Time Attack - Buttonwillow Run", videos[0].Title)
	require.Equal(t, time.Date(2025, time.June, 3, 12, 0, 0, 0, time.UTC), videos[0].PublishedAt)

	require.Equal(t, []string{"channel-1"}, gotQuery["channelId"])
	require.Equal(t, []string{"date"}, gotQuery["order"])
	require.Equal(t, []string{"video"}, gotQuery["type"])
	require.Equal(t, []string{"2025-06-03T06:00:00Z"}, gotQuery["publishedAfter"])
	require.Equal(t, []string{"50"}, gotQuery["maxResults"])
}

func TestDetails(t *testing.T) {
	t.Parallel()

	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.ElementsMatch(t, []string{"vid-1", "vid-2"}, r.URL.Query()["id"])
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"items": [
				{"id": "vid-1", "snippet": {"title": "Time Attack - Buttonwillow Run", "description": "===\ntrack: Buttonwillow\n==="}},
				{"id": "vid-2", "snippet": {"title": "Time Attack - Sonoma", "description": "no block here"}}
			]
		}`))
	})

	videos, err := p.Details(context.Background(), []string{"vid-1", "vid-2"})
	require.NoError(t, err)
	require.Len(t, videos, 2)
	require.Contains(t, videos[0].Description, "track: Buttonwillow")
}

func TestDetailsEmptyIDs(t *testing.T) {
	t.Parallel()

	p := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected for an empty ID list")
		w.WriteHeader(http.StatusInternalServerError)
	})

	videos, err := p.Details(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, videos)
}
