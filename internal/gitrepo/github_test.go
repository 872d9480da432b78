package gitrepo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-github/v62/github"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T, mux *http.ServeMux) *GitHubRepository {
	t.Helper()
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	client := github.NewClient(nil)
	base, err := url.Parse(ts.URL + "/")
	require.NoError(t, err)
	client.BaseURL = base

	return NewGitHubRepositoryWithClient(client, "team-spiral-racing", "blog", "main",
		"TSR Service Account [Bot]", "bot@teamspiralracing.com")
}

func TestFileSHA(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/team-spiral-racing/blog/contents/content/posts/slug/index.md",
		func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "main", r.URL.Query().Get("ref"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"type": "file", "sha": "existing-sha", "path": "content/posts/slug/index.md"}`))
		})

	repo := newTestRepository(t, mux)
	sha, exists, err := repo.FileSHA(context.Background(), "content/posts/slug/index.md")
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, "existing-sha", sha)
}

func TestFileSHAMissingPath(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message": "Not Found"}`))
	})

	repo := newTestRepository(t, mux)
	_, exists, err := repo.FileSHA(context.Background(), "content/posts/nope/index.md")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestCommitFiles(t *testing.T) {
	t.Parallel()

	var blobCount int
	var treeReq, commitReq, refReq map[string]any

	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/team-spiral-racing/blog/git/ref/heads/main",
		func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"ref": "refs/heads/main", "object": {"sha": "head-sha", "type": "commit"}}`))
		})
	mux.HandleFunc("GET /repos/team-spiral-racing/blog/git/commits/head-sha",
		func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"sha": "head-sha", "tree": {"sha": "base-tree"}}`))
		})
	mux.HandleFunc("POST /repos/team-spiral-racing/blog/git/blobs",
		func(w http.ResponseWriter, _ *http.Request) {
			blobCount++
			_, _ = w.Write([]byte(`{"sha": "blob-sha"}`))
		})
	mux.HandleFunc("POST /repos/team-spiral-racing/blog/git/trees",
		func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&treeReq))
			_, _ = w.Write([]byte(`{"sha": "new-tree"}`))
		})
	mux.HandleFunc("POST /repos/team-spiral-racing/blog/git/commits",
		func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&commitReq))
			_, _ = w.Write([]byte(`{"sha": "new-commit"}`))
		})
	mux.HandleFunc("PATCH /repos/team-spiral-racing/blog/git/refs/heads/main",
		func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&refReq))
			_, _ = w.Write([]byte(`{"ref": "refs/heads/main", "object": {"sha": "new-commit", "type": "commit"}}`))
		})

	repo := newTestRepository(t, mux)
	files := []File{
		{Path: "content/posts/slug/index.md", Content: []byte("markdown")},
		{Path: "content/posts/slug/featured.jpg", Content: []byte{0xff, 0xd8}},
	}
	require.NoError(t, repo.CommitFiles(context.Background(), files, "ci(ops): publish post `slug`"))

	require.Equal(t, 2, blobCount)
	require.Equal(t, "base-tree", treeReq["base_tree"])
	require.Len(t, treeReq["tree"], 2)
	require.Equal(t, "ci(ops): publish post `slug`", commitReq["message"])
	parents, ok := commitReq["parents"].([]any)
	require.True(t, ok)
	require.Len(t, parents, 1)
	require.Equal(t, "new-commit", refReq["sha"])
	require.Equal(t, false, refReq["force"])
}

func TestCommitFilesEmptyBatchIsNoOp(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected for an empty batch")
		w.WriteHeader(http.StatusInternalServerError)
	})

	repo := newTestRepository(t, mux)
	require.NoError(t, repo.CommitFiles(context.Background(), nil, "ci(ops): sync all blog posts"))
}

func TestCommitFilesRefConflict(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/team-spiral-racing/blog/git/ref/heads/main",
		func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"ref": "refs/heads/main", "object": {"sha": "head-sha", "type": "commit"}}`))
		})
	mux.HandleFunc("GET /repos/team-spiral-racing/blog/git/commits/head-sha",
		func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"sha": "head-sha", "tree": {"sha": "base-tree"}}`))
		})
	mux.HandleFunc("POST /repos/team-spiral-racing/blog/git/blobs",
		func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"sha": "blob-sha"}`))
		})
	mux.HandleFunc("POST /repos/team-spiral-racing/blog/git/trees",
		func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"sha": "new-tree"}`))
		})
	mux.HandleFunc("POST /repos/team-spiral-racing/blog/git/commits",
		func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"sha": "new-commit"}`))
		})
	mux.HandleFunc("PATCH /repos/team-spiral-racing/blog/git/refs/heads/main",
		func(w http.ResponseWriter, _ *http.Request) {
			// Someone else advanced main since we read it.
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"message": "Update is not a fast forward"}`))
		})

	repo := newTestRepository(t, mux)
	err := repo.CommitFiles(context.Background(),
		[]File{{Path: "content/posts/slug/index.md", Content: []byte("markdown")}},
		"ci(ops): publish post `slug`")
	require.ErrorIs(t, err, ErrRefConflict)
}
