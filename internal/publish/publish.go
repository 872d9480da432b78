// Package publish renders blog posts and commits them to the content
// repository, committing only files whose content actually changed.
package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/team-spiral-racing/tsr-ops/internal/gitrepo"
	"github.com/team-spiral-racing/tsr-ops/internal/hash"
	"github.com/team-spiral-racing/tsr-ops/internal/metrics"
	"github.com/team-spiral-racing/tsr-ops/internal/notify"
	"github.com/team-spiral-racing/tsr-ops/internal/render"
	"github.com/team-spiral-racing/tsr-ops/internal/store"
)

// defaultPostsDir is the repository root under which post directories live.
const defaultPostsDir = "content/posts"

// maxImageBytes bounds a featured image download.
const maxImageBytes = 20 << 20

// Publisher diffs rendered content against the remote repository and commits
// changed files in batches.
type Publisher struct {
	repo       gitrepo.Repository
	store      store.Provider
	notifier   notify.Provider
	logger     *zap.Logger
	httpClient *http.Client
	postsDir   string
}

// New builds a Publisher. imageTimeout bounds each featured image download;
// it is the only network call here without an outer deadline from the
// repository client.
func New(repo gitrepo.Repository, st store.Provider, notifier notify.Provider, logger *zap.Logger, postsDir string, imageTimeout time.Duration) *Publisher {
	metrics.Init()
	if postsDir == "" {
		postsDir = defaultPostsDir
	}
	return &Publisher{
		repo:       repo,
		store:      st,
		notifier:   notifier,
		logger:     logger,
		httpClient: &http.Client{Timeout: imageTimeout},
		postsDir:   postsDir,
	}
}

// Result summarizes one publish invocation.
type Result struct {
	Committed    bool
	Paths        []string
	SkippedPosts int
	ImageErrors  int
}

// FileChanged reports whether content differs from what the repository holds
// at p. An absent path counts as changed.
func (pub *Publisher) FileChanged(ctx context.Context, p string, content []byte) (bool, error) {
	remoteSHA, exists, err := pub.repo.FileSHA(ctx, p)
	if err != nil {
		return false, fmt.Errorf("check %s: %w", p, err)
	}
	if !exists {
		return true, nil
	}
	return remoteSHA != hash.BlobSHA(content), nil
}

// PublishPost publishes a single post: the rendered markdown plus its
// featured image, in one commit, skipping files already up to date.
//
// Policy for a failed image download: the markdown half still publishes.
// The markdown carries the post body and is independently useful; the image
// can catch up on the next sync. The failure is logged and counted in the
// Result, never escalated.
func (pub *Publisher) PublishPost(ctx context.Context, post store.BlogPost) (Result, error) {
	files, imageFailed, err := pub.changedPostFiles(ctx, post)
	if err != nil {
		return Result{}, err
	}

	var res Result
	if imageFailed {
		res.ImageErrors = 1
	}
	if len(files) == 0 {
		pub.logger.Info("Post already up to date, nothing to commit", zap.String("slug", post.ID))
		return res, nil
	}

	message := fmt.Sprintf("ci(ops): publish post `%s`", post.ID)
	if err := pub.repo.CommitFiles(ctx, files, message); err != nil {
		return res, fmt.Errorf("commit post %s: %w", post.ID, err)
	}

	res.Committed = true
	res.Paths = filePaths(files)
	metrics.ObserveCommit(len(files))
	pub.logger.Info("Published post", zap.String("slug", post.ID), zap.Strings("paths", res.Paths))
	pub.notifyRun(ctx, notify.KindPost, len(files))
	return res, nil
}

// SyncAll walks every blog post and accumulates the union of changed files
// across all of them into exactly one commit. Posts whose author record is
// missing are skipped and logged; the rest of the sync continues.
func (pub *Publisher) SyncAll(ctx context.Context) (Result, error) {
	posts, err := pub.store.ListBlogPosts(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list blog posts: %w", err)
	}

	var res Result
	var batch []gitrepo.File
	for _, post := range posts {
		files, imageFailed, err := pub.changedPostFiles(ctx, post)
		if errors.Is(err, store.ErrNotFound) {
			pub.logger.Warn("Skipping post with unresolvable author",
				zap.String("slug", post.ID), zap.String("author_id", post.AuthorID))
			res.SkippedPosts++
			continue
		}
		if err != nil {
			return res, err
		}
		if imageFailed {
			res.ImageErrors++
		}
		batch = append(batch, files...)
	}

	if len(batch) == 0 {
		pub.logger.Info("No changes detected, nothing to commit")
		return res, nil
	}

	if err := pub.repo.CommitFiles(ctx, batch, "ci(ops): sync all blog posts"); err != nil {
		return res, fmt.Errorf("commit sync batch: %w", err)
	}

	res.Committed = true
	res.Paths = filePaths(batch)
	metrics.ObserveCommit(len(batch))
	pub.logger.Info("Synced blog posts", zap.Int("files", len(batch)), zap.Int("skipped_posts", res.SkippedPosts))
	pub.notifyRun(ctx, notify.KindSync, len(batch))
	return res, nil
}

// notifyRun publishes a commit summary. Best effort: a notification failure
// never fails the publish.
func (pub *Publisher) notifyRun(ctx context.Context, kind string, files int) {
	event := notify.RunEvent{
		Kind:  kind,
		Files: files,
		At:    time.Now().UTC(),
	}
	if err := pub.notifier.Publish(ctx, event); err != nil {
		pub.logger.Warn("Failed to publish run notification", zap.Error(err))
	}
}

// changedPostFiles renders one post and returns the subset of its two files
// whose content differs from the repository. imageFailed reports an image
// download failure, which degrades the pair to markdown only.
func (pub *Publisher) changedPostFiles(ctx context.Context, post store.BlogPost) (files []gitrepo.File, imageFailed bool, err error) {
	author, err := pub.store.UserByID(ctx, post.AuthorID)
	if err != nil {
		return nil, false, fmt.Errorf("resolve author %s for post %s: %w", post.AuthorID, post.ID, err)
	}

	postDir := path.Join(pub.postsDir, post.ID)
	markdown := []byte(render.Markdown(post, author.Email))
	markdownPath := postDir + "/index.md"

	changed, err := pub.FileChanged(ctx, markdownPath, markdown)
	if err != nil {
		return nil, false, err
	}
	if changed {
		files = append(files, gitrepo.File{Path: markdownPath, Content: markdown})
	}

	image, ext, err := pub.fetchImage(ctx, post.ImageRef)
	if err != nil {
		pub.logger.Warn("Featured image fetch failed, publishing markdown only",
			zap.String("slug", post.ID), zap.String("url", post.ImageRef), zap.Error(err))
		return files, true, nil
	}

	imagePath := postDir + "/featured" + ext
	changed, err = pub.FileChanged(ctx, imagePath, image)
	if err != nil {
		return nil, false, err
	}
	if changed {
		files = append(files, gitrepo.File{Path: imagePath, Content: image})
	}
	return files, false, nil
}

// fetchImage downloads the featured image and derives its file extension from
// the declared media type.
func (pub *Publisher) fetchImage(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build image request: %w", err)
	}
	resp, err := pub.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch image: unexpected status %d", resp.StatusCode)
	}

	content, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read image body: %w", err)
	}
	return content, extensionFor(resp.Header.Get("Content-Type")), nil
}

// extensionFor maps a declared media type to a file extension, defaulting to
// .jpg for anything unrecognized.
func extensionFor(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ".jpg"
	}
	switch mediaType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

func filePaths(files []gitrepo.File) []string {
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths
}
