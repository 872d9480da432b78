package gitrepo

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/google/go-github/v62/github"
)

// GitHubRepository implements Repository against the GitHub Git Data API.
// Commits are built object by object (blobs, one tree, one commit) and the
// branch ref is advanced without force, so a concurrent writer causes a clean
// non-fast-forward rejection instead of clobbering history.
type GitHubRepository struct {
	client   *github.Client
	owner    string
	repo     string
	branch   string
	botName  string
	botEmail string
}

// NewGitHubRepository builds a client for one repository and branch. The bot
// identity is used as both author and committer on every commit.
func NewGitHubRepository(token, owner, repo, branch, botName, botEmail string) *GitHubRepository {
	return &GitHubRepository{
		client:   github.NewClient(nil).WithAuthToken(token),
		owner:    owner,
		repo:     repo,
		branch:   branch,
		botName:  botName,
		botEmail: botEmail,
	}
}

// NewGitHubRepositoryWithClient wires an existing client, typically one
// pointed at a test server.
func NewGitHubRepositoryWithClient(client *github.Client, owner, repo, branch, botName, botEmail string) *GitHubRepository {
	return &GitHubRepository{
		client:   client,
		owner:    owner,
		repo:     repo,
		branch:   branch,
		botName:  botName,
		botEmail: botEmail,
	}
}

// FileSHA looks up the blob SHA of path on the tracked branch. A missing path
// is not an error; it reports exists=false.
func (r *GitHubRepository) FileSHA(ctx context.Context, path string) (string, bool, error) {
	fc, _, resp, err := r.client.Repositories.GetContents(ctx, r.owner, r.repo, path,
		&github.RepositoryContentGetOptions{Ref: r.branch})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get contents of %s: %w", path, err)
	}
	if fc == nil {
		// The path names a directory; no single blob to compare against.
		return "", false, nil
	}
	return fc.GetSHA(), true, nil
}

// CommitFiles creates one commit containing every file and fast-forwards the
// branch to it.
func (r *GitHubRepository) CommitFiles(ctx context.Context, files []File, message string) error {
	if len(files) == 0 {
		return nil
	}

	ref, _, err := r.client.Git.GetRef(ctx, r.owner, r.repo, "heads/"+r.branch)
	if err != nil {
		return fmt.Errorf("get ref heads/%s: %w", r.branch, err)
	}
	headSHA := ref.Object.GetSHA()

	headCommit, _, err := r.client.Git.GetCommit(ctx, r.owner, r.repo, headSHA)
	if err != nil {
		return fmt.Errorf("get commit %s: %w", headSHA, err)
	}

	entries := make([]*github.TreeEntry, 0, len(files))
	for _, f := range files {
		// Base64 keeps binary content (featured images) intact.
		blob, _, err := r.client.Git.CreateBlob(ctx, r.owner, r.repo, &github.Blob{
			Content:  github.String(base64.StdEncoding.EncodeToString(f.Content)),
			Encoding: github.String("base64"),
		})
		if err != nil {
			return fmt.Errorf("create blob for %s: %w", f.Path, err)
		}
		entries = append(entries, &github.TreeEntry{
			Path: github.String(f.Path),
			Mode: github.String("100644"),
			Type: github.String("blob"),
			SHA:  blob.SHA,
		})
	}

	tree, _, err := r.client.Git.CreateTree(ctx, r.owner, r.repo, headCommit.Tree.GetSHA(), entries)
	if err != nil {
		return fmt.Errorf("create tree: %w", err)
	}

	author := &github.CommitAuthor{
		Name:  github.String(r.botName),
		Email: github.String(r.botEmail),
	}
	commit, _, err := r.client.Git.CreateCommit(ctx, r.owner, r.repo, &github.Commit{
		Message:   github.String(message),
		Tree:      tree,
		Parents:   []*github.Commit{{SHA: github.String(headSHA)}},
		Author:    author,
		Committer: author,
	}, nil)
	if err != nil {
		return fmt.Errorf("create commit: %w", err)
	}

	ref.Object.SHA = commit.SHA
	// force=false: the update is rejected unless the branch head is still
	// the parent this commit was built on.
	if _, resp, err := r.client.Git.UpdateRef(ctx, r.owner, r.repo, ref, false); err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnprocessableEntity {
			return fmt.Errorf("update ref heads/%s: %w", r.branch, ErrRefConflict)
		}
		return fmt.Errorf("update ref heads/%s: %w", r.branch, err)
	}
	return nil
}
