// Package gitrepo defines the interface for the remote content repository
// that published blog posts are committed into.
package gitrepo

import (
	"context"
	"errors"
)

// ErrRefConflict reports that the tracked branch advanced between reading its
// head and updating it. The commit that was built is abandoned and the branch
// is left unmoved; the caller may retry the whole operation.
var ErrRefConflict = errors.New("gitrepo: branch head moved during commit")

// File is one entry in a commit batch.
type File struct {
	Path    string
	Content []byte
}

// Repository abstracts the content repository's storage primitives.
type Repository interface {
	// FileSHA returns the content digest of path on the tracked branch, and
	// whether the path exists at all.
	FileSHA(ctx context.Context, path string) (sha string, exists bool, err error)

	// CommitFiles writes every file in one atomic commit on the tracked
	// branch. An empty batch is a no-op. The branch is advanced only if its
	// head is still the one observed at the start; otherwise ErrRefConflict
	// is returned and nothing moves.
	CommitFiles(ctx context.Context, files []File, message string) error
}
