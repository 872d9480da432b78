package gitrepo

import (
	"context"
	"sync"

	"github.com/team-spiral-racing/tsr-ops/internal/hash"
)

// MemoryRepository is an in-process Repository for local runs and tests. It
// tracks per-path content digests and a log of commit messages.
type MemoryRepository struct {
	mu      sync.Mutex
	files   map[string]string // path -> blob SHA
	commits []string          // commit messages, oldest first
}

// NewMemoryRepository returns an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{files: map[string]string{}}
}

// Seed stores content at path without recording a commit, mimicking state
// already present on the remote.
func (m *MemoryRepository) Seed(path string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = hash.BlobSHA(content)
}

// FileSHA implements Repository.
func (m *MemoryRepository) FileSHA(_ context.Context, path string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sha, ok := m.files[path]
	return sha, ok, nil
}

// CommitFiles implements Repository.
func (m *MemoryRepository) CommitFiles(_ context.Context, files []File, message string) error {
	if len(files) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range files {
		m.files[f.Path] = hash.BlobSHA(f.Content)
	}
	m.commits = append(m.commits, message)
	return nil
}

// Commits returns the recorded commit messages, oldest first.
func (m *MemoryRepository) Commits() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.commits))
	copy(out, m.commits)
	return out
}
