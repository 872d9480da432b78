// Package store defines the interface for the team database: users and blog
// posts owned by the website, and the track time records this service writes.
// An interface decouples callers from the concrete engine and lets tests run
// against mocks.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = errors.New("store: record not found")

// User is an externally owned account record. Read-only for this service.
type User struct {
	ID    string
	Email string
}

// BlogPost is an externally owned post record. Read-only for this service;
// ID doubles as the URL-safe slug for the published post directory.
type BlogPost struct {
	ID        string
	Title     string
	CreatedAt time.Time
	AuthorID  string
	Content   string
	ImageRef  string
}

// TrackTime is one validated lap time submission. Proof is the canonical
// video URL and the natural key: exactly one record exists per proof URL,
// and re-ingesting the same proof overwrites every other field.
type TrackTime struct {
	Track         string
	Configuration string
	Date          time.Time
	Car           string
	Tag           string
	Seconds       float64
	Proof         string
	UserID        string
}

// Provider is the common interface for the team database.
type Provider interface {
	// UpsertTrackTime inserts or updates a track time record keyed by its
	// proof URL (last write wins).
	UpsertTrackTime(ctx context.Context, tt TrackTime) error

	// UserByEmail finds a user by exact, case-insensitive email match.
	// Returns ErrNotFound when no user matches.
	UserByEmail(ctx context.Context, email string) (User, error)

	// UserByID finds a user by ID. Returns ErrNotFound when absent.
	UserByID(ctx context.Context, id string) (User, error)

	// BlogPost fetches a single post by ID. Returns ErrNotFound when absent.
	BlogPost(ctx context.Context, id string) (BlogPost, error)

	// ListBlogPosts returns every blog post.
	ListBlogPosts(ctx context.Context) ([]BlogPost, error)

	// Close releases the underlying connections.
	Close() error
}

// NoOpProvider is a store that holds nothing. Useful for local runs and tests
// that never touch the database.
type NoOpProvider struct{}

// UpsertTrackTime does nothing.
func (n *NoOpProvider) UpsertTrackTime(_ context.Context, _ TrackTime) error { return nil }

// UserByEmail always reports not found.
func (n *NoOpProvider) UserByEmail(_ context.Context, _ string) (User, error) {
	return User{}, ErrNotFound
}

// UserByID always reports not found.
func (n *NoOpProvider) UserByID(_ context.Context, _ string) (User, error) {
	return User{}, ErrNotFound
}

// BlogPost always reports not found.
func (n *NoOpProvider) BlogPost(_ context.Context, _ string) (BlogPost, error) {
	return BlogPost{}, ErrNotFound
}

// ListBlogPosts returns no posts.
func (n *NoOpProvider) ListBlogPosts(_ context.Context) ([]BlogPost, error) { return nil, nil }

// Close does nothing.
func (n *NoOpProvider) Close() error { return nil }
