// Package catalog defines the interface for the external video catalog the
// ingestion pipeline reads from.
package catalog

import (
	"context"
	"time"
)

// Video is one catalog item. Search results carry ID, Title and PublishedAt;
// Description is only populated by Details, which is the one call that
// returns full snippets.
type Video struct {
	ID          string
	Title       string
	Description string
	PublishedAt time.Time
}

// Provider is the common interface for a video catalog.
type Provider interface {
	// Search returns the channel's videos published strictly after the given
	// instant, ordered by publish date. Results are capped by the provider's
	// configured maximum (50 at most); items beyond the cap are dropped.
	Search(ctx context.Context, publishedAfter time.Time) ([]Video, error)

	// Details fetches full descriptions for the given video IDs in a single
	// batched request. An empty ID list is a no-op.
	Details(ctx context.Context, ids []string) ([]Video, error)
}
