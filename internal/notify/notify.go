// Package notify publishes run summaries to a message topic so downstream
// consumers (dashboards, chat hooks) can react to ingest and publish runs.
// The interface keeps the application independent of the broker.
package notify

import (
	"context"
	"time"
)

// Event kinds.
const (
	KindIngest = "ingest"
	KindSync   = "sync"
	KindPost   = "post"
)

// RunEvent summarizes one completed run.
type RunEvent struct {
	Kind     string    `json:"kind"`
	Found    int       `json:"found,omitempty"`
	Upserted int       `json:"upserted,omitempty"`
	Skipped  int       `json:"skipped,omitempty"`
	Files    int       `json:"files,omitempty"`
	At       time.Time `json:"at"`
}

// Provider is the common interface for a notification sink.
type Provider interface {
	// Publish sends one run event. Callers treat failures as best effort.
	Publish(ctx context.Context, event RunEvent) error

	// Close cleans up client connections.
	Close() error
}

// NoOpProvider discards every event. Used when no broker is configured.
type NoOpProvider struct{}

// Publish does nothing.
func (n *NoOpProvider) Publish(_ context.Context, _ RunEvent) error { return nil }

// Close does nothing.
func (n *NoOpProvider) Close() error { return nil }
