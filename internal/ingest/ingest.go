// Package ingest pulls recent channel uploads from the video catalog, routes
// them by category, and turns lap time submissions into stored records.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/team-spiral-racing/tsr-ops/internal/catalog"
	"github.com/team-spiral-racing/tsr-ops/internal/metadata"
	"github.com/team-spiral-racing/tsr-ops/internal/metrics"
	"github.com/team-spiral-racing/tsr-ops/internal/notify"
	"github.com/team-spiral-racing/tsr-ops/internal/store"
)

// categorySeparator splits a video title into "<category> - <rest>". A title
// without the separator is its own category.
const categorySeparator = " - "

// Recognized categories.
const (
	CategoryTimeAttack = "Time Attack"
	CategoryRawFootage = "Raw Footage"
)

// Summary counts what one ingestion run did.
type Summary struct {
	Found    int `json:"found"`
	Upserted int `json:"upserted"`
	Skipped  int `json:"skipped"`
}

// handlerFunc processes all videos of one category.
type handlerFunc func(ctx context.Context, videos []catalog.Video, sum *Summary) error

// Orchestrator runs one trigger-to-completion ingestion pass.
type Orchestrator struct {
	catalog  catalog.Provider
	store    store.Provider
	notifier notify.Provider
	logger   *zap.Logger
	window   time.Duration
	handlers map[string]handlerFunc
	now      func() time.Time
}

// New builds an Orchestrator that looks back window from the current time on
// each run.
func New(cat catalog.Provider, st store.Provider, notifier notify.Provider, logger *zap.Logger, window time.Duration) *Orchestrator {
	metrics.Init()
	o := &Orchestrator{
		catalog:  cat,
		store:    st,
		notifier: notifier,
		logger:   logger,
		window:   window,
		now:      time.Now,
	}
	o.handlers = map[string]handlerFunc{
		CategoryTimeAttack: o.processTimeAttack,
		CategoryRawFootage: o.processRawFootage,
	}
	return o
}

// Run fetches the channel's uploads from the last window and dispatches each
// category to its handler. A single malformed video never aborts the run;
// catalog or store failures do.
func (o *Orchestrator) Run(ctx context.Context) (Summary, error) {
	publishedAfter := o.now().Add(-o.window)
	videos, err := o.catalog.Search(ctx, publishedAfter)
	if err != nil {
		return Summary{}, fmt.Errorf("search catalog: %w", err)
	}

	sum := Summary{Found: len(videos)}
	for category, items := range groupByCategory(videos) {
		handler, ok := o.handlers[category]
		if !ok {
			o.logger.Info("No handler for category, ignoring its videos",
				zap.String("category", category), zap.Int("videos", len(items)))
			for range items {
				metrics.ObserveIngestVideo(category, metrics.OutcomeUnhandled)
			}
			sum.Skipped += len(items)
			continue
		}
		if err := handler(ctx, items, &sum); err != nil {
			return sum, err
		}
	}

	o.notifyRun(ctx, sum)
	return sum, nil
}

// groupByCategory buckets videos by their title prefix.
func groupByCategory(videos []catalog.Video) map[string][]catalog.Video {
	grouped := map[string][]catalog.Video{}
	for _, v := range videos {
		category, _, _ := strings.Cut(v.Title, categorySeparator)
		grouped[category] = append(grouped[category], v)
	}
	return grouped
}

// processTimeAttack bulk-fetches full descriptions for the category, then
// validates and upserts each submission independently. Validation failures
// (missing block, bad field, unknown driver) skip the single video; store and
// catalog errors surface.
func (o *Orchestrator) processTimeAttack(ctx context.Context, videos []catalog.Video, sum *Summary) error {
	ids := make([]string, 0, len(videos))
	for _, v := range videos {
		ids = append(ids, v.ID)
	}

	details, err := o.catalog.Details(ctx, ids)
	if err != nil {
		return fmt.Errorf("fetch video details: %w", err)
	}

	for _, video := range details {
		meta := metadata.Extract(video.Description)
		if len(meta) == 0 {
			o.logger.Info("Skipped video: no metadata block found", zap.String("video_id", video.ID))
			metrics.ObserveIngestVideo(CategoryTimeAttack, metrics.OutcomeNoMetadata)
			sum.Skipped++
			continue
		}

		sub, err := metadata.ParseSubmission(meta, video.ID)
		if err != nil {
			o.logger.Warn("Skipped video: invalid metadata",
				zap.String("video_id", video.ID), zap.Error(err))
			metrics.ObserveIngestVideo(CategoryTimeAttack, metrics.OutcomeInvalid)
			sum.Skipped++
			continue
		}

		user, err := o.store.UserByEmail(ctx, sub.DriverEmail)
		if errors.Is(err, store.ErrNotFound) {
			o.logger.Warn("Skipped video: no user for driver email",
				zap.String("video_id", video.ID), zap.String("driver", sub.DriverEmail))
			metrics.ObserveIngestVideo(CategoryTimeAttack, metrics.OutcomeUnknownDriver)
			sum.Skipped++
			continue
		}
		if err != nil {
			return fmt.Errorf("look up driver %s: %w", sub.DriverEmail, err)
		}

		tt := store.TrackTime{
			Track:         sub.Track,
			Configuration: sub.Configuration,
			Date:          sub.Date,
			Car:           sub.Car,
			Tag:           sub.Tag,
			Seconds:       sub.Seconds,
			Proof:         sub.Proof,
			UserID:        user.ID,
		}
		if err := o.store.UpsertTrackTime(ctx, tt); err != nil {
			return fmt.Errorf("upsert track time for video %s: %w", video.ID, err)
		}

		o.logger.Info("Upserted track time",
			zap.String("track", tt.Track), zap.String("proof", tt.Proof))
		metrics.ObserveIngestVideo(CategoryTimeAttack, metrics.OutcomeUpserted)
		sum.Upserted++
	}
	return nil
}

// processRawFootage is a reserved extension point. Raw footage uploads are
// recognized so they do not show up as unhandled, but nothing is done with
// them yet.
func (o *Orchestrator) processRawFootage(_ context.Context, videos []catalog.Video, sum *Summary) error {
	o.logger.Info("Raw footage processing not implemented, ignoring videos", zap.Int("videos", len(videos)))
	for range videos {
		metrics.ObserveIngestVideo(CategoryRawFootage, metrics.OutcomeIgnored)
	}
	sum.Skipped += len(videos)
	return nil
}

// notifyRun publishes the run summary. Best effort: a notification failure
// never fails the run.
func (o *Orchestrator) notifyRun(ctx context.Context, sum Summary) {
	event := notify.RunEvent{
		Kind:     notify.KindIngest,
		Found:    sum.Found,
		Upserted: sum.Upserted,
		Skipped:  sum.Skipped,
		At:       o.now().UTC(),
	}
	if err := o.notifier.Publish(ctx, event); err != nil {
		o.logger.Warn("Failed to publish run notification", zap.Error(err))
	}
}
