package catalog

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// maxSearchResults is the hard cap on a single search page. The pipeline does
// not paginate: a window with more uploads than this silently drops the rest,
// which is acceptable for a channel that uploads a handful of videos a day.
const maxSearchResults = 50

// YouTubeProvider implements Provider against the YouTube Data API v3.
type YouTubeProvider struct {
	svc        *youtube.Service
	channelID  string
	maxResults int64
}

// NewYouTubeProvider builds a Data API client authenticated by API key.
// Extra options are appended after the key, so tests can redirect the client
// at a local server.
func NewYouTubeProvider(ctx context.Context, apiKey, channelID string, opts ...option.ClientOption) (*YouTubeProvider, error) {
	svc, err := youtube.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	return &YouTubeProvider{svc: svc, channelID: channelID, maxResults: maxSearchResults}, nil
}

// Search lists the channel's videos published after the given instant.
func (p *YouTubeProvider) Search(ctx context.Context, publishedAfter time.Time) ([]Video, error) {
	resp, err := p.svc.Search.List([]string{"snippet"}).
		ChannelId(p.channelID).
		Type("video").
		Order("date").
		PublishedAfter(publishedAfter.UTC().Format(time.RFC3339)).
		MaxResults(p.maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("youtube search: %w", err)
	}

	videos := make([]Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
			continue
		}
		publishedAt, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt)
		if err != nil {
			publishedAt = time.Time{}
		}
		videos = append(videos, Video{
			ID:          item.Id.VideoId,
			Title:       item.Snippet.Title,
			PublishedAt: publishedAt,
		})
	}
	return videos, nil
}

// Details batch-fetches full snippets, including descriptions, for ids.
func (p *YouTubeProvider) Details(ctx context.Context, ids []string) ([]Video, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	resp, err := p.svc.Videos.List([]string{"snippet"}).
		Id(ids...).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("youtube videos.list: %w", err)
	}

	videos := make([]Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Snippet == nil {
			continue
		}
		videos = append(videos, Video{
			ID:          item.Id,
			Title:       item.Snippet.Title,
			Description: item.Snippet.Description,
		})
	}
	return videos, nil
}
