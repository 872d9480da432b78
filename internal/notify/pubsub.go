package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
)

// PubSubProvider implements Provider on Google Cloud Pub/Sub, authenticating
// with Application Default Credentials.
type PubSubProvider struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

// NewPubSubProvider connects a client and verifies the topic exists.
func NewPubSubProvider(ctx context.Context, projectID, topicID string) (*PubSubProvider, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}

	topic := client.Topic(topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("check pubsub topic %s: %w", topicID, err)
	}
	if !exists {
		_ = client.Close()
		return nil, fmt.Errorf("pubsub topic %s does not exist in project %s", topicID, projectID)
	}

	return &PubSubProvider{client: client, topic: topic}, nil
}

// Publish sends the event as JSON. The send is asynchronous; the client
// batches and retries in the background, and we do not block on the result.
func (p *PubSubProvider) Publish(ctx context.Context, event RunEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal run event: %w", err)
	}
	p.topic.Publish(ctx, &pubsub.Message{Data: data})
	return nil
}

// Close flushes pending messages and closes the client.
func (p *PubSubProvider) Close() error {
	p.topic.Stop()
	if err := p.client.Close(); err != nil {
		return fmt.Errorf("close pubsub client: %w", err)
	}
	return nil
}
