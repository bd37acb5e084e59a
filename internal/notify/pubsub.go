package notify

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// NewPubSubFactory returns a Factory producing Pub/Sub-backed publishers.
// opts are passed through to the underlying client, allowing credential
// injection.
func NewPubSubFactory(opts ...option.ClientOption) Factory {
	return func(ctx context.Context, project string) (Publisher, error) {
		client, err := pubsub.NewClient(ctx, project, opts...)
		if err != nil {
			return nil, fmt.Errorf("notify: failed to create Pub/Sub client: %w", err)
		}
		return &PubSubPublisher{client: client}, nil
	}
}

// PubSubPublisher publishes messages to Pub/Sub topics in a single project.
type PubSubPublisher struct {
	client *pubsub.Client
}

// Publish sends data to the named topic and waits for the server to
// acknowledge it.
func (p *PubSubPublisher) Publish(ctx context.Context, topic string, data []byte) error {
	t := p.client.Topic(topic)
	defer t.Stop()

	result := t.Publish(ctx, &pubsub.Message{Data: data})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("notify: publish to %q failed: %w", topic, err)
	}
	return nil
}
