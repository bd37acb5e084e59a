// Package notify publishes upload notifications to Pub/Sub. The downstream
// ingestion pipeline is meant to be triggered by a GCS event, but that
// trigger has proven unreliable, so the harness publishes an equivalent
// message itself. The notification is a side channel: the upload stage
// treats every publish failure as ignorable.
package notify

import "context"

// ObjectUploaded is the notification payload, matching the shape of a GCS
// object-finalize event as the ingestion pipeline consumes it.
type ObjectUploaded struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}

// Publisher sends a single message to a named topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, data []byte) error
}

// Factory returns a Publisher for the given cloud project. A nil Factory
// means notifications are disabled.
type Factory func(ctx context.Context, project string) (Publisher, error)
