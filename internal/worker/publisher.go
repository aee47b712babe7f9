package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// RunPublisher queues on-demand monitor runs on the worker topic. The API
// uses it to answer run requests without blocking on the upstream fetch.
type RunPublisher struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
	topicName string
	logger    zerolog.Logger
}

// RunPublisherConfig holds configuration for the publisher.
type RunPublisherConfig struct {
	ProjectID string
	TopicName string
	Logger    zerolog.Logger
}

// NewRunPublisher creates a new run publisher.
func NewRunPublisher(ctx context.Context, cfg RunPublisherConfig) (*RunPublisher, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	return &RunPublisher{
		client:    client,
		publisher: client.Publisher(cfg.TopicName),
		topicName: cfg.TopicName,
		logger:    cfg.Logger,
	}, nil
}

// TriggerRun publishes a monitor_run message and waits for the broker ack.
func (p *RunPublisher) TriggerRun(ctx context.Context, userID, monitorID string) error {
	data, err := json.Marshal(JobMessage{
		JobType:   JobTypeMonitorRun,
		MonitorID: monitorID,
		UserID:    userID,
	})
	if err != nil {
		return fmt.Errorf("encoding run message: %w", err)
	}

	result := p.publisher.Publish(ctx, &pubsub.Message{Data: data})
	id, err := result.Get(ctx)
	if err != nil {
		return fmt.Errorf("publishing run message: %w", err)
	}

	p.logger.Debug().
		Str("message_id", id).
		Str("monitor_id", monitorID).
		Msg("queued monitor run")
	return nil
}

// Close stops the publisher and closes the client.
func (p *RunPublisher) Close() error {
	p.publisher.Stop()
	return p.client.Close()
}
