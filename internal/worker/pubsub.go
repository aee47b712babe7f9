package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/secunit404/railpulse/internal/history"
)

// Job types carried in Pub/Sub messages.
const (
	JobTypeMonitorRun   = "monitor_run"
	JobTypePruneHistory = "prune_history"
)

// JobMessage is the payload of a worker Pub/Sub message.
type JobMessage struct {
	JobType   string `json:"job_type"`
	MonitorID string `json:"monitor_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}

// PubSubHandler consumes worker job messages, primarily on-demand monitor
// runs queued by the API.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	runJob           *RunJob
	history          *history.Service
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	RunJob           *RunJob
	History          *history.Service
	Logger           zerolog.Logger
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// Configure receive settings.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 10
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		runJob:           cfg.RunJob,
		history:          cfg.History,
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	startTime := time.Now()

	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	logger.Debug().Msg("received pubsub message")

	var job JobMessage
	if err := json.Unmarshal(msg.Data, &job); err != nil {
		logger.Error().Err(err).Msg("failed to parse message")
		msg.Nack()
		return
	}

	var err error
	switch job.JobType {
	case JobTypeMonitorRun:
		err = h.handleMonitorRun(ctx, job)
	case JobTypePruneHistory:
		err = h.handlePruneHistory(ctx)
	default:
		logger.Warn().Str("job_type", job.JobType).Msg("unknown job type")
		msg.Ack() // Ack unknown messages to prevent redelivery
		return
	}

	if err != nil {
		logger.Error().Err(err).Str("job_type", job.JobType).Msg("job failed")
		msg.Nack()
		return
	}

	logger.Info().
		Str("job_type", job.JobType).
		Dur("duration", time.Since(startTime)).
		Msg("job completed successfully")

	msg.Ack()
}

func (h *PubSubHandler) handleMonitorRun(ctx context.Context, job JobMessage) error {
	if job.MonitorID == "" {
		return fmt.Errorf("monitor_run message missing monitor_id")
	}

	h.logger.Info().
		Str("monitor_id", job.MonitorID).
		Str("user_id", job.UserID).
		Msg("running monitor on demand")

	return h.runJob.RunByID(ctx, job.MonitorID)
}

func (h *PubSubHandler) handlePruneHistory(ctx context.Context) error {
	if h.history == nil {
		return nil
	}
	return h.history.Prune(ctx)
}
