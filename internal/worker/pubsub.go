package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// PubSubHandler triggers dispatch runs from Pub/Sub messages. Cloud
// Scheduler publishes on a fixed cadence; the worker itself holds no
// schedule state.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	dispatchJob      *DispatchJob
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	DispatchJob      *DispatchJob
	Logger           zerolog.Logger
}

// TriggerMessage represents a job trigger message.
type TriggerMessage struct {
	JobType string `json:"job_type"`
}

// Job types accepted on the trigger subscription.
const (
	JobTypeAlertDispatch = "alert_dispatch"
	JobTypeHealthCheck   = "health_check"
)

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// One dispatch run at a time; a second trigger waits for the first.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 1
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		dispatchJob:      cfg.DispatchJob,
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing trigger messages.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub trigger handler")

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
		Logger()

	var trigger TriggerMessage
	if err := json.Unmarshal(msg.Data, &trigger); err != nil {
		logger.Error().Err(err).Msg("failed to parse trigger message")
		msg.Nack()
		return
	}

	switch trigger.JobType {
	case JobTypeAlertDispatch:
		result := h.dispatchJob.Run(ctx)
		if result.Err != nil {
			// Registry unreadable: nothing happened, redelivery is safe.
			logger.Error().Err(result.Err).Msg("dispatch run failed")
			msg.Nack()
			return
		}
	case JobTypeHealthCheck:
		logger.Debug().Msg("health check trigger")
	default:
		logger.Warn().Str("job_type", trigger.JobType).Msg("unknown job type")
		msg.Ack() // ack unknown messages to prevent redelivery
		return
	}

	logger.Info().
		Str("job_type", trigger.JobType).
		Dur("duration", time.Since(startTime)).
		Msg("trigger handled")
	msg.Ack()
}
