package app

import (
	"context"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/orbitalhq/wagateway/internal/platform/messagebroker"
)

// WebhookSubjectPrefix is the NATS subject tree carrying raw webhook
// deliveries; the last token is the provider instance name.
const WebhookSubjectPrefix = "whatsapp.webhook.raw"

// RawWebhookEvent is one acknowledged-but-unprocessed webhook delivery.
type RawWebhookEvent struct {
	Instance string
	Payload  []byte
}

// WebhookConsumer reads raw webhook deliveries off NATS and forwards them
// to the processing stage through a channel.
type WebhookConsumer struct {
	natsClient *messagebroker.NATSClient
	logger     *slog.Logger
	outputChan chan<- RawWebhookEvent
}

// NewWebhookConsumer creates a WebhookConsumer.
func NewWebhookConsumer(natsClient *messagebroker.NATSClient, logger *slog.Logger, outputChan chan<- RawWebhookEvent) *WebhookConsumer {
	return &WebhookConsumer{
		natsClient: natsClient,
		logger:     logger.With("component", "webhook_consumer"),
		outputChan: outputChan,
	}
}

// handleDelivery forwards one NATS delivery to the processing channel. The
// handoff never blocks the NATS callback: when the buffer is full the event
// is dropped and counted, and the provider's redelivery is relied on.
func (c *WebhookConsumer) handleDelivery(msg *nats.Msg) {
	webhookDeliveriesCounter.Inc()

	// Subject form: whatsapp.webhook.raw.<instance>
	var instance string
	if parts := strings.Split(msg.Subject, "."); len(parts) == 4 {
		instance = parts[3]
	}
	if instance == "" || instance == "*" || instance == ">" {
		c.logger.Warn("Webhook delivery on unexpected subject", "subject", msg.Subject)
		return
	}

	select {
	case c.outputChan <- RawWebhookEvent{Instance: instance, Payload: msg.Data}:
	default:
		droppedEventsCounter.WithLabelValues("buffer_full").Inc()
		c.logger.Error("Processor buffer full, dropping webhook delivery", "subject", msg.Subject)
	}
}

// StartConsuming subscribes to the webhook subject tree with a queue group
// and blocks until the context is cancelled.
func (c *WebhookConsumer) StartConsuming(ctx context.Context, subject, queueGroup string) error {
	c.logger.Info("Starting webhook NATS subscription", "subject", subject, "queue_group", queueGroup)
	return c.natsClient.SubscribeToSubjectWithQueue(ctx, subject, queueGroup, c.handleDelivery)
}

// ProcessLoop drains the channel, normalizing and applying each delivery.
// Runs until the context is cancelled. Processing errors are logged only:
// the delivery was already acknowledged and the provider will not retry.
func ProcessLoop(ctx context.Context, events <-chan RawWebhookEvent, processor *EventProcessor, logger *slog.Logger) error {
	for {
		select {
		case event := <-events:
			normalized, err := NormalizeEvent(event.Payload)
			if err != nil {
				logger.Error("Failed to normalize webhook payload",
					"instance", event.Instance, "error", err)
				continue
			}
			if normalized.Instance == "" {
				normalized.Instance = event.Instance
			}
			if err := processor.Process(ctx, normalized); err != nil {
				logger.Error("Failed to process webhook event",
					"instance", normalized.Instance, "kind", normalized.Kind, "error", err)
			}
		case <-ctx.Done():
			logger.Info("Webhook processor loop shutting down")
			return ctx.Err()
		}
	}
}
