package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/orbitalhq/wagateway/internal/gateway_service/domain"
	"github.com/orbitalhq/wagateway/internal/gateway_service/repository"
)

// EventProcessor applies normalized webhook events to the local model. It
// runs after the delivery has already been acknowledged, so every error here
// is logged and absorbed; the provider never sees processing failures.
type EventProcessor struct {
	inboxes    repository.InboxRepository
	messages   repository.MessageRepository
	resolver   *Resolver
	reconciler *Reconciler
	connection *ConnectionManager
	logger     *slog.Logger
}

// NewEventProcessor creates an EventProcessor.
func NewEventProcessor(
	inboxes repository.InboxRepository,
	messages repository.MessageRepository,
	resolver *Resolver,
	reconciler *Reconciler,
	connection *ConnectionManager,
	logger *slog.Logger,
) *EventProcessor {
	return &EventProcessor{
		inboxes:    inboxes,
		messages:   messages,
		resolver:   resolver,
		reconciler: reconciler,
		connection: connection,
		logger:     logger.With("component", "event_processor"),
	}
}

// Process routes one normalized event to its handler. Events lacking the
// fields needed to identify their inbox or message are dropped; drops are
// counted for observability rather than surfaced.
func (p *EventProcessor) Process(ctx context.Context, event *NormalizedEvent) error {
	webhookEventsCounter.WithLabelValues(string(event.Kind)).Inc()

	if event.Kind == EventUnrecognized {
		p.drop(ctx, event, "unrecognized event type")
		return nil
	}
	if event.Instance == "" {
		p.drop(ctx, event, "missing instance identifier")
		return nil
	}

	inbox, err := p.inboxes.GetByInstanceName(ctx, event.Instance)
	if err != nil {
		if errors.Is(err, domain.ErrInboxNotFound) {
			p.drop(ctx, event, "no inbox for instance")
			return nil
		}
		return err
	}

	switch event.Kind {
	case EventConnectionChanged:
		return p.connection.HandleStateToken(ctx, inbox, event.StateToken)
	case EventQRCodeIssued:
		return p.handleQRCode(ctx, inbox, event)
	case EventMessageReceived:
		return p.handleMessage(ctx, inbox, event)
	case EventMessageStatusChanged:
		p.handleStatusUpdates(ctx, event)
		return nil
	case EventChatMetadataChanged:
		p.handleChatMetadata(ctx, inbox, event)
		return nil
	}
	return nil
}

func (p *EventProcessor) handleQRCode(ctx context.Context, inbox *domain.Inbox, event *NormalizedEvent) error {
	if event.QRCodeBase64 == "" {
		p.drop(ctx, event, "QR event without payload")
		return nil
	}
	qr := event.QRCodeBase64
	return p.inboxes.SetQRCode(ctx, inbox.ID, &qr)
}

func (p *EventProcessor) handleMessage(ctx context.Context, inbox *domain.Inbox, event *NormalizedEvent) error {
	if event.RemoteJID == "" {
		p.drop(ctx, event, "message event without remote identifier")
		return nil
	}

	content, kind, ok := ExtractContent(event.Body)
	if !ok {
		p.drop(ctx, event, "no extractable content")
		return nil
	}

	// For group chats the contact is the group itself; the push name names
	// the participant, not the chat.
	nameHint := event.PushName
	if domain.KindForJID(event.RemoteJID) == domain.ContactKindGroup {
		nameHint = ""
	}

	contact, _, err := p.resolver.ResolveContact(ctx, inbox, event.RemoteJID, nameHint)
	if err != nil {
		return err
	}
	conversation, _, err := p.resolver.ResolveConversation(ctx, inbox, contact.ID)
	if err != nil {
		return err
	}

	direction := domain.DirectionIncoming
	status := domain.MessageStatusReceived
	if event.FromMe {
		direction = domain.DirectionOutgoing
		status = domain.MessageStatusSent
	}

	var externalID *string
	if event.ExternalID != "" {
		externalID = &event.ExternalID
	}
	var participant *string
	if event.ParticipantJID != "" {
		participant = &event.ParticipantJID
	}

	_, err = p.reconciler.Reconcile(ctx, ReconcileInput{
		ConversationID: conversation.ID,
		ExternalID:     externalID,
		Content:        content,
		Direction:      direction,
		Kind:           kind,
		Status:         status,
		ParticipantJID: participant,
		Timestamp:      MessageTime(event.Timestamp),
	})
	return err
}

func (p *EventProcessor) handleStatusUpdates(ctx context.Context, event *NormalizedEvent) {
	for _, update := range event.StatusUpdates {
		status, ok := statusFromToken(update.Token)
		if !ok {
			continue
		}
		err := p.messages.UpdateStatusByExternalID(ctx, update.ExternalID, status)
		if err != nil && !errors.Is(err, domain.ErrMessageNotFound) {
			p.logger.WarnContext(ctx, "Failed to apply message status update",
				"external_id", update.ExternalID, "status", status, "error", err)
		}
	}
}

func (p *EventProcessor) handleChatMetadata(ctx context.Context, inbox *domain.Inbox, event *NormalizedEvent) {
	for _, chat := range event.Chats {
		contact, _, err := p.resolver.ResolveContact(ctx, inbox, chat.RemoteJID, chat.Name)
		if err != nil {
			p.logger.WarnContext(ctx, "Failed to resolve contact from chat metadata",
				"remote_jid", chat.RemoteJID, "error", err)
			continue
		}
		if _, _, err := p.resolver.ResolveConversation(ctx, inbox, contact.ID); err != nil {
			p.logger.WarnContext(ctx, "Failed to resolve conversation from chat metadata",
				"contact_id", contact.ID, "error", err)
		}
	}
}

func (p *EventProcessor) drop(ctx context.Context, event *NormalizedEvent, reason string) {
	droppedEventsCounter.WithLabelValues(string(event.Kind)).Inc()
	p.logger.DebugContext(ctx, "Dropped webhook event",
		"kind", event.Kind, "instance", event.Instance, "reason", reason)
}

// statusFromToken maps provider acknowledgment tokens to delivery statuses.
func statusFromToken(token string) (domain.MessageStatus, bool) {
	switch strings.ToUpper(token) {
	case "SERVER_ACK":
		return domain.MessageStatusSent, true
	case "DELIVERY_ACK":
		return domain.MessageStatusDelivered, true
	case "READ", "READ_ACK":
		return domain.MessageStatusRead, true
	case "ERROR":
		return domain.MessageStatusFailed, true
	case "PENDING":
		return domain.MessageStatusPending, true
	default:
		return "", false
	}
}
