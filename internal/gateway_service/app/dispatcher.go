package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/orbitalhq/wagateway/internal/gateway_service/domain"
	"github.com/orbitalhq/wagateway/internal/gateway_service/provider"
	"github.com/orbitalhq/wagateway/internal/gateway_service/repository"
)

// Dispatcher sends user-authored messages through the provider. The local
// row is written before the network call and is never rolled back: a failed
// send leaves a durable failed record instead of silent loss.
type Dispatcher struct {
	conversations repository.ConversationRepository
	contacts      repository.ContactRepository
	inboxes       repository.InboxRepository
	messages      repository.MessageRepository
	provider      provider.Client
	logger        *slog.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(
	conversations repository.ConversationRepository,
	contacts repository.ContactRepository,
	inboxes repository.InboxRepository,
	messages repository.MessageRepository,
	providerClient provider.Client,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		conversations: conversations,
		contacts:      contacts,
		inboxes:       inboxes,
		messages:      messages,
		provider:      providerClient,
		logger:        logger.With("component", "dispatcher"),
	}
}

// Send persists an outgoing message in the sending state, invokes the
// provider, and transitions the row to sent (with the provider's external
// identifier) or failed. The inbox must have an instance name and the
// contact a remote identifier; both are checked before any write.
func (d *Dispatcher) Send(ctx context.Context, conversationID, text string) (*domain.Message, error) {
	conversation, err := d.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	inbox, err := d.inboxes.GetByID(ctx, conversation.InboxID)
	if err != nil {
		return nil, err
	}
	if inbox.InstanceName == "" {
		return nil, domain.ErrMissingInstanceName
	}
	contact, err := d.contacts.GetByID(ctx, conversation.ContactID)
	if err != nil {
		return nil, err
	}
	if contact.RemoteJID == "" {
		return nil, domain.ErrMissingRemoteJID
	}

	message := &domain.Message{
		ConversationID: conversation.ID,
		Content:        text,
		Direction:      domain.DirectionOutgoing,
		Kind:           domain.ContentKindText,
		Status:         domain.MessageStatusSending,
		CreatedAt:      time.Now().UTC(),
	}
	if err := d.messages.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to persist outgoing message: %w", err)
	}

	// Activity is bumped once the local insert succeeds, independent of the
	// send outcome.
	if err := d.conversations.TouchLastActivity(ctx, conversation.ID, message.CreatedAt); err != nil {
		d.logger.WarnContext(ctx, "Failed to bump conversation activity for outgoing message",
			"conversation_id", conversation.ID, "error", err)
	}

	result, sendErr := d.provider.SendText(ctx, inbox.InstanceName, contact.RemoteJID, text)
	if sendErr != nil || result == nil || result.ExternalID == "" {
		if sendErr != nil {
			d.logger.ErrorContext(ctx, "Provider send failed",
				"conversation_id", conversation.ID, "message_id", message.ID, "error", sendErr)
		} else {
			d.logger.ErrorContext(ctx, "Provider send returned no external identifier",
				"conversation_id", conversation.ID, "message_id", message.ID)
		}
		if err := d.messages.UpdateStatus(ctx, message.ID, domain.MessageStatusFailed, nil); err != nil {
			d.logger.ErrorContext(ctx, "Failed to mark message failed",
				"message_id", message.ID, "error", err)
		}
		message.Status = domain.MessageStatusFailed
		outboundSendsCounter.WithLabelValues("failed").Inc()
		return message, nil
	}

	if err := d.messages.UpdateStatus(ctx, message.ID, domain.MessageStatusSent, &result.ExternalID); err != nil {
		d.logger.ErrorContext(ctx, "Failed to mark message sent",
			"message_id", message.ID, "error", err)
		return message, fmt.Errorf("message sent but status update failed: %w", err)
	}
	message.Status = domain.MessageStatusSent
	message.ExternalID = &result.ExternalID
	outboundSendsCounter.WithLabelValues("sent").Inc()
	return message, nil
}
