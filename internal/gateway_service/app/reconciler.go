package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/orbitalhq/wagateway/internal/gateway_service/domain"
	"github.com/orbitalhq/wagateway/internal/gateway_service/repository"
)

// ReconcileInput carries one inbound or historical message into the
// reconciler. ExternalID nil means the provider supplied no identifier
// (legacy or synthetic events); such messages are inserted unconditionally.
type ReconcileInput struct {
	ConversationID string
	ExternalID     *string
	Content        string
	Direction      domain.MessageDirection
	Kind           domain.ContentKind
	Status         domain.MessageStatus
	ParticipantJID *string
	Timestamp      time.Time
}

// Reconciler persists messages at most once per external identifier and
// keeps the owning conversation's activity timestamp current.
type Reconciler struct {
	messages      repository.MessageRepository
	conversations repository.ConversationRepository
	logger        *slog.Logger
}

// NewReconciler creates a Reconciler.
func NewReconciler(
	messages repository.MessageRepository,
	conversations repository.ConversationRepository,
	logger *slog.Logger,
) *Reconciler {
	return &Reconciler{
		messages:      messages,
		conversations: conversations,
		logger:        logger.With("component", "reconciler"),
	}
}

// Reconcile inserts the message unless one with the same external
// identifier already exists, then bumps the conversation's last-activity
// timestamp to the message's timestamp. The check-then-insert sequence is
// not atomic: a concurrent delivery of the same identifier can pass the
// existence check, so the store's unique constraint is the real idempotency
// guard and its violation is mapped to the skip outcome.
func (r *Reconciler) Reconcile(ctx context.Context, in ReconcileInput) (inserted bool, err error) {
	if in.ExternalID != nil {
		exists, err := r.messages.ExistsByExternalID(ctx, *in.ExternalID)
		if err != nil {
			return false, fmt.Errorf("failed to check for existing message: %w", err)
		}
		if exists {
			messagesReconciledCounter.WithLabelValues("duplicate").Inc()
			return false, nil
		}
	}

	if in.Timestamp.IsZero() {
		in.Timestamp = time.Now().UTC()
	}
	if in.Status == "" {
		in.Status = domain.MessageStatusReceived
	}

	message := &domain.Message{
		ConversationID: in.ConversationID,
		Content:        in.Content,
		Direction:      in.Direction,
		Kind:           in.Kind,
		Status:         in.Status,
		ExternalID:     in.ExternalID,
		ParticipantJID: in.ParticipantJID,
		CreatedAt:      in.Timestamp,
	}
	if err := r.messages.Create(ctx, message); err != nil {
		if errors.Is(err, domain.ErrDuplicateExternalID) {
			messagesReconciledCounter.WithLabelValues("duplicate").Inc()
			return false, nil
		}
		return false, fmt.Errorf("failed to insert message: %w", err)
	}

	if err := r.conversations.TouchLastActivity(ctx, in.ConversationID, in.Timestamp); err != nil {
		// The message is already durable; a failed bump is logged, not
		// rolled back.
		r.logger.WarnContext(ctx, "Failed to bump conversation activity",
			"conversation_id", in.ConversationID, "error", err)
	}

	messagesReconciledCounter.WithLabelValues("inserted").Inc()
	return true, nil
}

// MessageTime converts provider epoch seconds to an absolute instant,
// falling back to processing time when absent.
func MessageTime(epochSeconds int64) time.Time {
	if epochSeconds <= 0 {
		return time.Now().UTC()
	}
	return time.Unix(epochSeconds, 0).UTC()
}
