package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/orbitalhq/wagateway/internal/gateway_service/domain"
	"github.com/orbitalhq/wagateway/internal/gateway_service/repository"
)

// Resolver finds-or-creates contacts and conversations with idempotent
// upsert semantics. Lookups are not trusted to prove absence: a concurrent
// create racing past the read surfaces as a unique violation, which the
// resolver treats as "already exists" and re-reads.
type Resolver struct {
	contacts      repository.ContactRepository
	conversations repository.ConversationRepository
	logger        *slog.Logger
}

// NewResolver creates a Resolver.
func NewResolver(
	contacts repository.ContactRepository,
	conversations repository.ConversationRepository,
	logger *slog.Logger,
) *Resolver {
	return &Resolver{
		contacts:      contacts,
		conversations: conversations,
		logger:        logger.With("component", "resolver"),
	}
}

// ResolveContact returns the contact for (inbox, remoteJID), creating it if
// absent. The kind is derived from the identifier suffix; nameHint refreshes
// the stored display name when non-empty and different. Safe to call
// redundantly with identical arguments.
func (r *Resolver) ResolveContact(ctx context.Context, inbox *domain.Inbox, remoteJID, nameHint string) (*domain.Contact, bool, error) {
	contact, err := r.contacts.GetByRemoteJID(ctx, inbox.ID, remoteJID)
	if err == nil {
		if nameHint != "" && nameHint != contact.Name {
			if err := r.contacts.UpdateName(ctx, contact.ID, nameHint); err != nil {
				return nil, false, fmt.Errorf("failed to refresh contact name: %w", err)
			}
			contact.Name = nameHint
		}
		return contact, false, nil
	}
	if !errors.Is(err, domain.ErrContactNotFound) {
		return nil, false, fmt.Errorf("failed to look up contact: %w", err)
	}

	name := nameHint
	if name == "" {
		name = domain.FallbackNameFromJID(remoteJID)
	}
	created, err := r.contacts.Create(ctx, &domain.Contact{
		InboxID:        inbox.ID,
		OrganizationID: inbox.OrganizationID,
		RemoteJID:      remoteJID,
		Name:           name,
		Kind:           domain.KindForJID(remoteJID),
	})
	if err == nil {
		contactsCreatedCounter.Inc()
		return created, true, nil
	}
	if errors.Is(err, domain.ErrDuplicateContact) {
		// Lost a create race; the row exists now.
		existing, readErr := r.contacts.GetByRemoteJID(ctx, inbox.ID, remoteJID)
		if readErr != nil {
			return nil, false, fmt.Errorf("failed to re-read contact after duplicate: %w", readErr)
		}
		return existing, false, nil
	}
	return nil, false, fmt.Errorf("failed to create contact: %w", err)
}

// ResolveConversation returns the single conversation for (inbox, contact),
// creating it with status open if absent. Existing conversations are never
// mutated here; activity timestamps are owned by the reconciler.
func (r *Resolver) ResolveConversation(ctx context.Context, inbox *domain.Inbox, contactID string) (*domain.Conversation, bool, error) {
	conversation, err := r.conversations.GetByContact(ctx, inbox.ID, contactID)
	if err == nil {
		return conversation, false, nil
	}
	if !errors.Is(err, domain.ErrConversationNotFound) {
		return nil, false, fmt.Errorf("failed to look up conversation: %w", err)
	}

	created, err := r.conversations.Create(ctx, &domain.Conversation{
		InboxID:        inbox.ID,
		ContactID:      contactID,
		OrganizationID: inbox.OrganizationID,
		Status:         domain.ConversationStatusOpen,
	})
	if err == nil {
		conversationsCreatedCounter.Inc()
		return created, true, nil
	}
	if errors.Is(err, domain.ErrDuplicateConversation) {
		existing, readErr := r.conversations.GetByContact(ctx, inbox.ID, contactID)
		if readErr != nil {
			return nil, false, fmt.Errorf("failed to re-read conversation after duplicate: %w", readErr)
		}
		return existing, false, nil
	}
	return nil, false, fmt.Errorf("failed to create conversation: %w", err)
}
