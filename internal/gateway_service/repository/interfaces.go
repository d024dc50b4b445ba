package repository

import (
	"context"
	"time"

	"github.com/orbitalhq/wagateway/internal/gateway_service/domain"
)

// InboxRepository persists provider connection instances.
type InboxRepository interface {
	Create(ctx context.Context, inbox *domain.Inbox) (*domain.Inbox, error)
	GetByID(ctx context.Context, id string) (*domain.Inbox, error)
	GetByInstanceName(ctx context.Context, instanceName string) (*domain.Inbox, error)
	ListByOrganization(ctx context.Context, organizationID string) ([]*domain.Inbox, error)
	UpdateStatus(ctx context.Context, id string, status domain.ConnectionStatus) error
	// SetQRCode stores a pairing payload; a nil value clears it.
	SetQRCode(ctx context.Context, id string, qrCode *string) error
	// UpdateProfile refreshes the provider-sourced profile fields. A non-nil
	// name also renames the inbox.
	UpdateProfile(ctx context.Context, id string, name *string, profile domain.InboxProfile) error
	UpdateCounts(ctx context.Context, id string, contactCount, conversationCount int) error
	Delete(ctx context.Context, id string) error
}

// ContactRepository persists remote identities. Create returns
// domain.ErrDuplicateContact when the (inbox, remote_jid) pair already exists.
type ContactRepository interface {
	Create(ctx context.Context, contact *domain.Contact) (*domain.Contact, error)
	GetByID(ctx context.Context, id string) (*domain.Contact, error)
	GetByRemoteJID(ctx context.Context, inboxID, remoteJID string) (*domain.Contact, error)
	UpdateName(ctx context.Context, id, name string) error
	UpdateAvatar(ctx context.Context, id, avatarURL string) error
	CountByInbox(ctx context.Context, inboxID string) (int, error)
}

// ConversationRepository persists threads. Create returns
// domain.ErrDuplicateConversation when the (inbox, contact) pair already
// exists.
type ConversationRepository interface {
	Create(ctx context.Context, conversation *domain.Conversation) (*domain.Conversation, error)
	GetByID(ctx context.Context, id string) (*domain.Conversation, error)
	GetByContact(ctx context.Context, inboxID, contactID string) (*domain.Conversation, error)
	// TouchLastActivity moves the thread's last-activity timestamp; it never
	// moves it backwards.
	TouchLastActivity(ctx context.Context, id string, at time.Time) error
	CountByInbox(ctx context.Context, inboxID string) (int, error)
}

// MessageRepository persists conversation content. Create returns
// domain.ErrDuplicateExternalID when a message with the same external
// identifier was already stored.
type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) error
	ExistsByExternalID(ctx context.Context, externalID string) (bool, error)
	UpdateStatus(ctx context.Context, id string, status domain.MessageStatus, externalID *string) error
	UpdateStatusByExternalID(ctx context.Context, externalID string, status domain.MessageStatus) error
	ListByConversation(ctx context.Context, conversationID string, limit int) ([]*domain.Message, error)
}
