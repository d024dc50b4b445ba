package domain

import "time"

// ConversationStatus is the thread state shown to agents.
type ConversationStatus string

const (
	ConversationStatusOpen     ConversationStatus = "open"
	ConversationStatusResolved ConversationStatus = "resolved"
)

// Conversation is the single thread between an inbox and a contact.
// Exactly one conversation exists per (inbox, contact) pair.
type Conversation struct {
	ID             string             `json:"id"`
	InboxID        string             `json:"inbox_id"`
	ContactID      string             `json:"contact_id"`
	OrganizationID string             `json:"organization_id"`
	Status         ConversationStatus `json:"status"`
	LastActivityAt time.Time          `json:"last_activity_at"`
	Labels         []string           `json:"labels,omitempty"`
	Archived       bool               `json:"archived"`
	Pinned         bool               `json:"pinned"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}
