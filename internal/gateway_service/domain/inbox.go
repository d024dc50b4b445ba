package domain

import "time"

// ChannelTypeWhatsApp is the only channel type this gateway manages.
const ChannelTypeWhatsApp = "whatsapp"

// ConnectionStatus is the lifecycle state of an inbox's provider session.
type ConnectionStatus string

const (
	ConnectionStatusPending      ConnectionStatus = "pending"
	ConnectionStatusConnected    ConnectionStatus = "connected"
	ConnectionStatusDisconnected ConnectionStatus = "disconnected"
)

// Inbox represents one provider-managed connection instance.
// InstanceName is the provider-side session identifier and is unique
// across all inboxes.
type Inbox struct {
	ID             string           `json:"id"`
	OrganizationID string           `json:"organization_id"`
	Name           string           `json:"name"`
	ChannelType    string           `json:"channel_type"`
	InstanceName   string           `json:"instance_name"`
	Status         ConnectionStatus `json:"status"`
	// QRCode holds the last pairing payload (base64 image data) while the
	// session is waiting to be scanned; cleared on connect.
	QRCode *string `json:"qr_code,omitempty"`

	// Profile fields, populated after the session connects.
	ProfileName   *string `json:"profile_name,omitempty"`
	ProfileAvatar *string `json:"profile_avatar,omitempty"`
	PhoneNumber   *string `json:"phone_number,omitempty"`
	OwnerJID      *string `json:"owner_jid,omitempty"`

	ContactCount      int `json:"contact_count"`
	ConversationCount int `json:"conversation_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InboxProfile bundles the mutable profile attributes refreshed from the
// provider when a session connects.
type InboxProfile struct {
	Name              *string
	AvatarURL         *string
	PhoneNumber       *string
	OwnerJID          *string
	ContactCount      int
	ConversationCount int
}
