package domain

import (
	"strings"
	"time"
)

// ContactKind distinguishes individual chats from group chats.
type ContactKind string

const (
	ContactKindIndividual ContactKind = "individual"
	ContactKindGroup      ContactKind = "group"
)

// GroupJIDSuffix marks a remote identifier as a group per the provider's
// address convention ("<group-id>@g.us" vs "<number>@s.whatsapp.net").
const GroupJIDSuffix = "@g.us"

// Contact is a remote identity known to one inbox. RemoteJID is unique
// within an inbox.
type Contact struct {
	ID             string      `json:"id"`
	InboxID        string      `json:"inbox_id"`
	OrganizationID string      `json:"organization_id"`
	RemoteJID      string      `json:"remote_jid"`
	Name           string      `json:"name"`
	Kind           ContactKind `json:"kind"`
	AvatarURL      *string     `json:"avatar_url,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// KindForJID derives the contact kind from the identifier's suffix.
func KindForJID(remoteJID string) ContactKind {
	if strings.HasSuffix(remoteJID, GroupJIDSuffix) {
		return ContactKindGroup
	}
	return ContactKindIndividual
}

// FallbackNameFromJID strips the domain part of a remote identifier so a
// contact created without a display-name hint still gets a readable name.
func FallbackNameFromJID(remoteJID string) string {
	if idx := strings.IndexByte(remoteJID, '@'); idx > 0 {
		return remoteJID[:idx]
	}
	return remoteJID
}
