package domain

import "time"

// MessageDirection tells whether a message was received from or sent to
// the remote party.
type MessageDirection string

const (
	DirectionIncoming MessageDirection = "incoming"
	DirectionOutgoing MessageDirection = "outgoing"
)

// MessageStatus is the delivery state of a message. Incoming messages are
// stored as received; outgoing messages move sending -> sent/failed on the
// provider call result and may later advance to delivered/read via status
// events.
type MessageStatus string

const (
	MessageStatusReceived  MessageStatus = "received"
	MessageStatusPending   MessageStatus = "pending"
	MessageStatusSending   MessageStatus = "sending"
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusRead      MessageStatus = "read"
	MessageStatusFailed    MessageStatus = "failed"
)

// ContentKind is the provider body type a message was extracted from.
type ContentKind string

const (
	ContentKindText     ContentKind = "text"
	ContentKindImage    ContentKind = "image"
	ContentKindVideo    ContentKind = "video"
	ContentKindAudio    ContentKind = "audio"
	ContentKindDocument ContentKind = "document"
	ContentKindSticker  ContentKind = "sticker"
	ContentKindContact  ContentKind = "contact"
	ContentKindLocation ContentKind = "location"
)

// Message is one unit of conversation content. ExternalID is the provider's
// own message identifier and, when present, is unique across all messages;
// it is the idempotency key for reconciliation. ParticipantJID identifies
// the sub-sender inside a group chat and is empty otherwise.
type Message struct {
	ID             string           `json:"id"`
	ConversationID string           `json:"conversation_id"`
	Content        string           `json:"content"`
	Direction      MessageDirection `json:"direction"`
	Kind           ContentKind      `json:"kind"`
	Status         MessageStatus    `json:"status"`
	ExternalID     *string          `json:"external_id,omitempty"`
	ParticipantJID *string          `json:"participant_jid,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}
