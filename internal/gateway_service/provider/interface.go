package provider

import "context"

// MessageKey identifies a message on the provider side.
type MessageKey struct {
	RemoteJID   string `json:"remoteJid"`
	FromMe      bool   `json:"fromMe"`
	ID          string `json:"id"`
	Participant string `json:"participant,omitempty"`
}

// MediaAttachment is the common shape of the provider's media body variants.
type MediaAttachment struct {
	URL      string `json:"url,omitempty"`
	MimeType string `json:"mimetype,omitempty"`
	Caption  string `json:"caption,omitempty"`
	FileName string `json:"fileName,omitempty"`
}

// ContactCard is the provider's contact-card body.
type ContactCard struct {
	DisplayName string `json:"displayName,omitempty"`
	VCard       string `json:"vcard,omitempty"`
}

// Location is the provider's location body.
type Location struct {
	Latitude  float64 `json:"degreesLatitude,omitempty"`
	Longitude float64 `json:"degreesLongitude,omitempty"`
	Name      string  `json:"name,omitempty"`
}

// ExtendedText is the provider's extended-text body (links, quotes).
type ExtendedText struct {
	Text string `json:"text,omitempty"`
}

// MessageBody is the provider's typed message body. Exactly one variant is
// normally populated; the content extractor resolves which.
type MessageBody struct {
	Conversation        string           `json:"conversation,omitempty"`
	ExtendedTextMessage *ExtendedText    `json:"extendedTextMessage,omitempty"`
	ImageMessage        *MediaAttachment `json:"imageMessage,omitempty"`
	VideoMessage        *MediaAttachment `json:"videoMessage,omitempty"`
	AudioMessage        *MediaAttachment `json:"audioMessage,omitempty"`
	DocumentMessage     *MediaAttachment `json:"documentMessage,omitempty"`
	StickerMessage      *MediaAttachment `json:"stickerMessage,omitempty"`
	ContactMessage      *ContactCard     `json:"contactMessage,omitempty"`
	LocationMessage     *Location        `json:"locationMessage,omitempty"`
}

// MessageSnapshot is one historical message as returned by the provider's
// chat history endpoints or embedded in a chat snapshot.
type MessageSnapshot struct {
	Key              MessageKey   `json:"key"`
	Message          *MessageBody `json:"message,omitempty"`
	PushName         string       `json:"pushName,omitempty"`
	MessageTimestamp int64        `json:"messageTimestamp,omitempty"`
}

// ContactSnapshot is one entry of the provider's contact list.
type ContactSnapshot struct {
	RemoteJID  string `json:"id"`
	PushName   string `json:"pushName,omitempty"`
	ProfileURL string `json:"profilePictureUrl,omitempty"`
}

// GroupSnapshot is one entry of the provider's group list.
type GroupSnapshot struct {
	GroupJID   string `json:"id"`
	Subject    string `json:"subject,omitempty"`
	PictureURL string `json:"pictureUrl,omitempty"`
}

// ChatSnapshot is one entry of the provider's chat list. LastMessage is only
// present when the provider embeds the chat's most recent message.
type ChatSnapshot struct {
	RemoteJID    string           `json:"id"`
	Name         string           `json:"name,omitempty"`
	LastMessage  *MessageSnapshot `json:"lastMessage,omitempty"`
	LastActivity int64            `json:"updatedAt,omitempty"`
}

// ConnectResult is the outcome of a connect call: a pairing QR payload and
// the provider's session state token.
type ConnectResult struct {
	QRCodeBase64 string
	State        string
}

// InstanceInfo bundles the profile data the provider reports for a
// connected instance.
type InstanceInfo struct {
	ProfileName  string
	AvatarURL    string
	OwnerJID     string
	ContactCount int
	ChatCount    int
}

// SendResult is the outcome of a successful text send.
type SendResult struct {
	ExternalID string
	Status     string
}

// Client is the messaging-instance provider API surface the gateway
// consumes. All calls are best-effort network operations; callers decide
// whether a failure aborts or degrades the operation at hand.
type Client interface {
	CreateInstance(ctx context.Context, instanceName string) error
	ConnectInstance(ctx context.Context, instanceName string) (*ConnectResult, error)
	ConnectionState(ctx context.Context, instanceName string) (string, error)
	LogoutInstance(ctx context.Context, instanceName string) error
	DeleteInstance(ctx context.Context, instanceName string) error
	FetchInstanceInfo(ctx context.Context, instanceName string) (*InstanceInfo, error)
	SetWebhook(ctx context.Context, instanceName, webhookURL string, events []string) error
	SendText(ctx context.Context, instanceName, remoteJID, text string) (*SendResult, error)
	FindContacts(ctx context.Context, instanceName string) ([]ContactSnapshot, error)
	FetchGroups(ctx context.Context, instanceName string) ([]GroupSnapshot, error)
	FindChats(ctx context.Context, instanceName string) ([]ChatSnapshot, error)
	FindMessages(ctx context.Context, instanceName, remoteJID string, limit int) ([]MessageSnapshot, error)
	FetchProfilePicture(ctx context.Context, instanceName, remoteJID string) (string, error)
}
