package app

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/orbitalhq/wagateway/internal/gateway_service/provider"
)

// EventKind is the closed set of canonical webhook event variants.
type EventKind string

const (
	EventConnectionChanged    EventKind = "connection_changed"
	EventQRCodeIssued         EventKind = "qr_code_issued"
	EventMessageReceived      EventKind = "message_received"
	EventMessageStatusChanged EventKind = "message_status_changed"
	EventChatMetadataChanged  EventKind = "chat_metadata_changed"
	EventUnrecognized         EventKind = "unrecognized"
)

// StatusUpdate is one entry of a message-status event.
type StatusUpdate struct {
	ExternalID string
	RemoteJID  string
	Token      string
}

// ChatMetadata is one entry of a chat-metadata event.
type ChatMetadata struct {
	RemoteJID    string
	Name         string
	LastActivity int64
}

// NormalizedEvent is the canonical form of a raw webhook payload. Only the
// fields relevant to Kind are populated.
type NormalizedEvent struct {
	Kind     EventKind
	Instance string

	// EventConnectionChanged
	StateToken string

	// EventQRCodeIssued
	QRCodeBase64 string

	// EventMessageReceived
	RemoteJID      string
	FromMe         bool
	ExternalID     string
	ParticipantJID string
	PushName       string
	Timestamp      int64
	Body           *provider.MessageBody

	// EventMessageStatusChanged
	StatusUpdates []StatusUpdate

	// EventChatMetadataChanged
	Chats []ChatMetadata
}

// Field-name fallback orders for payload shapes that vary across provider
// versions. The first populated path wins.
var (
	eventTypePaths   = []string{"event", "type"}
	instancePaths    = []string{"data.instance", "instance", "instanceName", "instance_name"}
	statePaths       = []string{"data.state", "state", "data.status"}
	qrCodePaths      = []string{"data.qrcode.base64", "data.base64", "qrcode.base64", "base64"}
	remoteJIDPaths   = []string{"data.key.remoteJid", "data.key.remote_jid", "data.remoteJid", "data.remote_jid"}
	externalIDPaths  = []string{"data.key.id", "data.messageId", "data.message_id"}
	participantPaths = []string{"data.key.participant", "data.participant"}
	pushNamePaths    = []string{"data.pushName", "data.push_name"}
	timestampPaths   = []string{"data.messageTimestamp", "data.message_timestamp", "messageTimestamp"}
)

// NormalizeEvent converts a raw webhook payload into a NormalizedEvent.
// Unknown event tokens yield Kind == EventUnrecognized; malformed JSON is an
// error. Normalization has no side effects.
func NormalizeEvent(payload []byte) (*NormalizedEvent, error) {
	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("malformed webhook payload: %w", err)
	}

	event := &NormalizedEvent{
		Instance: lookupString(raw, instancePaths...),
	}

	switch strings.ToLower(lookupString(raw, eventTypePaths...)) {
	case "connection.update":
		event.Kind = EventConnectionChanged
		event.StateToken = lookupString(raw, statePaths...)
	case "qrcode.updated":
		event.Kind = EventQRCodeIssued
		event.QRCodeBase64 = lookupString(raw, qrCodePaths...)
	case "messages.upsert":
		event.Kind = EventMessageReceived
		event.RemoteJID = lookupString(raw, remoteJIDPaths...)
		event.FromMe = lookupBool(raw, "data.key.fromMe", "data.key.from_me")
		event.ExternalID = lookupString(raw, externalIDPaths...)
		event.ParticipantJID = lookupString(raw, participantPaths...)
		event.PushName = lookupString(raw, pushNamePaths...)
		event.Timestamp = lookupInt64(raw, timestampPaths...)
		event.Body = lookupMessageBody(raw, "data.message", "message")
	case "messages.update":
		event.Kind = EventMessageStatusChanged
		event.StatusUpdates = lookupStatusUpdates(raw, "data.updates", "updates", "data")
	case "chats.upsert", "chats.update":
		event.Kind = EventChatMetadataChanged
		event.Chats = lookupChats(raw, "data.chats", "chats", "data")
	default:
		event.Kind = EventUnrecognized
	}

	return event, nil
}

// lookup walks a dotted path through nested JSON objects.
func lookup(raw map[string]any, path string) (any, bool) {
	current := any(raw)
	for _, part := range strings.Split(path, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func lookupString(raw map[string]any, paths ...string) string {
	for _, path := range paths {
		if value, ok := lookup(raw, path); ok {
			if s, ok := value.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func lookupBool(raw map[string]any, paths ...string) bool {
	for _, path := range paths {
		if value, ok := lookup(raw, path); ok {
			if b, ok := value.(bool); ok {
				return b
			}
		}
	}
	return false
}

func lookupInt64(raw map[string]any, paths ...string) int64 {
	for _, path := range paths {
		value, ok := lookup(raw, path)
		if !ok {
			continue
		}
		switch v := value.(type) {
		case float64:
			return int64(v)
		case string:
			var n int64
			if _, err := fmt.Sscan(v, &n); err == nil {
				return n
			}
		}
	}
	return 0
}

// lookupMessageBody re-decodes a payload subtree into the provider's typed
// message body.
func lookupMessageBody(raw map[string]any, paths ...string) *provider.MessageBody {
	for _, path := range paths {
		value, ok := lookup(raw, path)
		if !ok {
			continue
		}
		data, err := json.Marshal(value)
		if err != nil {
			continue
		}
		var body provider.MessageBody
		if err := json.Unmarshal(data, &body); err != nil {
			continue
		}
		return &body
	}
	return nil
}

func lookupStatusUpdates(raw map[string]any, paths ...string) []StatusUpdate {
	for _, path := range paths {
		value, ok := lookup(raw, path)
		if !ok {
			continue
		}
		entries, ok := value.([]any)
		if !ok {
			continue
		}
		var updates []StatusUpdate
		for _, entry := range entries {
			obj, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			update := StatusUpdate{
				ExternalID: lookupString(obj, "key.id", "keyId", "messageId"),
				RemoteJID:  lookupString(obj, "key.remoteJid", "key.remote_jid", "remoteJid"),
				Token:      lookupString(obj, "status", "update.status"),
			}
			if update.ExternalID != "" {
				updates = append(updates, update)
			}
		}
		if len(updates) > 0 {
			return updates
		}
	}
	return nil
}

func lookupChats(raw map[string]any, paths ...string) []ChatMetadata {
	for _, path := range paths {
		value, ok := lookup(raw, path)
		if !ok {
			continue
		}
		entries, ok := value.([]any)
		if !ok {
			continue
		}
		var chats []ChatMetadata
		for _, entry := range entries {
			obj, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			chat := ChatMetadata{
				RemoteJID:    lookupString(obj, "id", "remoteJid", "remote_jid"),
				Name:         lookupString(obj, "name"),
				LastActivity: lookupInt64(obj, "lastMsgTimestamp", "updatedAt", "conversationTimestamp"),
			}
			if chat.RemoteJID != "" {
				chats = append(chats, chat)
			}
		}
		if len(chats) > 0 {
			return chats
		}
	}
	return nil
}
