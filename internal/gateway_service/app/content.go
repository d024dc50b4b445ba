package app

import (
	"strings"

	"github.com/orbitalhq/wagateway/internal/gateway_service/domain"
	"github.com/orbitalhq/wagateway/internal/gateway_service/provider"
)

// Placeholder labels for non-text bodies.
const (
	placeholderImage    = "[Image]"
	placeholderVideo    = "[Video]"
	placeholderAudio    = "[Audio]"
	placeholderDocument = "[Document]"
	placeholderSticker  = "[Sticker]"
	placeholderContact  = "[Contact]"
	placeholderLocation = "[Location]"
)

// ExtractContent maps a provider message body to a display string and
// content kind. Precedence: plain conversation text, extended text, media
// caption, typed placeholder. Returns ok=false when the body has no
// recognized shape; such messages are not persisted.
func ExtractContent(body *provider.MessageBody) (content string, kind domain.ContentKind, ok bool) {
	if body == nil {
		return "", "", false
	}

	if text := strings.TrimSpace(body.Conversation); text != "" {
		return text, domain.ContentKindText, true
	}
	if body.ExtendedTextMessage != nil {
		if text := strings.TrimSpace(body.ExtendedTextMessage.Text); text != "" {
			return text, domain.ContentKindText, true
		}
	}

	switch {
	case body.ImageMessage != nil:
		return mediaContent(body.ImageMessage, placeholderImage), domain.ContentKindImage, true
	case body.VideoMessage != nil:
		return mediaContent(body.VideoMessage, placeholderVideo), domain.ContentKindVideo, true
	case body.AudioMessage != nil:
		return placeholderAudio, domain.ContentKindAudio, true
	case body.DocumentMessage != nil:
		if name := strings.TrimSpace(body.DocumentMessage.FileName); name != "" {
			return placeholderDocument + " " + name, domain.ContentKindDocument, true
		}
		return placeholderDocument, domain.ContentKindDocument, true
	case body.StickerMessage != nil:
		return placeholderSticker, domain.ContentKindSticker, true
	case body.ContactMessage != nil:
		if name := strings.TrimSpace(body.ContactMessage.DisplayName); name != "" {
			return placeholderContact + " " + name, domain.ContentKindContact, true
		}
		return placeholderContact, domain.ContentKindContact, true
	case body.LocationMessage != nil:
		return placeholderLocation, domain.ContentKindLocation, true
	}

	return "", "", false
}

// mediaContent prefers a caption over the placeholder label.
func mediaContent(media *provider.MediaAttachment, placeholder string) string {
	if caption := strings.TrimSpace(media.Caption); caption != "" {
		return caption
	}
	return placeholder
}
