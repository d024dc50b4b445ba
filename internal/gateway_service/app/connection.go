package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/orbitalhq/wagateway/internal/gateway_service/domain"
	"github.com/orbitalhq/wagateway/internal/gateway_service/provider"
	"github.com/orbitalhq/wagateway/internal/gateway_service/repository"
)

// StatusForToken maps a provider session-state token onto the connection
// lifecycle. Tokens indicating a live session map to connected; everything
// else is disconnected.
func StatusForToken(token string) domain.ConnectionStatus {
	switch strings.ToLower(token) {
	case "open", "connected":
		return domain.ConnectionStatusConnected
	default:
		return domain.ConnectionStatusDisconnected
	}
}

// ConnectionManager tracks an inbox's connection lifecycle
// (pending -> connected <-> disconnected) and runs the on-connect side
// effects: clearing the stored QR payload and refreshing profile info from
// the provider.
type ConnectionManager struct {
	inboxes  repository.InboxRepository
	provider provider.Client
	logger   *slog.Logger
}

// NewConnectionManager creates a ConnectionManager.
func NewConnectionManager(inboxes repository.InboxRepository, providerClient provider.Client, logger *slog.Logger) *ConnectionManager {
	return &ConnectionManager{
		inboxes:  inboxes,
		provider: providerClient,
		logger:   logger.With("component", "connection_manager"),
	}
}

// HandleStateToken applies a provider state token to the inbox. The status
// update and the profile refresh are independent writes: a failed profile
// fetch is logged and never blocks the transition.
func (m *ConnectionManager) HandleStateToken(ctx context.Context, inbox *domain.Inbox, token string) error {
	target := StatusForToken(token)
	if target == inbox.Status {
		return nil
	}

	if err := m.inboxes.UpdateStatus(ctx, inbox.ID, target); err != nil {
		return fmt.Errorf("failed to update inbox status: %w", err)
	}
	connectionTransitionsCounter.WithLabelValues(string(target)).Inc()
	m.logger.InfoContext(ctx, "Inbox connection state changed",
		"inbox_id", inbox.ID, "from", inbox.Status, "to", target, "token", token)

	if target == domain.ConnectionStatusConnected {
		if err := m.inboxes.SetQRCode(ctx, inbox.ID, nil); err != nil {
			m.logger.WarnContext(ctx, "Failed to clear QR payload on connect",
				"inbox_id", inbox.ID, "error", err)
		}
		m.RefreshProfile(ctx, inbox)
	}
	return nil
}

// RefreshProfile fetches the provider's profile info for the inbox and
// stores it, renaming the inbox to "<profile name> - <formatted phone>"
// when both parts are known. Best-effort: failures are logged only.
func (m *ConnectionManager) RefreshProfile(ctx context.Context, inbox *domain.Inbox) {
	info, err := m.provider.FetchInstanceInfo(ctx, inbox.InstanceName)
	if err != nil {
		m.logger.WarnContext(ctx, "Profile refresh failed",
			"inbox_id", inbox.ID, "instance", inbox.InstanceName, "error", err)
		return
	}

	profile := domain.InboxProfile{
		ContactCount:      info.ContactCount,
		ConversationCount: info.ChatCount,
	}
	if info.ProfileName != "" {
		profile.Name = &info.ProfileName
	}
	if info.AvatarURL != "" {
		profile.AvatarURL = &info.AvatarURL
	}
	if info.OwnerJID != "" {
		profile.OwnerJID = &info.OwnerJID
	}

	var rename *string
	phone := formatPhoneFromJID(info.OwnerJID)
	if phone != "" {
		profile.PhoneNumber = &phone
		if info.ProfileName != "" {
			name := info.ProfileName + " - " + phone
			rename = &name
		}
	}

	if err := m.inboxes.UpdateProfile(ctx, inbox.ID, rename, profile); err != nil {
		m.logger.WarnContext(ctx, "Failed to store refreshed profile",
			"inbox_id", inbox.ID, "error", err)
	}
}

// formatPhoneFromJID turns "5511999999999@s.whatsapp.net" into
// "+5511999999999". Returns "" for group or malformed identifiers.
func formatPhoneFromJID(ownerJID string) string {
	if ownerJID == "" || strings.HasSuffix(ownerJID, domain.GroupJIDSuffix) {
		return ""
	}
	number := domain.FallbackNameFromJID(ownerJID)
	if number == "" {
		return ""
	}
	for _, r := range number {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return "+" + number
}
