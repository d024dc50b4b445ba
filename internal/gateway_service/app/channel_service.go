package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/orbitalhq/wagateway/internal/gateway_service/domain"
	"github.com/orbitalhq/wagateway/internal/gateway_service/provider"
	"github.com/orbitalhq/wagateway/internal/gateway_service/repository"
)

// webhookEvents is the provider event subscription registered for every
// channel.
var webhookEvents = []string{
	"QRCODE_UPDATED",
	"CONNECTION_UPDATE",
	"MESSAGES_UPSERT",
	"MESSAGES_UPDATE",
	"CHATS_UPSERT",
	"CHATS_UPDATE",
}

// ChannelService owns the inbox lifecycle against the provider: instance
// creation with webhook registration, pairing, state queries, logout and
// deletion.
type ChannelService struct {
	inboxes          repository.InboxRepository
	provider         provider.Client
	webhookPublicURL string
	webhookToken     string
	logger           *slog.Logger
}

// NewChannelService creates a ChannelService. webhookPublicURL is the base
// URL the provider will deliver events to; webhookToken (optional) is
// appended as a query parameter and checked on delivery.
func NewChannelService(
	inboxes repository.InboxRepository,
	providerClient provider.Client,
	webhookPublicURL, webhookToken string,
	logger *slog.Logger,
) *ChannelService {
	return &ChannelService{
		inboxes:          inboxes,
		provider:         providerClient,
		webhookPublicURL: webhookPublicURL,
		webhookToken:     webhookToken,
		logger:           logger.With("component", "channel_service"),
	}
}

// Provision creates the provider instance, registers the webhook, and
// persists the inbox. Webhook registration failure rolls back the provider
// instance and nothing is persisted locally.
func (s *ChannelService) Provision(ctx context.Context, organizationID, name, instanceName string) (*domain.Inbox, error) {
	if name == "" || instanceName == "" {
		return nil, fmt.Errorf("name and instance name are required")
	}

	if err := s.provider.CreateInstance(ctx, instanceName); err != nil {
		return nil, fmt.Errorf("failed to create provider instance: %w", err)
	}

	webhookURL := s.webhookPublicURL + "/webhooks/whatsapp/" + url.PathEscape(instanceName)
	if s.webhookToken != "" {
		webhookURL += "?token=" + url.QueryEscape(s.webhookToken)
	}
	if err := s.provider.SetWebhook(ctx, instanceName, webhookURL, webhookEvents); err != nil {
		// Roll back the orphaned provider instance; best effort.
		if delErr := s.provider.DeleteInstance(ctx, instanceName); delErr != nil {
			s.logger.ErrorContext(ctx, "Failed to delete provider instance after webhook registration failure",
				"instance", instanceName, "error", delErr)
		}
		return nil, fmt.Errorf("failed to register webhook: %w", err)
	}

	inbox, err := s.inboxes.Create(ctx, &domain.Inbox{
		OrganizationID: organizationID,
		Name:           name,
		ChannelType:    domain.ChannelTypeWhatsApp,
		InstanceName:   instanceName,
		Status:         domain.ConnectionStatusPending,
	})
	if err != nil {
		if delErr := s.provider.DeleteInstance(ctx, instanceName); delErr != nil {
			s.logger.ErrorContext(ctx, "Failed to delete provider instance after local create failure",
				"instance", instanceName, "error", delErr)
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "Channel provisioned", "inbox_id", inbox.ID, "instance", instanceName)
	return inbox, nil
}

// Connect asks the provider for a pairing QR payload and stores it on the
// inbox.
func (s *ChannelService) Connect(ctx context.Context, inboxID string) (*domain.Inbox, error) {
	inbox, err := s.inboxes.GetByID(ctx, inboxID)
	if err != nil {
		return nil, err
	}
	if inbox.InstanceName == "" {
		return nil, domain.ErrMissingInstanceName
	}

	result, err := s.provider.ConnectInstance(ctx, inbox.InstanceName)
	if err != nil {
		return nil, fmt.Errorf("failed to connect provider instance: %w", err)
	}
	if result.QRCodeBase64 != "" {
		qr := result.QRCodeBase64
		if err := s.inboxes.SetQRCode(ctx, inbox.ID, &qr); err != nil {
			return nil, err
		}
		inbox.QRCode = &qr
	}
	return inbox, nil
}

// State queries the provider's live connection state for the inbox.
func (s *ChannelService) State(ctx context.Context, inboxID string) (domain.ConnectionStatus, error) {
	inbox, err := s.inboxes.GetByID(ctx, inboxID)
	if err != nil {
		return "", err
	}
	if inbox.InstanceName == "" {
		return "", domain.ErrMissingInstanceName
	}
	token, err := s.provider.ConnectionState(ctx, inbox.InstanceName)
	if err != nil {
		return "", fmt.Errorf("failed to query connection state: %w", err)
	}
	return StatusForToken(token), nil
}

// Logout ends the provider session, keeping the inbox for re-pairing.
func (s *ChannelService) Logout(ctx context.Context, inboxID string) error {
	inbox, err := s.inboxes.GetByID(ctx, inboxID)
	if err != nil {
		return err
	}
	if inbox.InstanceName == "" {
		return domain.ErrMissingInstanceName
	}
	if err := s.provider.LogoutInstance(ctx, inbox.InstanceName); err != nil {
		return fmt.Errorf("failed to log out provider instance: %w", err)
	}
	return s.inboxes.UpdateStatus(ctx, inbox.ID, domain.ConnectionStatusDisconnected)
}

// Delete removes the provider instance and the local inbox. The provider
// call runs first; its failure aborts so no orphaned session keeps
// delivering webhooks for a deleted channel.
func (s *ChannelService) Delete(ctx context.Context, inboxID string) error {
	inbox, err := s.inboxes.GetByID(ctx, inboxID)
	if err != nil {
		return err
	}
	if inbox.InstanceName != "" {
		if err := s.provider.DeleteInstance(ctx, inbox.InstanceName); err != nil {
			return fmt.Errorf("failed to delete provider instance: %w", err)
		}
	}
	return s.inboxes.Delete(ctx, inbox.ID)
}
