package app

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/orbitalhq/wagateway/internal/gateway_service/domain"
	"github.com/orbitalhq/wagateway/internal/gateway_service/provider"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Repository mocks ---

type MockInboxRepository struct {
	mock.Mock
}

func (m *MockInboxRepository) Create(ctx context.Context, inbox *domain.Inbox) (*domain.Inbox, error) {
	args := m.Called(ctx, inbox)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Inbox), args.Error(1)
}

func (m *MockInboxRepository) GetByID(ctx context.Context, id string) (*domain.Inbox, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Inbox), args.Error(1)
}

func (m *MockInboxRepository) GetByInstanceName(ctx context.Context, instanceName string) (*domain.Inbox, error) {
	args := m.Called(ctx, instanceName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Inbox), args.Error(1)
}

func (m *MockInboxRepository) ListByOrganization(ctx context.Context, organizationID string) ([]*domain.Inbox, error) {
	args := m.Called(ctx, organizationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Inbox), args.Error(1)
}

func (m *MockInboxRepository) UpdateStatus(ctx context.Context, id string, status domain.ConnectionStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockInboxRepository) SetQRCode(ctx context.Context, id string, qrCode *string) error {
	args := m.Called(ctx, id, qrCode)
	return args.Error(0)
}

func (m *MockInboxRepository) UpdateProfile(ctx context.Context, id string, name *string, profile domain.InboxProfile) error {
	args := m.Called(ctx, id, name, profile)
	return args.Error(0)
}

func (m *MockInboxRepository) UpdateCounts(ctx context.Context, id string, contactCount, conversationCount int) error {
	args := m.Called(ctx, id, contactCount, conversationCount)
	return args.Error(0)
}

func (m *MockInboxRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockContactRepository struct {
	mock.Mock
}

func (m *MockContactRepository) Create(ctx context.Context, contact *domain.Contact) (*domain.Contact, error) {
	args := m.Called(ctx, contact)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contact), args.Error(1)
}

func (m *MockContactRepository) GetByID(ctx context.Context, id string) (*domain.Contact, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contact), args.Error(1)
}

func (m *MockContactRepository) GetByRemoteJID(ctx context.Context, inboxID, remoteJID string) (*domain.Contact, error) {
	args := m.Called(ctx, inboxID, remoteJID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contact), args.Error(1)
}

func (m *MockContactRepository) UpdateName(ctx context.Context, id, name string) error {
	args := m.Called(ctx, id, name)
	return args.Error(0)
}

func (m *MockContactRepository) UpdateAvatar(ctx context.Context, id, avatarURL string) error {
	args := m.Called(ctx, id, avatarURL)
	return args.Error(0)
}

func (m *MockContactRepository) CountByInbox(ctx context.Context, inboxID string) (int, error) {
	args := m.Called(ctx, inboxID)
	return args.Int(0), args.Error(1)
}

type MockConversationRepository struct {
	mock.Mock
}

func (m *MockConversationRepository) Create(ctx context.Context, conversation *domain.Conversation) (*domain.Conversation, error) {
	args := m.Called(ctx, conversation)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Conversation), args.Error(1)
}

func (m *MockConversationRepository) GetByID(ctx context.Context, id string) (*domain.Conversation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Conversation), args.Error(1)
}

func (m *MockConversationRepository) GetByContact(ctx context.Context, inboxID, contactID string) (*domain.Conversation, error) {
	args := m.Called(ctx, inboxID, contactID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Conversation), args.Error(1)
}

func (m *MockConversationRepository) TouchLastActivity(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockConversationRepository) CountByInbox(ctx context.Context, inboxID string) (int, error) {
	args := m.Called(ctx, inboxID)
	return args.Int(0), args.Error(1)
}

type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Create(ctx context.Context, message *domain.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockMessageRepository) ExistsByExternalID(ctx context.Context, externalID string) (bool, error) {
	args := m.Called(ctx, externalID)
	return args.Bool(0), args.Error(1)
}

func (m *MockMessageRepository) UpdateStatus(ctx context.Context, id string, status domain.MessageStatus, externalID *string) error {
	args := m.Called(ctx, id, status, externalID)
	return args.Error(0)
}

func (m *MockMessageRepository) UpdateStatusByExternalID(ctx context.Context, externalID string, status domain.MessageStatus) error {
	args := m.Called(ctx, externalID, status)
	return args.Error(0)
}

func (m *MockMessageRepository) ListByConversation(ctx context.Context, conversationID string, limit int) ([]*domain.Message, error) {
	args := m.Called(ctx, conversationID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Message), args.Error(1)
}

// --- Provider mock ---

type MockProviderClient struct {
	mock.Mock
}

func (m *MockProviderClient) CreateInstance(ctx context.Context, instanceName string) error {
	args := m.Called(ctx, instanceName)
	return args.Error(0)
}

func (m *MockProviderClient) ConnectInstance(ctx context.Context, instanceName string) (*provider.ConnectResult, error) {
	args := m.Called(ctx, instanceName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.ConnectResult), args.Error(1)
}

func (m *MockProviderClient) ConnectionState(ctx context.Context, instanceName string) (string, error) {
	args := m.Called(ctx, instanceName)
	return args.String(0), args.Error(1)
}

func (m *MockProviderClient) LogoutInstance(ctx context.Context, instanceName string) error {
	args := m.Called(ctx, instanceName)
	return args.Error(0)
}

func (m *MockProviderClient) DeleteInstance(ctx context.Context, instanceName string) error {
	args := m.Called(ctx, instanceName)
	return args.Error(0)
}

func (m *MockProviderClient) FetchInstanceInfo(ctx context.Context, instanceName string) (*provider.InstanceInfo, error) {
	args := m.Called(ctx, instanceName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.InstanceInfo), args.Error(1)
}

func (m *MockProviderClient) SetWebhook(ctx context.Context, instanceName, webhookURL string, events []string) error {
	args := m.Called(ctx, instanceName, webhookURL, events)
	return args.Error(0)
}

func (m *MockProviderClient) SendText(ctx context.Context, instanceName, remoteJID, text string) (*provider.SendResult, error) {
	args := m.Called(ctx, instanceName, remoteJID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.SendResult), args.Error(1)
}

func (m *MockProviderClient) FindContacts(ctx context.Context, instanceName string) ([]provider.ContactSnapshot, error) {
	args := m.Called(ctx, instanceName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.ContactSnapshot), args.Error(1)
}

func (m *MockProviderClient) FetchGroups(ctx context.Context, instanceName string) ([]provider.GroupSnapshot, error) {
	args := m.Called(ctx, instanceName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.GroupSnapshot), args.Error(1)
}

func (m *MockProviderClient) FindChats(ctx context.Context, instanceName string) ([]provider.ChatSnapshot, error) {
	args := m.Called(ctx, instanceName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.ChatSnapshot), args.Error(1)
}

func (m *MockProviderClient) FindMessages(ctx context.Context, instanceName, remoteJID string, limit int) ([]provider.MessageSnapshot, error) {
	args := m.Called(ctx, instanceName, remoteJID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.MessageSnapshot), args.Error(1)
}

func (m *MockProviderClient) FetchProfilePicture(ctx context.Context, instanceName, remoteJID string) (string, error) {
	args := m.Called(ctx, instanceName, remoteJID)
	return args.String(0), args.Error(1)
}
