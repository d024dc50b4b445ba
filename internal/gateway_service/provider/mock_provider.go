package provider

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// MockClient is a simulated provider for development and testing. Instances
// live in memory; SendText succeeds with a generated external id unless
// FailSends is set.
type MockClient struct {
	logger *slog.Logger

	mu        sync.Mutex
	instances map[string]string // instance name -> state token

	FailSends bool
	Contacts  []ContactSnapshot
	Groups    []GroupSnapshot
	Chats     []ChatSnapshot
}

// NewMockClient creates an empty in-memory provider.
func NewMockClient(logger *slog.Logger) *MockClient {
	return &MockClient{
		logger:    logger.With("provider", "mock"),
		instances: make(map[string]string),
	}
}

func (m *MockClient) CreateInstance(ctx context.Context, instanceName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.instances[instanceName]; ok {
		return fmt.Errorf("instance %q already exists", instanceName)
	}
	m.instances[instanceName] = "close"
	return nil
}

func (m *MockClient) ConnectInstance(ctx context.Context, instanceName string) (*ConnectResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.instances[instanceName]; !ok {
		return nil, fmt.Errorf("instance %q not found", instanceName)
	}
	m.instances[instanceName] = "connecting"
	return &ConnectResult{QRCodeBase64: "data:image/png;base64,bW9jay1xcg==", State: "connecting"}, nil
}

func (m *MockClient) ConnectionState(ctx context.Context, instanceName string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.instances[instanceName]
	if !ok {
		return "", fmt.Errorf("instance %q not found", instanceName)
	}
	return state, nil
}

func (m *MockClient) LogoutInstance(ctx context.Context, instanceName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.instances[instanceName]; !ok {
		return fmt.Errorf("instance %q not found", instanceName)
	}
	m.instances[instanceName] = "close"
	return nil
}

func (m *MockClient) DeleteInstance(ctx context.Context, instanceName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.instances, instanceName)
	return nil
}

func (m *MockClient) FetchInstanceInfo(ctx context.Context, instanceName string) (*InstanceInfo, error) {
	return &InstanceInfo{
		ProfileName:  "Mock Account",
		OwnerJID:     "5511999999999@s.whatsapp.net",
		ContactCount: len(m.Contacts),
		ChatCount:    len(m.Chats),
	}, nil
}

func (m *MockClient) SetWebhook(ctx context.Context, instanceName, webhookURL string, events []string) error {
	m.logger.Info("Mock webhook registered", "instance", instanceName, "url", webhookURL, "events", len(events))
	return nil
}

func (m *MockClient) SendText(ctx context.Context, instanceName, remoteJID, text string) (*SendResult, error) {
	if m.FailSends {
		return nil, fmt.Errorf("mock send failure for %s", remoteJID)
	}
	return &SendResult{ExternalID: uuid.NewString(), Status: "PENDING"}, nil
}

func (m *MockClient) FindContacts(ctx context.Context, instanceName string) ([]ContactSnapshot, error) {
	return m.Contacts, nil
}

func (m *MockClient) FetchGroups(ctx context.Context, instanceName string) ([]GroupSnapshot, error) {
	return m.Groups, nil
}

func (m *MockClient) FindChats(ctx context.Context, instanceName string) ([]ChatSnapshot, error) {
	return m.Chats, nil
}

func (m *MockClient) FindMessages(ctx context.Context, instanceName, remoteJID string, limit int) ([]MessageSnapshot, error) {
	return nil, nil
}

func (m *MockClient) FetchProfilePicture(ctx context.Context, instanceName, remoteJID string) (string, error) {
	return "", nil
}
