package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/orbitalhq/wagateway/internal/gateway_service/domain"
	"github.com/orbitalhq/wagateway/internal/gateway_service/provider"
)

func newChannelFixture() (*ChannelService, *MockInboxRepository, *MockProviderClient) {
	inboxes := new(MockInboxRepository)
	providerClient := new(MockProviderClient)
	service := NewChannelService(inboxes, providerClient, "https://gw.example.com", "s3cret", newTestLogger())
	return service, inboxes, providerClient
}

func TestProvision_Success(t *testing.T) {
	service, inboxes, providerClient := newChannelFixture()

	providerClient.On("CreateInstance", mock.Anything, "acme").Return(nil)
	providerClient.On("SetWebhook", mock.Anything, "acme",
		"https://gw.example.com/webhooks/whatsapp/acme?token=s3cret", webhookEvents).Return(nil)
	inboxes.On("Create", mock.Anything, mock.MatchedBy(func(ib *domain.Inbox) bool {
		return ib.OrganizationID == "org-1" &&
			ib.Name == "Sales WhatsApp" &&
			ib.InstanceName == "acme" &&
			ib.Status == domain.ConnectionStatusPending
	})).Return(&domain.Inbox{ID: "inbox-new", InstanceName: "acme"}, nil)

	inbox, err := service.Provision(context.Background(), "org-1", "Sales WhatsApp", "acme")
	require.NoError(t, err)
	assert.Equal(t, "inbox-new", inbox.ID)
	providerClient.AssertExpectations(t)
	inboxes.AssertExpectations(t)
}

func TestProvision_EscapesWebhookToken(t *testing.T) {
	inboxes := new(MockInboxRepository)
	providerClient := new(MockProviderClient)
	service := NewChannelService(inboxes, providerClient, "https://gw.example.com", "s3c ret&x=1", newTestLogger())

	providerClient.On("CreateInstance", mock.Anything, "acme").Return(nil)
	providerClient.On("SetWebhook", mock.Anything, "acme",
		"https://gw.example.com/webhooks/whatsapp/acme?token=s3c+ret%26x%3D1", webhookEvents).Return(nil)
	inboxes.On("Create", mock.Anything, mock.Anything).
		Return(&domain.Inbox{ID: "inbox-new", InstanceName: "acme"}, nil)

	_, err := service.Provision(context.Background(), "org-1", "Sales", "acme")
	require.NoError(t, err)
	providerClient.AssertExpectations(t)
}

func TestProvision_RequiresNameAndInstance(t *testing.T) {
	service, _, providerClient := newChannelFixture()

	_, err := service.Provision(context.Background(), "org-1", "", "acme")
	assert.Error(t, err)
	_, err = service.Provision(context.Background(), "org-1", "Sales", "")
	assert.Error(t, err)
	providerClient.AssertNotCalled(t, "CreateInstance", mock.Anything, mock.Anything)
}

func TestProvision_WebhookFailureRollsBackInstance(t *testing.T) {
	service, inboxes, providerClient := newChannelFixture()

	providerClient.On("CreateInstance", mock.Anything, "acme").Return(nil)
	providerClient.On("SetWebhook", mock.Anything, "acme", mock.Anything, mock.Anything).
		Return(errors.New("webhook endpoint rejected"))
	providerClient.On("DeleteInstance", mock.Anything, "acme").Return(nil)

	_, err := service.Provision(context.Background(), "org-1", "Sales", "acme")
	require.Error(t, err)
	providerClient.AssertCalled(t, "DeleteInstance", mock.Anything, "acme")
	inboxes.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProvision_LocalCreateFailureRollsBackInstance(t *testing.T) {
	service, inboxes, providerClient := newChannelFixture()

	providerClient.On("CreateInstance", mock.Anything, "acme").Return(nil)
	providerClient.On("SetWebhook", mock.Anything, "acme", mock.Anything, mock.Anything).Return(nil)
	inboxes.On("Create", mock.Anything, mock.Anything).Return(nil, domain.ErrDuplicateInstanceName)
	providerClient.On("DeleteInstance", mock.Anything, "acme").Return(nil)

	_, err := service.Provision(context.Background(), "org-1", "Sales", "acme")
	assert.ErrorIs(t, err, domain.ErrDuplicateInstanceName)
	providerClient.AssertCalled(t, "DeleteInstance", mock.Anything, "acme")
}

func TestConnect_StoresQRCode(t *testing.T) {
	service, inboxes, providerClient := newChannelFixture()

	inboxes.On("GetByID", mock.Anything, "inbox-1").Return(testInbox(), nil)
	providerClient.On("ConnectInstance", mock.Anything, "acme").
		Return(&provider.ConnectResult{QRCodeBase64: "qr-payload", State: "connecting"}, nil)
	inboxes.On("SetQRCode", mock.Anything, "inbox-1",
		mock.MatchedBy(func(qr *string) bool { return qr != nil && *qr == "qr-payload" })).Return(nil)

	inbox, err := service.Connect(context.Background(), "inbox-1")
	require.NoError(t, err)
	require.NotNil(t, inbox.QRCode)
	assert.Equal(t, "qr-payload", *inbox.QRCode)
}

func TestConnect_NoQRCodeInResponse(t *testing.T) {
	service, inboxes, providerClient := newChannelFixture()

	inboxes.On("GetByID", mock.Anything, "inbox-1").Return(testInbox(), nil)
	providerClient.On("ConnectInstance", mock.Anything, "acme").
		Return(&provider.ConnectResult{State: "open"}, nil)

	inbox, err := service.Connect(context.Background(), "inbox-1")
	require.NoError(t, err)
	assert.Nil(t, inbox.QRCode)
	inboxes.AssertNotCalled(t, "SetQRCode", mock.Anything, mock.Anything, mock.Anything)
}

func TestState_MapsToken(t *testing.T) {
	service, inboxes, providerClient := newChannelFixture()

	inboxes.On("GetByID", mock.Anything, "inbox-1").Return(testInbox(), nil)
	providerClient.On("ConnectionState", mock.Anything, "acme").Return("open", nil)

	status, err := service.State(context.Background(), "inbox-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ConnectionStatusConnected, status)
}

func TestLogout_MarksDisconnected(t *testing.T) {
	service, inboxes, providerClient := newChannelFixture()

	inboxes.On("GetByID", mock.Anything, "inbox-1").Return(testInbox(), nil)
	providerClient.On("LogoutInstance", mock.Anything, "acme").Return(nil)
	inboxes.On("UpdateStatus", mock.Anything, "inbox-1", domain.ConnectionStatusDisconnected).Return(nil)

	err := service.Logout(context.Background(), "inbox-1")
	require.NoError(t, err)
	inboxes.AssertExpectations(t)
}

func TestDelete_ProviderFailureAborts(t *testing.T) {
	service, inboxes, providerClient := newChannelFixture()

	inboxes.On("GetByID", mock.Anything, "inbox-1").Return(testInbox(), nil)
	providerClient.On("DeleteInstance", mock.Anything, "acme").Return(errors.New("provider down"))

	err := service.Delete(context.Background(), "inbox-1")
	require.Error(t, err)
	inboxes.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDelete_RemovesProviderThenLocal(t *testing.T) {
	service, inboxes, providerClient := newChannelFixture()

	inboxes.On("GetByID", mock.Anything, "inbox-1").Return(testInbox(), nil)
	providerClient.On("DeleteInstance", mock.Anything, "acme").Return(nil)
	inboxes.On("Delete", mock.Anything, "inbox-1").Return(nil)

	err := service.Delete(context.Background(), "inbox-1")
	require.NoError(t, err)
	inboxes.AssertExpectations(t)
}
