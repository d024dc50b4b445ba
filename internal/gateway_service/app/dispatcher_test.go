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

func newDispatcherFixture() (*Dispatcher, *MockConversationRepository, *MockContactRepository, *MockInboxRepository, *MockMessageRepository, *MockProviderClient) {
	conversations := new(MockConversationRepository)
	contacts := new(MockContactRepository)
	inboxes := new(MockInboxRepository)
	messages := new(MockMessageRepository)
	providerClient := new(MockProviderClient)
	d := NewDispatcher(conversations, contacts, inboxes, messages, providerClient, newTestLogger())
	return d, conversations, contacts, inboxes, messages, providerClient
}

func dispatcherConversation() *domain.Conversation {
	return &domain.Conversation{ID: "conv-1", InboxID: "inbox-1", ContactID: "c-1"}
}

func TestSend_Success(t *testing.T) {
	d, conversations, contacts, inboxes, messages, providerClient := newDispatcherFixture()

	conversations.On("GetByID", mock.Anything, "conv-1").Return(dispatcherConversation(), nil)
	inboxes.On("GetByID", mock.Anything, "inbox-1").Return(testInbox(), nil)
	contacts.On("GetByID", mock.Anything, "c-1").
		Return(&domain.Contact{ID: "c-1", RemoteJID: "1@s.whatsapp.net"}, nil)
	messages.On("Create", mock.Anything, mock.MatchedBy(func(m *domain.Message) bool {
		return m.ConversationID == "conv-1" &&
			m.Direction == domain.DirectionOutgoing &&
			m.Status == domain.MessageStatusSending &&
			m.Content == "hi there"
	})).Return(nil)
	conversations.On("TouchLastActivity", mock.Anything, "conv-1", mock.Anything).Return(nil)
	providerClient.On("SendText", mock.Anything, "acme", "1@s.whatsapp.net", "hi there").
		Return(&provider.SendResult{ExternalID: "EXT1", Status: "PENDING"}, nil)
	messages.On("UpdateStatus", mock.Anything, mock.AnythingOfType("string"), domain.MessageStatusSent,
		mock.MatchedBy(func(id *string) bool { return id != nil && *id == "EXT1" })).Return(nil)

	message, err := d.Send(context.Background(), "conv-1", "hi there")
	require.NoError(t, err)
	assert.Equal(t, domain.MessageStatusSent, message.Status)
	require.NotNil(t, message.ExternalID)
	assert.Equal(t, "EXT1", *message.ExternalID)
	messages.AssertExpectations(t)
	providerClient.AssertExpectations(t)
}

func TestSend_ProviderFailureLeavesFailedRow(t *testing.T) {
	d, conversations, contacts, inboxes, messages, providerClient := newDispatcherFixture()

	conversations.On("GetByID", mock.Anything, "conv-1").Return(dispatcherConversation(), nil)
	inboxes.On("GetByID", mock.Anything, "inbox-1").Return(testInbox(), nil)
	contacts.On("GetByID", mock.Anything, "c-1").
		Return(&domain.Contact{ID: "c-1", RemoteJID: "1@s.whatsapp.net"}, nil)
	messages.On("Create", mock.Anything, mock.Anything).Return(nil)
	conversations.On("TouchLastActivity", mock.Anything, "conv-1", mock.Anything).Return(nil)
	providerClient.On("SendText", mock.Anything, "acme", "1@s.whatsapp.net", "hi").
		Return(nil, errors.New("provider unavailable"))
	messages.On("UpdateStatus", mock.Anything, mock.AnythingOfType("string"), domain.MessageStatusFailed,
		(*string)(nil)).Return(nil)

	message, err := d.Send(context.Background(), "conv-1", "hi")
	require.NoError(t, err)
	assert.Equal(t, domain.MessageStatusFailed, message.Status)
	messages.AssertExpectations(t)
}

func TestSend_EmptyExternalIDIsFailure(t *testing.T) {
	d, conversations, contacts, inboxes, messages, providerClient := newDispatcherFixture()

	conversations.On("GetByID", mock.Anything, "conv-1").Return(dispatcherConversation(), nil)
	inboxes.On("GetByID", mock.Anything, "inbox-1").Return(testInbox(), nil)
	contacts.On("GetByID", mock.Anything, "c-1").
		Return(&domain.Contact{ID: "c-1", RemoteJID: "1@s.whatsapp.net"}, nil)
	messages.On("Create", mock.Anything, mock.Anything).Return(nil)
	conversations.On("TouchLastActivity", mock.Anything, "conv-1", mock.Anything).Return(nil)
	providerClient.On("SendText", mock.Anything, "acme", "1@s.whatsapp.net", "hi").
		Return(&provider.SendResult{ExternalID: ""}, nil)
	messages.On("UpdateStatus", mock.Anything, mock.AnythingOfType("string"), domain.MessageStatusFailed,
		(*string)(nil)).Return(nil)

	message, err := d.Send(context.Background(), "conv-1", "hi")
	require.NoError(t, err)
	assert.Equal(t, domain.MessageStatusFailed, message.Status)
}

func TestSend_MissingInstanceName(t *testing.T) {
	d, conversations, _, inboxes, messages, _ := newDispatcherFixture()

	inbox := testInbox()
	inbox.InstanceName = ""
	conversations.On("GetByID", mock.Anything, "conv-1").Return(dispatcherConversation(), nil)
	inboxes.On("GetByID", mock.Anything, "inbox-1").Return(inbox, nil)

	_, err := d.Send(context.Background(), "conv-1", "hi")
	assert.ErrorIs(t, err, domain.ErrMissingInstanceName)
	messages.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSend_MissingRemoteJID(t *testing.T) {
	d, conversations, contacts, inboxes, messages, _ := newDispatcherFixture()

	conversations.On("GetByID", mock.Anything, "conv-1").Return(dispatcherConversation(), nil)
	inboxes.On("GetByID", mock.Anything, "inbox-1").Return(testInbox(), nil)
	contacts.On("GetByID", mock.Anything, "c-1").Return(&domain.Contact{ID: "c-1"}, nil)

	_, err := d.Send(context.Background(), "conv-1", "hi")
	assert.ErrorIs(t, err, domain.ErrMissingRemoteJID)
	messages.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSend_ConversationNotFound(t *testing.T) {
	d, conversations, _, _, _, _ := newDispatcherFixture()

	conversations.On("GetByID", mock.Anything, "missing").Return(nil, domain.ErrConversationNotFound)

	_, err := d.Send(context.Background(), "missing", "hi")
	assert.ErrorIs(t, err, domain.ErrConversationNotFound)
}
