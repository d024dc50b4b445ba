package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/orbitalhq/wagateway/internal/gateway_service/domain"
)

func testInbox() *domain.Inbox {
	return &domain.Inbox{
		ID:             "inbox-1",
		OrganizationID: "org-1",
		InstanceName:   "acme",
		Status:         domain.ConnectionStatusConnected,
	}
}

func TestResolveContact_ExistingContact(t *testing.T) {
	contacts := new(MockContactRepository)
	conversations := new(MockConversationRepository)
	resolver := NewResolver(contacts, conversations, newTestLogger())

	existing := &domain.Contact{ID: "c-1", InboxID: "inbox-1", RemoteJID: "1@s.whatsapp.net", Name: "Maria"}
	contacts.On("GetByRemoteJID", mock.Anything, "inbox-1", "1@s.whatsapp.net").Return(existing, nil)

	contact, created, err := resolver.ResolveContact(context.Background(), testInbox(), "1@s.whatsapp.net", "")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "c-1", contact.ID)
	contacts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestResolveContact_NameRefresh(t *testing.T) {
	contacts := new(MockContactRepository)
	conversations := new(MockConversationRepository)
	resolver := NewResolver(contacts, conversations, newTestLogger())

	existing := &domain.Contact{ID: "c-1", InboxID: "inbox-1", RemoteJID: "1@s.whatsapp.net", Name: "old"}
	contacts.On("GetByRemoteJID", mock.Anything, "inbox-1", "1@s.whatsapp.net").Return(existing, nil)
	contacts.On("UpdateName", mock.Anything, "c-1", "Maria").Return(nil)

	contact, created, err := resolver.ResolveContact(context.Background(), testInbox(), "1@s.whatsapp.net", "Maria")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "Maria", contact.Name)
	contacts.AssertExpectations(t)
}

func TestResolveContact_CreatesWithFallbackName(t *testing.T) {
	contacts := new(MockContactRepository)
	conversations := new(MockConversationRepository)
	resolver := NewResolver(contacts, conversations, newTestLogger())

	contacts.On("GetByRemoteJID", mock.Anything, "inbox-1", "5511999999999@s.whatsapp.net").
		Return(nil, domain.ErrContactNotFound)
	contacts.On("Create", mock.Anything, mock.MatchedBy(func(c *domain.Contact) bool {
		return c.InboxID == "inbox-1" &&
			c.OrganizationID == "org-1" &&
			c.Name == "5511999999999" &&
			c.Kind == domain.ContactKindIndividual
	})).Return(&domain.Contact{ID: "c-new", Name: "5511999999999"}, nil)

	contact, created, err := resolver.ResolveContact(context.Background(), testInbox(), "5511999999999@s.whatsapp.net", "")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "c-new", contact.ID)
	contacts.AssertExpectations(t)
}

func TestResolveContact_GroupKind(t *testing.T) {
	contacts := new(MockContactRepository)
	conversations := new(MockConversationRepository)
	resolver := NewResolver(contacts, conversations, newTestLogger())

	contacts.On("GetByRemoteJID", mock.Anything, "inbox-1", "12036304@g.us").
		Return(nil, domain.ErrContactNotFound)
	contacts.On("Create", mock.Anything, mock.MatchedBy(func(c *domain.Contact) bool {
		return c.Kind == domain.ContactKindGroup && c.Name == "Team Chat"
	})).Return(&domain.Contact{ID: "c-group", Kind: domain.ContactKindGroup}, nil)

	_, created, err := resolver.ResolveContact(context.Background(), testInbox(), "12036304@g.us", "Team Chat")
	require.NoError(t, err)
	assert.True(t, created)
}

func TestResolveContact_LostCreateRace(t *testing.T) {
	contacts := new(MockContactRepository)
	conversations := new(MockConversationRepository)
	resolver := NewResolver(contacts, conversations, newTestLogger())

	winner := &domain.Contact{ID: "c-raced", InboxID: "inbox-1", RemoteJID: "1@s.whatsapp.net"}
	contacts.On("GetByRemoteJID", mock.Anything, "inbox-1", "1@s.whatsapp.net").
		Return(nil, domain.ErrContactNotFound).Once()
	contacts.On("Create", mock.Anything, mock.Anything).Return(nil, domain.ErrDuplicateContact)
	contacts.On("GetByRemoteJID", mock.Anything, "inbox-1", "1@s.whatsapp.net").
		Return(winner, nil).Once()

	contact, created, err := resolver.ResolveContact(context.Background(), testInbox(), "1@s.whatsapp.net", "")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "c-raced", contact.ID)
}

func TestResolveContact_LookupError(t *testing.T) {
	contacts := new(MockContactRepository)
	conversations := new(MockConversationRepository)
	resolver := NewResolver(contacts, conversations, newTestLogger())

	contacts.On("GetByRemoteJID", mock.Anything, "inbox-1", "1@s.whatsapp.net").
		Return(nil, errors.New("connection refused"))

	_, _, err := resolver.ResolveContact(context.Background(), testInbox(), "1@s.whatsapp.net", "")
	assert.Error(t, err)
}

func TestResolveConversation_Existing(t *testing.T) {
	contacts := new(MockContactRepository)
	conversations := new(MockConversationRepository)
	resolver := NewResolver(contacts, conversations, newTestLogger())

	existing := &domain.Conversation{ID: "conv-1", InboxID: "inbox-1", ContactID: "c-1"}
	conversations.On("GetByContact", mock.Anything, "inbox-1", "c-1").Return(existing, nil)

	conversation, created, err := resolver.ResolveConversation(context.Background(), testInbox(), "c-1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "conv-1", conversation.ID)
	conversations.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestResolveConversation_CreatesOpen(t *testing.T) {
	contacts := new(MockContactRepository)
	conversations := new(MockConversationRepository)
	resolver := NewResolver(contacts, conversations, newTestLogger())

	conversations.On("GetByContact", mock.Anything, "inbox-1", "c-1").
		Return(nil, domain.ErrConversationNotFound)
	conversations.On("Create", mock.Anything, mock.MatchedBy(func(cv *domain.Conversation) bool {
		return cv.InboxID == "inbox-1" &&
			cv.ContactID == "c-1" &&
			cv.OrganizationID == "org-1" &&
			cv.Status == domain.ConversationStatusOpen
	})).Return(&domain.Conversation{ID: "conv-new"}, nil)

	conversation, created, err := resolver.ResolveConversation(context.Background(), testInbox(), "c-1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "conv-new", conversation.ID)
	conversations.AssertExpectations(t)
}

func TestResolveConversation_LostCreateRace(t *testing.T) {
	contacts := new(MockContactRepository)
	conversations := new(MockConversationRepository)
	resolver := NewResolver(contacts, conversations, newTestLogger())

	winner := &domain.Conversation{ID: "conv-raced"}
	conversations.On("GetByContact", mock.Anything, "inbox-1", "c-1").
		Return(nil, domain.ErrConversationNotFound).Once()
	conversations.On("Create", mock.Anything, mock.Anything).Return(nil, domain.ErrDuplicateConversation)
	conversations.On("GetByContact", mock.Anything, "inbox-1", "c-1").Return(winner, nil).Once()

	conversation, created, err := resolver.ResolveConversation(context.Background(), testInbox(), "c-1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "conv-raced", conversation.ID)
}
