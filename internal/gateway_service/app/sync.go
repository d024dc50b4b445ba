package app

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/orbitalhq/wagateway/internal/gateway_service/domain"
	"github.com/orbitalhq/wagateway/internal/gateway_service/provider"
	"github.com/orbitalhq/wagateway/internal/gateway_service/repository"
)

// maxChatsPerSync bounds one sync pass to the most recent chats.
const maxChatsPerSync = 100

// messageBackfillLimit bounds the history fetched per chat when the chat
// snapshot carries no embedded last message.
const messageBackfillLimit = 25

// SyncReport is the aggregate outcome of one bulk sync pass.
type SyncReport struct {
	ContactsCreated      int `json:"contacts_created"`
	ConversationsCreated int `json:"conversations_created"`
	ChatsProcessed       int `json:"chats_processed"`
	MessagesInserted     int `json:"messages_inserted"`
}

// SyncOrchestrator pulls contact, group and chat snapshots from the
// provider and replays the resolver/reconciler logic in batch.
type SyncOrchestrator struct {
	inboxes       repository.InboxRepository
	contacts      repository.ContactRepository
	conversations repository.ConversationRepository
	provider      provider.Client
	resolver      *Resolver
	reconciler    *Reconciler
	logger        *slog.Logger
}

// NewSyncOrchestrator creates a SyncOrchestrator.
func NewSyncOrchestrator(
	inboxes repository.InboxRepository,
	contacts repository.ContactRepository,
	conversations repository.ConversationRepository,
	providerClient provider.Client,
	resolver *Resolver,
	reconciler *Reconciler,
	logger *slog.Logger,
) *SyncOrchestrator {
	return &SyncOrchestrator{
		inboxes:       inboxes,
		contacts:      contacts,
		conversations: conversations,
		provider:      providerClient,
		resolver:      resolver,
		reconciler:    reconciler,
		logger:        logger.With("component", "sync_orchestrator"),
	}
}

// Run executes one bulk sync pass for the inbox. The three snapshot fetches
// are independent: a failed fetch degrades to an empty list instead of
// aborting the pass. Provider calls run sequentially, so duration scales
// with snapshot size.
func (o *SyncOrchestrator) Run(ctx context.Context, inboxID string) (*SyncReport, error) {
	inbox, err := o.inboxes.GetByID(ctx, inboxID)
	if err != nil {
		return nil, err
	}
	if inbox.Status != domain.ConnectionStatusConnected {
		return nil, domain.ErrInboxNotConnected
	}
	if inbox.InstanceName == "" {
		return nil, domain.ErrMissingInstanceName
	}

	report := &SyncReport{}

	contacts, err := o.provider.FindContacts(ctx, inbox.InstanceName)
	if err != nil {
		o.logger.WarnContext(ctx, "Contact snapshot failed, skipping", "inbox_id", inbox.ID, "error", err)
		syncSnapshotFailuresCounter.WithLabelValues("contacts").Inc()
		contacts = nil
	}
	groups, err := o.provider.FetchGroups(ctx, inbox.InstanceName)
	if err != nil {
		o.logger.WarnContext(ctx, "Group snapshot failed, skipping", "inbox_id", inbox.ID, "error", err)
		syncSnapshotFailuresCounter.WithLabelValues("groups").Inc()
		groups = nil
	}
	chats, err := o.provider.FindChats(ctx, inbox.InstanceName)
	if err != nil {
		o.logger.WarnContext(ctx, "Chat snapshot failed, skipping", "inbox_id", inbox.ID, "error", err)
		syncSnapshotFailuresCounter.WithLabelValues("chats").Inc()
		chats = nil
	}

	o.syncContacts(ctx, inbox, contacts, report)
	o.syncGroups(ctx, inbox, groups, report)
	o.syncChats(ctx, inbox, chats, report)

	// Recount from the store rather than trusting incremented counters.
	contactCount, err := o.contacts.CountByInbox(ctx, inbox.ID)
	if err != nil {
		return report, fmt.Errorf("failed to count contacts: %w", err)
	}
	conversationCount, err := o.conversations.CountByInbox(ctx, inbox.ID)
	if err != nil {
		return report, fmt.Errorf("failed to count conversations: %w", err)
	}
	if err := o.inboxes.UpdateCounts(ctx, inbox.ID, contactCount, conversationCount); err != nil {
		return report, fmt.Errorf("failed to persist inbox counts: %w", err)
	}

	syncRunsCounter.Inc()
	o.logger.InfoContext(ctx, "Bulk sync finished",
		"inbox_id", inbox.ID,
		"contacts_created", report.ContactsCreated,
		"conversations_created", report.ConversationsCreated,
		"chats_processed", report.ChatsProcessed,
		"messages_inserted", report.MessagesInserted,
	)
	return report, nil
}

func (o *SyncOrchestrator) syncContacts(ctx context.Context, inbox *domain.Inbox, contacts []provider.ContactSnapshot, report *SyncReport) {
	for _, snapshot := range contacts {
		if snapshot.RemoteJID == "" || strings.HasSuffix(snapshot.RemoteJID, domain.GroupJIDSuffix) {
			continue
		}
		o.resolveEntry(ctx, inbox, snapshot.RemoteJID, snapshot.PushName, snapshot.ProfileURL, report)
	}
}

func (o *SyncOrchestrator) syncGroups(ctx context.Context, inbox *domain.Inbox, groups []provider.GroupSnapshot, report *SyncReport) {
	for _, snapshot := range groups {
		if !strings.HasSuffix(snapshot.GroupJID, domain.GroupJIDSuffix) {
			continue
		}
		o.resolveEntry(ctx, inbox, snapshot.GroupJID, snapshot.Subject, snapshot.PictureURL, report)
	}
}

// resolveEntry runs one snapshot entry through both resolvers, updating the
// report. Per-entry failures are logged and skipped so one bad record does
// not abort the batch.
func (o *SyncOrchestrator) resolveEntry(ctx context.Context, inbox *domain.Inbox, remoteJID, nameHint, avatarURL string, report *SyncReport) (*domain.Conversation, bool) {
	contact, created, err := o.resolver.ResolveContact(ctx, inbox, remoteJID, nameHint)
	if err != nil {
		o.logger.WarnContext(ctx, "Failed to resolve contact during sync",
			"inbox_id", inbox.ID, "remote_jid", remoteJID, "error", err)
		return nil, false
	}
	if created {
		report.ContactsCreated++
	}
	if created && avatarURL == "" {
		// Snapshot carried no picture; ask the provider directly for new
		// contacts only, so repeated syncs stay cheap.
		fetched, err := o.provider.FetchProfilePicture(ctx, inbox.InstanceName, remoteJID)
		if err != nil {
			o.logger.WarnContext(ctx, "Failed to fetch profile picture",
				"inbox_id", inbox.ID, "remote_jid", remoteJID, "error", err)
		} else {
			avatarURL = fetched
		}
	}
	if avatarURL != "" && (contact.AvatarURL == nil || *contact.AvatarURL != avatarURL) {
		if err := o.contacts.UpdateAvatar(ctx, contact.ID, avatarURL); err != nil {
			o.logger.WarnContext(ctx, "Failed to refresh contact avatar",
				"contact_id", contact.ID, "error", err)
		}
	}

	conversation, created, err := o.resolver.ResolveConversation(ctx, inbox, contact.ID)
	if err != nil {
		o.logger.WarnContext(ctx, "Failed to resolve conversation during sync",
			"inbox_id", inbox.ID, "contact_id", contact.ID, "error", err)
		return nil, false
	}
	if created {
		report.ConversationsCreated++
	}
	return conversation, true
}

func (o *SyncOrchestrator) syncChats(ctx context.Context, inbox *domain.Inbox, chats []provider.ChatSnapshot, report *SyncReport) {
	// Most recent first, bounded.
	sort.SliceStable(chats, func(i, j int) bool {
		return chatActivity(chats[i]) > chatActivity(chats[j])
	})
	if len(chats) > maxChatsPerSync {
		chats = chats[:maxChatsPerSync]
	}

	for _, chat := range chats {
		if chat.RemoteJID == "" {
			continue
		}
		conversation, ok := o.resolveEntry(ctx, inbox, chat.RemoteJID, chat.Name, "", report)
		if !ok {
			continue
		}
		report.ChatsProcessed++

		if chat.LastMessage != nil && chat.LastMessage.Message != nil {
			if o.reconcileSnapshotMessage(ctx, conversation, chat.LastMessage) {
				report.MessagesInserted++
			}
			continue
		}

		// No embedded last message: backfill recent history for the chat.
		history, err := o.provider.FindMessages(ctx, inbox.InstanceName, chat.RemoteJID, messageBackfillLimit)
		if err != nil {
			o.logger.WarnContext(ctx, "Message backfill failed for chat",
				"inbox_id", inbox.ID, "remote_jid", chat.RemoteJID, "error", err)
			history = nil
		}
		for i := range history {
			if history[i].Message == nil {
				continue
			}
			if o.reconcileSnapshotMessage(ctx, conversation, &history[i]) {
				report.MessagesInserted++
			}
		}
		if len(history) > 0 {
			continue
		}
		if chat.LastActivity > 0 {
			at := MessageTime(chat.LastActivity)
			if err := o.conversations.TouchLastActivity(ctx, conversation.ID, at); err != nil {
				o.logger.WarnContext(ctx, "Failed to bump conversation activity from chat snapshot",
					"conversation_id", conversation.ID, "error", err)
			}
		}
	}
}

func (o *SyncOrchestrator) reconcileSnapshotMessage(ctx context.Context, conversation *domain.Conversation, snapshot *provider.MessageSnapshot) bool {
	content, kind, ok := ExtractContent(snapshot.Message)
	if !ok {
		return false
	}

	direction := domain.DirectionIncoming
	status := domain.MessageStatusReceived
	if snapshot.Key.FromMe {
		direction = domain.DirectionOutgoing
		status = domain.MessageStatusSent
	}

	var externalID *string
	if snapshot.Key.ID != "" {
		externalID = &snapshot.Key.ID
	}
	var participant *string
	if snapshot.Key.Participant != "" {
		participant = &snapshot.Key.Participant
	}

	inserted, err := o.reconciler.Reconcile(ctx, ReconcileInput{
		ConversationID: conversation.ID,
		ExternalID:     externalID,
		Content:        content,
		Direction:      direction,
		Kind:           kind,
		Status:         status,
		ParticipantJID: participant,
		Timestamp:      MessageTime(snapshot.MessageTimestamp),
	})
	if err != nil {
		o.logger.WarnContext(ctx, "Failed to reconcile chat snapshot message",
			"conversation_id", conversation.ID, "error", err)
		return false
	}
	return inserted
}

func chatActivity(chat provider.ChatSnapshot) int64 {
	if chat.LastMessage != nil && chat.LastMessage.MessageTimestamp > 0 {
		return chat.LastMessage.MessageTimestamp
	}
	return chat.LastActivity
}
