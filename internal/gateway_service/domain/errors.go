package domain

import "errors"

// Validation and precondition errors reported synchronously to callers.
// These are never retried.
var (
	ErrInboxNotFound        = errors.New("inbox not found")
	ErrContactNotFound      = errors.New("contact not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageNotFound      = errors.New("message not found")

	// Unique-constraint violations surfaced by the store. The resolvers and
	// the reconciler treat these as the canonical "already exists" signal
	// instead of trusting a preceding read.
	ErrDuplicateInstanceName = errors.New("provider instance name already in use")
	ErrDuplicateContact      = errors.New("contact already exists for this inbox and remote identifier")
	ErrDuplicateConversation = errors.New("conversation already exists for this inbox and contact")
	ErrDuplicateExternalID   = errors.New("message with this external identifier already exists")

	// ErrInboxNotConnected is returned when an operation requires a live
	// provider session (bulk sync, outbound send).
	ErrInboxNotConnected = errors.New("inbox is not connected")
	// ErrMissingInstanceName is returned when an inbox has no provider
	// instance bound to it.
	ErrMissingInstanceName = errors.New("inbox has no provider instance name")
	// ErrMissingRemoteJID is returned when the conversation's contact has no
	// provider address to send to.
	ErrMissingRemoteJID = errors.New("contact has no remote identifier")
)
