package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orbitalhq/wagateway/internal/gateway_service/domain"
	"github.com/orbitalhq/wagateway/internal/gateway_service/repository"
)

type pgConversationRepository struct {
	db *pgxpool.Pool
}

// NewPgConversationRepository creates the PostgreSQL implementation of
// repository.ConversationRepository.
func NewPgConversationRepository(db *pgxpool.Pool) repository.ConversationRepository {
	return &pgConversationRepository{db: db}
}

const conversationColumns = `
	id, inbox_id, contact_id, organization_id, status, last_activity_at,
	labels, archived, pinned, created_at, updated_at`

func scanConversation(row pgx.Row) (*domain.Conversation, error) {
	var cv domain.Conversation
	err := row.Scan(
		&cv.ID, &cv.InboxID, &cv.ContactID, &cv.OrganizationID, &cv.Status, &cv.LastActivityAt,
		&cv.Labels, &cv.Archived, &cv.Pinned, &cv.CreatedAt, &cv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &cv, nil
}

func (r *pgConversationRepository) Create(ctx context.Context, conversation *domain.Conversation) (*domain.Conversation, error) {
	if conversation.ID == "" {
		conversation.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	conversation.CreatedAt = now
	conversation.UpdatedAt = now
	if conversation.Status == "" {
		conversation.Status = domain.ConversationStatusOpen
	}
	if conversation.LastActivityAt.IsZero() {
		conversation.LastActivityAt = now
	}

	query := `
		INSERT INTO conversations (
			id, inbox_id, contact_id, organization_id, status, last_activity_at,
			labels, archived, pinned, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.Exec(ctx, query,
		conversation.ID, conversation.InboxID, conversation.ContactID, conversation.OrganizationID,
		conversation.Status, conversation.LastActivityAt,
		conversation.Labels, conversation.Archived, conversation.Pinned,
		conversation.CreatedAt, conversation.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, domain.ErrDuplicateConversation
		}
		return nil, err
	}
	return conversation, nil
}

func (r *pgConversationRepository) GetByID(ctx context.Context, id string) (*domain.Conversation, error) {
	row := r.db.QueryRow(ctx, `SELECT `+conversationColumns+` FROM conversations WHERE id = $1`, id)
	conversation, err := scanConversation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrConversationNotFound
	}
	return conversation, err
}

func (r *pgConversationRepository) GetByContact(ctx context.Context, inboxID, contactID string) (*domain.Conversation, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE inbox_id = $1 AND contact_id = $2`,
		inboxID, contactID)
	conversation, err := scanConversation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrConversationNotFound
	}
	return conversation, err
}

func (r *pgConversationRepository) TouchLastActivity(ctx context.Context, id string, at time.Time) error {
	// GREATEST keeps the timestamp monotonic under out-of-order deliveries.
	tag, err := r.db.Exec(ctx,
		`UPDATE conversations SET last_activity_at = GREATEST(last_activity_at, $2), updated_at = $3 WHERE id = $1`,
		id, at.UTC(), time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConversationNotFound
	}
	return nil
}

func (r *pgConversationRepository) CountByInbox(ctx context.Context, inboxID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM conversations WHERE inbox_id = $1`, inboxID).Scan(&count)
	return count, err
}
