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

type pgMessageRepository struct {
	db *pgxpool.Pool
}

// NewPgMessageRepository creates the PostgreSQL implementation of
// repository.MessageRepository. The messages table carries a partial unique
// index on external_id (WHERE external_id IS NOT NULL); Create maps its
// violation to domain.ErrDuplicateExternalID so the reconciler can treat it
// as the idempotent-skip outcome.
func NewPgMessageRepository(db *pgxpool.Pool) repository.MessageRepository {
	return &pgMessageRepository{db: db}
}

const messageColumns = `
	id, conversation_id, content, direction, kind, status, external_id, participant_jid, created_at`

func scanMessage(row pgx.Row) (*domain.Message, error) {
	var m domain.Message
	err := row.Scan(
		&m.ID, &m.ConversationID, &m.Content, &m.Direction, &m.Kind, &m.Status,
		&m.ExternalID, &m.ParticipantJID, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *pgMessageRepository) Create(ctx context.Context, message *domain.Message) error {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO messages (id, conversation_id, content, direction, kind, status, external_id, participant_jid, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		message.ID, message.ConversationID, message.Content, message.Direction, message.Kind,
		message.Status, message.ExternalID, message.ParticipantJID, message.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return domain.ErrDuplicateExternalID
		}
		return err
	}
	return nil
}

func (r *pgMessageRepository) ExistsByExternalID(ctx context.Context, externalID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM messages WHERE external_id = $1)`, externalID).Scan(&exists)
	return exists, err
}

func (r *pgMessageRepository) UpdateStatus(ctx context.Context, id string, status domain.MessageStatus, externalID *string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE messages SET status = $2, external_id = COALESCE($3, external_id) WHERE id = $1`,
		id, status, externalID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMessageNotFound
	}
	return nil
}

func (r *pgMessageRepository) UpdateStatusByExternalID(ctx context.Context, externalID string, status domain.MessageStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE messages SET status = $2 WHERE external_id = $1`,
		externalID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMessageNotFound
	}
	return nil
}

func (r *pgMessageRepository) ListByConversation(ctx context.Context, conversationID string, limit int) ([]*domain.Message, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE conversation_id = $1 ORDER BY created_at DESC LIMIT $2`,
		conversationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*domain.Message
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, rows.Err()
}
