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

const uniqueViolationCode = "23505"

type pgInboxRepository struct {
	db *pgxpool.Pool
}

// NewPgInboxRepository creates the PostgreSQL implementation of
// repository.InboxRepository.
func NewPgInboxRepository(db *pgxpool.Pool) repository.InboxRepository {
	return &pgInboxRepository{db: db}
}

const inboxColumns = `
	id, organization_id, name, channel_type, instance_name, status, qr_code,
	profile_name, profile_avatar, phone_number, owner_jid,
	contact_count, conversation_count, created_at, updated_at`

func scanInbox(row pgx.Row) (*domain.Inbox, error) {
	var ib domain.Inbox
	err := row.Scan(
		&ib.ID, &ib.OrganizationID, &ib.Name, &ib.ChannelType, &ib.InstanceName, &ib.Status, &ib.QRCode,
		&ib.ProfileName, &ib.ProfileAvatar, &ib.PhoneNumber, &ib.OwnerJID,
		&ib.ContactCount, &ib.ConversationCount, &ib.CreatedAt, &ib.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ib, nil
}

func (r *pgInboxRepository) Create(ctx context.Context, inbox *domain.Inbox) (*domain.Inbox, error) {
	if inbox.ID == "" {
		inbox.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	inbox.CreatedAt = now
	inbox.UpdatedAt = now
	if inbox.ChannelType == "" {
		inbox.ChannelType = domain.ChannelTypeWhatsApp
	}
	if inbox.Status == "" {
		inbox.Status = domain.ConnectionStatusPending
	}

	query := `
		INSERT INTO inboxes (
			id, organization_id, name, channel_type, instance_name, status, qr_code,
			profile_name, profile_avatar, phone_number, owner_jid,
			contact_count, conversation_count, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := r.db.Exec(ctx, query,
		inbox.ID, inbox.OrganizationID, inbox.Name, inbox.ChannelType, inbox.InstanceName, inbox.Status, inbox.QRCode,
		inbox.ProfileName, inbox.ProfileAvatar, inbox.PhoneNumber, inbox.OwnerJID,
		inbox.ContactCount, inbox.ConversationCount, inbox.CreatedAt, inbox.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, domain.ErrDuplicateInstanceName
		}
		return nil, err
	}
	return inbox, nil
}

func (r *pgInboxRepository) GetByID(ctx context.Context, id string) (*domain.Inbox, error) {
	row := r.db.QueryRow(ctx, `SELECT `+inboxColumns+` FROM inboxes WHERE id = $1`, id)
	inbox, err := scanInbox(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrInboxNotFound
	}
	return inbox, err
}

func (r *pgInboxRepository) GetByInstanceName(ctx context.Context, instanceName string) (*domain.Inbox, error) {
	row := r.db.QueryRow(ctx, `SELECT `+inboxColumns+` FROM inboxes WHERE instance_name = $1`, instanceName)
	inbox, err := scanInbox(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrInboxNotFound
	}
	return inbox, err
}

func (r *pgInboxRepository) ListByOrganization(ctx context.Context, organizationID string) ([]*domain.Inbox, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+inboxColumns+` FROM inboxes WHERE organization_id = $1 ORDER BY created_at ASC`,
		organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var inboxes []*domain.Inbox
	for rows.Next() {
		inbox, err := scanInbox(rows)
		if err != nil {
			return nil, err
		}
		inboxes = append(inboxes, inbox)
	}
	return inboxes, rows.Err()
}

func (r *pgInboxRepository) UpdateStatus(ctx context.Context, id string, status domain.ConnectionStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE inboxes SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInboxNotFound
	}
	return nil
}

func (r *pgInboxRepository) SetQRCode(ctx context.Context, id string, qrCode *string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE inboxes SET qr_code = $2, updated_at = $3 WHERE id = $1`,
		id, qrCode, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInboxNotFound
	}
	return nil
}

func (r *pgInboxRepository) UpdateProfile(ctx context.Context, id string, name *string, profile domain.InboxProfile) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE inboxes
		SET name = COALESCE($2, name),
		    profile_name = COALESCE($3, profile_name),
		    profile_avatar = COALESCE($4, profile_avatar),
		    phone_number = COALESCE($5, phone_number),
		    owner_jid = COALESCE($6, owner_jid),
		    contact_count = $7,
		    conversation_count = $8,
		    updated_at = $9
		WHERE id = $1
	`, id, name, profile.Name, profile.AvatarURL, profile.PhoneNumber, profile.OwnerJID,
		profile.ContactCount, profile.ConversationCount, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInboxNotFound
	}
	return nil
}

func (r *pgInboxRepository) UpdateCounts(ctx context.Context, id string, contactCount, conversationCount int) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE inboxes SET contact_count = $2, conversation_count = $3, updated_at = $4 WHERE id = $1`,
		id, contactCount, conversationCount, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInboxNotFound
	}
	return nil
}

func (r *pgInboxRepository) Delete(ctx context.Context, id string) error {
	// Contacts, conversations and messages cascade via FK rules.
	tag, err := r.db.Exec(ctx, `DELETE FROM inboxes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInboxNotFound
	}
	return nil
}
