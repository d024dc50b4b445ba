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

type pgContactRepository struct {
	db *pgxpool.Pool
}

// NewPgContactRepository creates the PostgreSQL implementation of
// repository.ContactRepository.
func NewPgContactRepository(db *pgxpool.Pool) repository.ContactRepository {
	return &pgContactRepository{db: db}
}

const contactColumns = `
	id, inbox_id, organization_id, remote_jid, name, kind, avatar_url, created_at, updated_at`

func scanContact(row pgx.Row) (*domain.Contact, error) {
	var c domain.Contact
	err := row.Scan(
		&c.ID, &c.InboxID, &c.OrganizationID, &c.RemoteJID, &c.Name, &c.Kind, &c.AvatarURL,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *pgContactRepository) Create(ctx context.Context, contact *domain.Contact) (*domain.Contact, error) {
	if contact.ID == "" {
		contact.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	contact.CreatedAt = now
	contact.UpdatedAt = now
	if contact.Kind == "" {
		contact.Kind = domain.KindForJID(contact.RemoteJID)
	}

	query := `
		INSERT INTO contacts (id, inbox_id, organization_id, remote_jid, name, kind, avatar_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		contact.ID, contact.InboxID, contact.OrganizationID, contact.RemoteJID,
		contact.Name, contact.Kind, contact.AvatarURL, contact.CreatedAt, contact.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, domain.ErrDuplicateContact
		}
		return nil, err
	}
	return contact, nil
}

func (r *pgContactRepository) GetByID(ctx context.Context, id string) (*domain.Contact, error) {
	row := r.db.QueryRow(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = $1`, id)
	contact, err := scanContact(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrContactNotFound
	}
	return contact, err
}

func (r *pgContactRepository) GetByRemoteJID(ctx context.Context, inboxID, remoteJID string) (*domain.Contact, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE inbox_id = $1 AND remote_jid = $2`,
		inboxID, remoteJID)
	contact, err := scanContact(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrContactNotFound
	}
	return contact, err
}

func (r *pgContactRepository) UpdateName(ctx context.Context, id, name string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE contacts SET name = $2, updated_at = $3 WHERE id = $1`,
		id, name, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrContactNotFound
	}
	return nil
}

func (r *pgContactRepository) UpdateAvatar(ctx context.Context, id, avatarURL string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE contacts SET avatar_url = $2, updated_at = $3 WHERE id = $1`,
		id, avatarURL, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrContactNotFound
	}
	return nil
}

func (r *pgContactRepository) CountByInbox(ctx context.Context, inboxID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM contacts WHERE inbox_id = $1`, inboxID).Scan(&count)
	return count, err
}
