// AngelaMos | 2026
// repository.go

package subscriber

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/templates/newsletter-api/internal/core"
)

type Repository interface {
	UpsertPending(ctx context.Context, p UpsertParams) (*Subscriber, error)
	FindByToken(ctx context.Context, token string) (*Subscriber, error)
	MarkConfirmed(
		ctx context.Context,
		id string,
		p ConfirmParams,
	) (*Subscriber, bool, error)
	GetByID(ctx context.Context, id string) (*Subscriber, error)
	GetByEmail(ctx context.Context, email string) (*Subscriber, error)
}

const subscriberColumns = `
	id, email, full_name, company_name, role, source, status, subscribed_at,
	confirmation_token, confirmation_sent_at, confirmed_at, confirmed_token_hash,
	consent_copy, form_url, metadata, created_at, updated_at`

type repository struct {
	db core.DBTX

	upsertSQL  string
	byEmailSQL string
	byIDSQL    string
	byTokenSQL string
	confirmSQL string
}

func NewRepository(db core.DBTX, dialect core.Dialect) Repository {
	return &repository{
		db: db,
		upsertSQL: db.Rebind(`
			INSERT INTO newsletter_subscribers (
				id, email, full_name, company_name, role, source, status,
				subscribed_at, confirmation_token, confirmation_sent_at,
				consent_copy, form_url, metadata, created_at, updated_at
			)
			VALUES (?, ?, ?, ?, ?, ?, 'pending', ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (email) DO UPDATE SET
				full_name = COALESCE(excluded.full_name, newsletter_subscribers.full_name),
				company_name = COALESCE(excluded.company_name, newsletter_subscribers.company_name),
				role = COALESCE(excluded.role, newsletter_subscribers.role),
				source = CASE WHEN newsletter_subscribers.status = 'confirmed'
					THEN newsletter_subscribers.source ELSE excluded.source END,
				confirmation_token = CASE WHEN newsletter_subscribers.status = 'confirmed'
					THEN NULL ELSE excluded.confirmation_token END,
				confirmation_sent_at = CASE WHEN newsletter_subscribers.status = 'confirmed'
					THEN newsletter_subscribers.confirmation_sent_at
					ELSE excluded.confirmation_sent_at END,
				consent_copy = COALESCE(excluded.consent_copy, newsletter_subscribers.consent_copy),
				form_url = COALESCE(excluded.form_url, newsletter_subscribers.form_url),
				metadata = ` + dialect.JSONMerge("newsletter_subscribers.metadata", "excluded.metadata") + `,
				updated_at = excluded.updated_at`),
		byEmailSQL: db.Rebind(`SELECT ` + subscriberColumns + `
			FROM newsletter_subscribers
			WHERE email = ?`),
		byIDSQL: db.Rebind(`SELECT ` + subscriberColumns + `
			FROM newsletter_subscribers
			WHERE id = ?`),
		byTokenSQL: db.Rebind(`SELECT ` + subscriberColumns + `
			FROM newsletter_subscribers
			WHERE confirmation_token = ? OR confirmed_token_hash = ?
			LIMIT 1`),
		confirmSQL: db.Rebind(`
			UPDATE newsletter_subscribers
			SET status = 'confirmed',
				confirmed_at = ?,
				confirmation_token = NULL,
				confirmed_token_hash = ?,
				metadata = ` + dialect.JSONMerge("metadata", "?") + `,
				updated_at = ?
			WHERE id = ? AND status = 'pending' AND confirmation_token = ?`),
	}
}

// UpsertPending inserts a pending row or refreshes an existing one keyed by
// email. A confirmed row keeps its status, source and send time and never
// gets a token back; profile fields are only overwritten by new values.
// Write and read share a transaction unless the repository already runs
// inside one.
func (r *repository) UpsertPending(
	ctx context.Context,
	p UpsertParams,
) (*Subscriber, error) {
	starter, ok := r.db.(core.TxStarter)
	if !ok {
		return r.upsert(ctx, r.db, p)
	}

	var sub *Subscriber
	err := core.InTx(ctx, starter, func(tx *sqlx.Tx) error {
		var err error
		sub, err = r.upsert(ctx, tx, p)
		return err
	})
	if err != nil {
		return nil, err
	}

	return sub, nil
}

func (r *repository) upsert(
	ctx context.Context,
	db core.DBTX,
	p UpsertParams,
) (*Subscriber, error) {
	_, err := db.ExecContext(ctx, r.upsertSQL,
		p.ID,
		p.Email,
		p.FullName,
		p.CompanyName,
		p.Role,
		p.Source,
		p.Now,
		p.Token,
		p.Now,
		p.ConsentCopy,
		p.FormURL,
		p.Metadata,
		p.Now,
		p.Now,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert subscriber: %w", err)
	}

	var sub Subscriber
	if err := db.GetContext(ctx, &sub, r.byEmailSQL, p.Email); err != nil {
		return nil, fmt.Errorf("read upserted subscriber: %w", err)
	}

	return &sub, nil
}

// FindByToken resolves a live confirmation token, or the token that already
// confirmed a row so repeated clicks on the same link stay answerable.
func (r *repository) FindByToken(
	ctx context.Context,
	token string,
) (*Subscriber, error) {
	var sub Subscriber
	err := r.db.GetContext(ctx, &sub, r.byTokenSQL, token, core.HashToken(token))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find subscriber by token: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find subscriber by token: %w", err)
	}

	return &sub, nil
}

// MarkConfirmed flips a pending row whose live token is p.Token. The bool
// reports whether this call made the transition; a row that was already
// confirmed is returned unchanged with false.
func (r *repository) MarkConfirmed(
	ctx context.Context,
	id string,
	p ConfirmParams,
) (*Subscriber, bool, error) {
	result, err := r.db.ExecContext(ctx, r.confirmSQL,
		p.Now,
		core.HashToken(p.Token),
		p.Metadata,
		p.Now,
		id,
		p.Token,
	)
	if err != nil {
		return nil, false, fmt.Errorf("mark confirmed: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("mark confirmed: %w", err)
	}

	sub, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, false, fmt.Errorf("mark confirmed: %w", err)
	}

	if rows == 0 && !sub.IsConfirmed() {
		return nil, false, fmt.Errorf("mark confirmed: token superseded: %w", core.ErrNotFound)
	}

	return sub, rows > 0, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Subscriber, error) {
	var sub Subscriber
	err := r.db.GetContext(ctx, &sub, r.byIDSQL, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get subscriber: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get subscriber: %w", err)
	}

	return &sub, nil
}

func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*Subscriber, error) {
	var sub Subscriber
	err := r.db.GetContext(ctx, &sub, r.byEmailSQL, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get subscriber by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get subscriber by email: %w", err)
	}

	return &sub, nil
}
