package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/festportal/backend/core/registration"
)

const uniqueViolation = "23505"

const columns = `id, identity_email, identity_name, phone, institution, amount_paid, utr_number, payment_qr_used,
	email_sent, qr_code_sent, form_link_sent, checked_in, checked_in_at, registration_status, details,
	created_at, updated_at`

// DBExecutor is satisfied by both *sqlx.DB and *sqlx.Tx.
type DBExecutor interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

type registrationRepository struct {
	db DBExecutor
}

var _ registration.Repository = (*registrationRepository)(nil)

func NewRegistrationRepository(db DBExecutor) *registrationRepository {
	return &registrationRepository{db: db}
}

// the table names come from the event registry, they are quoted anyway.
func from(table string) string {
	return pq.QuoteIdentifier(table)
}

func (repo *registrationRepository) ExistsByEmail(ctx context.Context, table, email string) (bool, error) {
	var exists bool
	q := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE lower(identity_email) = lower($1))", from(table))
	if err := repo.db.GetContext(ctx, &exists, q, email); err != nil {
		return false, errors.Wrapf(err, "querying %s", table)
	}
	return exists, nil
}

func (repo *registrationRepository) CreateRegistration(ctx context.Context, table string, reg registration.Registration) (registration.Registration, error) {
	if reg.ID == "" {
		reg.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = now
	}
	if reg.UpdatedAt.IsZero() {
		reg.UpdatedAt = reg.CreatedAt
	}

	q := fmt.Sprintf(`INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING %s`, from(table), columns, columns)

	var created registration.Registration
	err := repo.db.GetContext(
		ctx, &created, q,
		reg.ID, reg.IdentityEmail, reg.IdentityName, reg.Phone, reg.Institution, reg.AmountPaid,
		reg.UTRNumber, reg.PaymentQRUsed, reg.EmailSent, reg.QRCodeSent, reg.FormLinkSent,
		reg.CheckedIn, reg.CheckedInAt, reg.RegistrationStatus, reg.Details, reg.CreatedAt, reg.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return registration.Registration{}, registration.ErrDuplicateRegistration
		}
		return registration.Registration{}, errors.Wrapf(err, "inserting into %s", table)
	}
	created.EventID = reg.EventID
	return created, nil
}

func (repo *registrationRepository) GetRegistration(ctx context.Context, table, id string) (registration.Registration, error) {
	var reg registration.Registration
	q := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", columns, from(table))
	if err := repo.db.GetContext(ctx, &reg, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return registration.Registration{}, registration.ErrNotFound
		}
		return registration.Registration{}, errors.Wrapf(err, "querying %s", table)
	}
	return reg, nil
}

func (repo *registrationRepository) SetNotified(ctx context.Context, table, id string, flags registration.NotificationFlags) error {
	q := fmt.Sprintf(`UPDATE %s
		SET email_sent = email_sent OR $2, qr_code_sent = qr_code_sent OR $3, form_link_sent = form_link_sent OR $4,
			updated_at = now()
		WHERE id = $1`, from(table))
	res, err := repo.db.ExecContext(ctx, q, id, flags.EmailSent, flags.QRCodeSent, flags.FormLinkSent)
	if err != nil {
		return errors.Wrapf(err, "updating %s", table)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return registration.ErrNotFound
	}
	return nil
}

// CheckIn only updates rows that are not checked in yet, so concurrent scans of the same ticket
// cannot both report a fresh check-in.
func (repo *registrationRepository) CheckIn(ctx context.Context, table, id string, at time.Time) (registration.Registration, bool, error) {
	var reg registration.Registration
	q := fmt.Sprintf(`UPDATE %s SET checked_in = TRUE, checked_in_at = $2, updated_at = $2
		WHERE id = $1 AND NOT checked_in
		RETURNING %s`, from(table), columns)

	err := repo.db.GetContext(ctx, &reg, q, id, at)
	if err == nil {
		return reg, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return registration.Registration{}, false, errors.Wrapf(err, "checking in on %s", table)
	}

	// either unknown or already checked in
	reg, err = repo.GetRegistration(ctx, table, id)
	if err != nil {
		return registration.Registration{}, false, err
	}
	return reg, false, nil
}

func (repo *registrationRepository) QueryPendingNotifications(ctx context.Context, table string) ([]registration.Registration, error) {
	var regs []registration.Registration
	q := fmt.Sprintf("SELECT %s FROM %s WHERE NOT email_sent ORDER BY created_at", columns, from(table))
	if err := repo.db.SelectContext(ctx, &regs, q); err != nil {
		return nil, errors.Wrapf(err, "querying %s", table)
	}
	return regs, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
