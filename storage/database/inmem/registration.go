package inmemdb

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/festportal/backend/core/registration"
)

type registrationRepository struct {
	db *DB
}

func NewRegistrationRepository(db *DB) registration.Repository {
	return &registrationRepository{db: db}
}

func (repo *registrationRepository) get(table, id string) (*registration.Registration, bool) {
	t, ok := repo.db.tables[table]
	if !ok {
		return nil, false
	}
	reg, ok := t.rows[id]
	return reg, ok
}

func (repo *registrationRepository) ExistsByEmail(_ context.Context, table, email string) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	t, ok := repo.db.tables[table]
	if !ok {
		return false, nil
	}
	_, exists := t.emails[strings.ToLower(email)]
	return exists, nil
}

func (repo *registrationRepository) CreateRegistration(_ context.Context, table string, reg registration.Registration) (registration.Registration, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	t := repo.db.table(table)
	key := strings.ToLower(reg.IdentityEmail)
	if _, exists := t.emails[key]; exists {
		return registration.Registration{}, registration.ErrDuplicateRegistration
	}

	if reg.ID == "" {
		reg.ID = uuid.New().String()
	}
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = time.Now().UTC()
	}
	if reg.UpdatedAt.IsZero() {
		reg.UpdatedAt = reg.CreatedAt
	}

	t.rows[reg.ID] = &reg
	t.emails[key] = reg.ID
	t.order = append(t.order, reg.ID)
	return reg, nil
}

func (repo *registrationRepository) GetRegistration(_ context.Context, table, id string) (registration.Registration, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if reg, ok := repo.get(table, id); ok {
		return *reg, nil
	}
	return registration.Registration{}, registration.ErrNotFound
}

func (repo *registrationRepository) SetNotified(_ context.Context, table, id string, flags registration.NotificationFlags) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	reg, ok := repo.get(table, id)
	if !ok {
		return registration.ErrNotFound
	}
	reg.EmailSent = reg.EmailSent || flags.EmailSent
	reg.QRCodeSent = reg.QRCodeSent || flags.QRCodeSent
	reg.FormLinkSent = reg.FormLinkSent || flags.FormLinkSent
	reg.UpdatedAt = time.Now().UTC()
	return nil
}

func (repo *registrationRepository) CheckIn(_ context.Context, table, id string, at time.Time) (registration.Registration, bool, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	reg, ok := repo.get(table, id)
	if !ok {
		return registration.Registration{}, false, registration.ErrNotFound
	}
	if reg.CheckedIn {
		return *reg, false, nil
	}
	reg.CheckedIn = true
	reg.CheckedInAt = null.TimeFrom(at)
	reg.UpdatedAt = at
	return *reg, true, nil
}

func (repo *registrationRepository) QueryPendingNotifications(_ context.Context, table string) ([]registration.Registration, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	t, ok := repo.db.tables[table]
	if !ok {
		return nil, nil
	}
	var regs []registration.Registration
	for _, id := range t.order {
		if reg := t.rows[id]; !reg.EmailSent {
			regs = append(regs, *reg)
		}
	}
	return regs, nil
}
