package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/festportal/backend/core/registration"
)

// RunRepositoryTests exercises the behavior every registration.Repository must share.
// table must exist and be empty.
func RunRepositoryTests(t *testing.T, repo registration.Repository, table string) {
	ctx := context.Background()

	t.Run("create & get", func(t *testing.T) {
		reg := CreateRegistration(t, repo, table, "Alice@Example.com", false)
		assert.NotEmpty(t, reg.ID)

		got, err := repo.GetRegistration(ctx, table, reg.ID)
		require.NoError(t, err)
		assert.Equal(t, reg.ID, got.ID)
		assert.Equal(t, "Alice@Example.com", got.IdentityEmail)
		assert.Equal(t, "email", got.Details.IdentityField)
		assert.False(t, got.CheckedIn)
	})

	t.Run("email uniqueness is case insensitive", func(t *testing.T) {
		exists, err := repo.ExistsByEmail(ctx, table, "alice@example.com")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsByEmail(ctx, table, "nobody@example.com")
		require.NoError(t, err)
		assert.False(t, exists)

		_, err = repo.CreateRegistration(ctx, table, registration.Registration{IdentityEmail: "ALICE@example.com"})
		assert.True(t, errors.Is(err, registration.ErrDuplicateRegistration), "got %v", err)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := repo.GetRegistration(ctx, table, "00000000-0000-0000-0000-000000000000")
		assert.True(t, errors.Is(err, registration.ErrNotFound), "got %v", err)
	})

	t.Run("set notified", func(t *testing.T) {
		reg := CreateRegistration(t, repo, table, "notify@example.com", false)

		pending, err := repo.QueryPendingNotifications(ctx, table)
		require.NoError(t, err)
		assert.Contains(t, ids(pending), reg.ID)

		err = repo.SetNotified(ctx, table, reg.ID, registration.NotificationFlags{EmailSent: true, QRCodeSent: true})
		require.NoError(t, err)

		got, err := repo.GetRegistration(ctx, table, reg.ID)
		require.NoError(t, err)
		assert.True(t, got.EmailSent)
		assert.True(t, got.QRCodeSent)
		assert.False(t, got.FormLinkSent)

		pending, err = repo.QueryPendingNotifications(ctx, table)
		require.NoError(t, err)
		assert.NotContains(t, ids(pending), reg.ID)
	})

	t.Run("check in once", func(t *testing.T) {
		reg := CreateRegistration(t, repo, table, "gate@example.com", false)
		at := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

		got, transitioned, err := repo.CheckIn(ctx, table, reg.ID, at)
		require.NoError(t, err)
		assert.True(t, transitioned)
		assert.True(t, got.CheckedIn)
		assert.True(t, got.CheckedInAt.Time.Equal(at))

		got, transitioned, err = repo.CheckIn(ctx, table, reg.ID, at.Add(time.Hour))
		require.NoError(t, err)
		assert.False(t, transitioned)
		assert.True(t, got.CheckedInAt.Time.Equal(at), "second check-in must not move the timestamp")

		_, _, err = repo.CheckIn(ctx, table, "00000000-0000-0000-0000-000000000000", at)
		assert.True(t, errors.Is(err, registration.ErrNotFound), "got %v", err)
	})

	t.Run("concurrent check-ins transition once", func(t *testing.T) {
		reg := CreateRegistration(t, repo, table, "race@example.com", false)

		var (
			wg    sync.WaitGroup
			mu    sync.Mutex
			fresh int
		)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, transitioned, err := repo.CheckIn(ctx, table, reg.ID, time.Now().UTC())
				if err != nil {
					t.Errorf("CheckIn(): %v", err)
					return
				}
				if transitioned {
					mu.Lock()
					fresh++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, fresh)
	})
}

func ids(regs []registration.Registration) []string {
	out := make([]string, 0, len(regs))
	for _, r := range regs {
		out = append(out, r.ID)
	}
	return out
}
