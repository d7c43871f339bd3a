package sqlxrepos

import (
	"context"
	"testing"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/festportal/backend/core/event"
	"github.com/festportal/backend/storage/database"
	"github.com/festportal/backend/tests"
)

// Runs against a real PostgreSQL when TEST_DATABASE_URL is set.
func TestRegistrationRepository(t *testing.T) {
	db := testutil.OpenDB(t)
	if err := database.Migrate(db.DB, "up"); err != nil {
		t.Fatalf("Migrate(): %v", err)
	}
	registry, err := event.NewRegistry(event.Config{ID: "repo-test", Name: "Repo Test", Table: "repo_test_registrations"})
	if err != nil {
		t.Fatalf("NewRegistry(): %v", err)
	}
	if err = database.EnsureEventTables(context.Background(), db, registry); err != nil {
		t.Fatalf("EnsureEventTables(): %v", err)
	}
	testutil.ResetTables(t, db, "repo_test_registrations")

	testutil.RunRepositoryTests(t, NewRegistrationRepository(db), "repo_test_registrations")
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "unique violation", err: &pq.Error{Code: "23505"}, want: true},
		{name: "wrapped", err: errors.Wrap(&pq.Error{Code: "23505"}, "inserting"), want: true},
		{name: "other pq error", err: &pq.Error{Code: "23502"}, want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUniqueViolation(tt.err); got != tt.want {
				t.Errorf("isUniqueViolation() = %v; want %v", got, tt.want)
			}
		})
	}
}
