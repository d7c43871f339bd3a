package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/festportal/backend/core"
	"github.com/festportal/backend/core/event"
	"github.com/festportal/backend/core/registration"
)

// Logger records every message instead of printing it.
type Logger struct {
	mu      sync.Mutex
	entries []LogEntry
}

type LogEntry struct {
	Level string
	Msg   string
	Args  []interface{}
}

var _ core.Logger = (*Logger)(nil)

func (l *Logger) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	l.entries = append(l.entries, LogEntry{Level: level, Msg: msg, Args: args})
	l.mu.Unlock()
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log("debug", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log("info", msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log("warn", msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log("error", msg, args) }
func (l *Logger) Fatal(msg string, args ...interface{}) { l.log("fatal", msg, args) }

// Entries returns the recorded messages of level, or all of them when level is empty.
func (l *Logger) Entries(level string) []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []LogEntry
	for _, e := range l.entries {
		if level == "" || e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

func NewValidator() *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())
	return validate
}

// Registry returns the bundled event registry.
func Registry(t *testing.T) *event.Registry {
	t.Helper()
	registry, err := event.LoadDefault()
	if err != nil {
		t.Fatalf("event.LoadDefault(): %v", err)
	}
	return registry
}

func CreateRegistration(
	t *testing.T,
	repo registration.Repository,
	table, email string,
	checkedIn bool,
	createdAt ...time.Time,
) registration.Registration {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	name := strings.Split(email, "@")[0]
	reg := registration.Registration{
		IdentityEmail: email,
		IdentityName:  name,
		Phone:         "9876543210",
		Institution:   "Test University",
		CheckedIn:     checkedIn,
		Details:       registration.Details{IdentityField: "email"},
		CreatedAt:     tstamp,
		UpdatedAt:     tstamp,
	}
	reg, err := repo.CreateRegistration(context.Background(), table, reg)
	if err != nil {
		t.Fatalf("CreateRegistration() failed: %v", err)
	}
	return reg
}

// OpenDB connects to TEST_DATABASE_URL, skipping the test when it is not set.
func OpenDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("sqlx.Open(): %v", err)
	}
	if err = db.Ping(); err != nil {
		t.Fatalf("db.Ping(): %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// ResetTables empties the given tables.
func ResetTables(t *testing.T, db *sqlx.DB, tables ...string) {
	t.Helper()
	for _, table := range tables {
		if _, err := db.Exec(fmt.Sprintf("TRUNCATE TABLE %q", table)); err != nil {
			t.Fatalf("truncating %s: %v", table, err)
		}
	}
}
