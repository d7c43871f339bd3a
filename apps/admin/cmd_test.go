package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/festportal/backend/core/registration"
	"github.com/festportal/backend/core/staff"
	emailsvc "github.com/festportal/backend/services/email"
	qrsvc "github.com/festportal/backend/services/qrcode"
	inmemdb "github.com/festportal/backend/storage/database/inmem"
	"github.com/festportal/backend/tests"
)

type env struct {
	cli  *commandLine
	out  *bytes.Buffer
	repo registration.Repository
	mail *emailsvc.ConsoleServiceMock
}

func setup(t *testing.T) env {
	e := env{
		out:  new(bytes.Buffer),
		repo: inmemdb.NewRegistrationRepository(inmemdb.Open()),
		mail: emailsvc.NewConsoleServiceMock(),
	}
	svc := registration.NewService(
		testutil.Registry(t),
		e.repo,
		registration.NewComposer(e.mail, "https://fest.example.com"),
		qrsvc.NewEncoder(128),
		testutil.NewValidator(),
		&testutil.Logger{},
		nil,
	)

	// start CLI
	e.cli = &commandLine{
		db:            new(sql.DB),
		registrations: svc,
		out:           e.out,
	}
	return e
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func (tt cliTest) check(t *testing.T, err error) {
	t.Helper()
	switch {
	case err == nil:
		if tt.wantErr != nil || tt.wantErrStr != "" {
			t.Errorf("cli.run() expected an error")
		}
	case tt.wantErr != nil:
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
		}
	case tt.wantErrStr != "":
		if err.Error() != tt.wantErrStr {
			t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
		}
	default:
		t.Errorf("cli.run() unexpected error = %v", err)
	}
}

func Test_commandLine_run(t *testing.T) {
	e := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, e.cli.run(args))
		})
	}
	assert.Contains(t, e.out.String(), "Usage:")
}

func Test_commandLine_migrate(t *testing.T) {
	e := setup(t)

	gooseRunFunc = func(db *sql.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "1"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "0"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "checkin_notes", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, e.cli.run(args))
		})
	}

	t.Run("memory engine", func(t *testing.T) {
		cli := &commandLine{out: e.out}
		tt := cliTest{wantErr: errNoDB}
		tt.check(t, cli.run([]string{"admin", "migrate", "up"}))
	})
}

func Test_commandLine_events(t *testing.T) {
	e := setup(t)

	require.NoError(t, e.cli.run([]string{"admin", "events"}))
	lines := strings.Split(strings.TrimSpace(e.out.String()), "\n")
	assert.Len(t, lines, len(e.cli.registrations.Registry().All()))
	assert.True(t, strings.HasPrefix(lines[0], "bgmi"))
	assert.Contains(t, lines[0], "bgmi_registrations")

	cli := &commandLine{out: e.out}
	assert.Equal(t, errNoEvents, cli.run([]string{"admin", "events"}))
}

func Test_commandLine_resend(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	e.mail.SetFail(errors.New("sendgrid: 503"))
	res, err := e.cli.registrations.Register(ctx, "group-dance", registration.Submission{
		TeamLeaderName: "Lead", TeamLeaderEmail: "lead@example.com", Phone: "9876543210", UTRNumber: "123456789012",
	})
	require.NoError(t, err)
	require.False(t, res.EmailSent)

	tests := []cliTest{
		{name: "unknown event", args: []string{"resend", "-event", "karaoke"}, wantErr: registration.ErrEventNotFound},
		{name: "provider still down", args: []string{"resend", "-event", "group-dance"}},
		{name: "provider back", args: []string{"resend", "-event", "group-dance"}, extra: true},
		{name: "all events", args: []string{"resend"}, extra: true},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if tt.extra != nil {
				e.mail.SetFail(nil)
			}
			e.out.Reset()
			tt.check(t, e.cli.run(args))
		})
	}

	reg, err := e.repo.GetRegistration(ctx, "group_dance_registrations", res.ID)
	require.NoError(t, err)
	assert.True(t, reg.EmailSent)
	assert.Len(t, e.mail.SentMessages(), 1)
	assert.Contains(t, e.out.String(), "group-dance: 0 sent, 0 failed")
}

func Test_commandLine_hashPassword(t *testing.T) {
	e := setup(t)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no password", args: []string{"hashpassword"}, wantErr: errHelp},
		{name: "read failure", args: []string{"hashpassword"}, extra: errors.New("not a terminal"), wantErrStr: "not a terminal"},
		{name: "hash only", args: []string{"hashpassword"}, extra: extra{pwd: "letmein"}},
		{name: "password like the username", args: []string{"hashpassword", "-username", "letmein1"}, extra: extra{pwd: "letmein"}, wantErr: staff.ErrPasswordTooSimilar},
		{name: "with username", args: []string{"hashpassword", "-username", "Gate1"}, extra: extra{pwd: "letmein"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			switch x := tt.extra.(type) {
			case extra:
				return []byte(x.pwd), nil
			case error:
				return nil, x
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			e.out.Reset()
			err := e.cli.run(args)
			tt.check(t, err)
			if err != nil {
				return
			}

			lines := strings.Split(strings.TrimSpace(e.out.String()), "\n")
			account := lines[len(lines)-1]
			if !strings.Contains(account, ":") {
				account = "gate:" + account
			}
			dir, err := staff.ParseAccounts(account)
			require.NoError(t, err)

			uname := strings.SplitN(account, ":", 2)[0]
			got, err := dir.Authenticate(uname, "letmein")
			require.NoError(t, err)
			assert.Equal(t, uname, got)
		})
	}
	assert.Contains(t, e.out.String(), "\ngate1:$2")
}
