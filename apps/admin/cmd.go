package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/festportal/backend/core/registration"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp     = errors.New("help provided")
	errNoDB     = errors.New("migrations require the postgres engine")
	errNoEvents = errors.New("registrations service unavailable")
)

type commandLine struct {
	db            *sql.DB // nil with the memory engine
	registrations *registration.Service
	out           io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS...]         - run a goose migration command (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  events                            - list configured events and their tables")
	fmt.Fprintln(cli.out, "  resend [-event ID]                - resend confirmation emails that never went out")
	fmt.Fprintln(cli.out, "  hashpassword [-username USERNAME] - hash a staff password for STAFF_ACCOUNTS")
}

// needsService reports whether the command works on registrations.
func needsService(args []string) bool {
	if len(args) < 2 {
		return false
	}
	return args[1] == "events" || args[1] == "resend"
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	resendCmd := flag.NewFlagSet("resend", flag.ContinueOnError)
	resendEvent := resendCmd.String("event", "", "The event ID. All events when empty.")

	hashPasswordCmd := flag.NewFlagSet("hashpassword", flag.ContinueOnError)
	hashPasswordUname := hashPasswordCmd.String("username", "", "Prefix the output with the staff username. The password will be prompted next.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "events":
		return cli.listEvents()
	case "resend":
		if err := resendCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.resend(*resendEvent)
	case "hashpassword":
		if err := hashPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			hashPasswordCmd.Usage()
			return errHelp
		}
		return cli.hashPassword(*hashPasswordUname, string(pwd))
	default:
		cli.printUsage()
		return errHelp
	}
}
