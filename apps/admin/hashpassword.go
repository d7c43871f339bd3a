package main

import (
	"fmt"
	"strings"

	"github.com/festportal/backend/core/staff"
)

func (cli *commandLine) hashPassword(uname, pwd string) error {
	uname = strings.TrimSpace(uname)
	hash, err := staff.HashPassword(uname, pwd)
	if err != nil {
		return err
	}
	if uname != "" {
		fmt.Fprintf(cli.out, "%s:%s\n", strings.ToLower(uname), hash)
		return nil
	}
	fmt.Fprintln(cli.out, hash)
	return nil
}
