package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func (cli *commandLine) listEvents() error {
	if cli.registrations == nil {
		return errNoEvents
	}
	for _, cfg := range cli.registrations.Registry().All() {
		status := "open"
		if !cfg.Open {
			status = "closed"
		}
		fmt.Fprintf(cli.out, "%-24s %-32s %-8s %s\n", cfg.ID, cfg.Table, status, cfg.Name)
	}
	return nil
}

func (cli *commandLine) resend(eventID string) error {
	if cli.registrations == nil {
		return errNoEvents
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ids := []string{eventID}
	if eventID == "" {
		ids = ids[:0]
		for _, cfg := range cli.registrations.Registry().All() {
			ids = append(ids, cfg.ID)
		}
	}

	for _, id := range ids {
		sent, failed, err := cli.registrations.ResendPending(ctx, id)
		if err != nil {
			return fmt.Errorf("%s: %w", id, err)
		}
		fmt.Fprintf(cli.out, "%s: %d sent, %d failed\n", id, sent, failed)
	}
	return nil
}
