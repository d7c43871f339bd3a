package registration

import (
	"bytes"
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/festportal/backend/core"
	"github.com/festportal/backend/core/event"
)

const qrContentID = "ticket-qr"

type (
	// Composer builds event specific confirmation emails carrying the entry QR code.
	Composer struct {
		mailSvc         core.EmailService
		frontendBaseURL string
	}

	// mailData is what the email templates receive as `.Data`.
	mailData struct {
		Event        event.Config
		Registration Registration
		QRContentID  string
		FormURL      string
	}
)

var _ Notifier = (*Composer)(nil)

func NewComposer(mailSvc core.EmailService, frontendBaseURL string) *Composer {
	return &Composer{mailSvc: mailSvc, frontendBaseURL: frontendBaseURL}
}

func (c *Composer) Notify(ctx context.Context, cfg event.Config, reg Registration, qrPNG []byte) NotificationOutcome {
	msg, err := c.Compose(cfg, reg, qrPNG)
	outcome := NotificationOutcome{Recipient: reg.IdentityEmail}
	if err != nil {
		outcome.Err = err
		return outcome
	}
	if err = c.mailSvc.Send(ctx, msg); err != nil {
		outcome.Err = err
		return outcome
	}
	outcome.Sent = true
	outcome.FormLinkSent = cfg.FormURL != ""
	return outcome
}

// Compose returns the confirmation email of reg. The QR code is embedded inline and attached as a file.
func (c *Composer) Compose(cfg event.Config, reg Registration, qrPNG []byte) (*core.EmailMessage, error) {
	msg := &core.EmailMessage{
		To:              []mail.Address{{Name: reg.IdentityName, Address: reg.IdentityEmail}},
		Subject:         fmt.Sprintf("Registration confirmed: %s", cfg.Name),
		TemplateName:    cfg.Template,
		FrontendBaseURL: c.frontendBaseURL,
		TemplateData: mailData{
			Event:        cfg,
			Registration: reg,
			QRContentID:  qrContentID,
			FormURL:      cfg.FormURL,
		},
	}
	if cfg.Sender.Address != "" {
		sender := cfg.Sender
		msg.From = &sender
	}
	// the same address in To and Cc is rejected by the provider
	if p := reg.Details.Partner; p != nil && p.Email != "" && !strings.EqualFold(p.Email, reg.IdentityEmail) {
		msg.Cc = append(msg.Cc, mail.Address{Name: p.Name, Address: p.Email})
	}

	msg.AttachInline(qrPNG, "qrcode.png", qrContentID, "image/png")
	if err := msg.Attach(bytes.NewReader(qrPNG), ticketFilename(reg.ID), "image/png"); err != nil {
		return nil, err
	}
	return msg, nil
}

func ticketFilename(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return "ticket-" + id + ".png"
}
