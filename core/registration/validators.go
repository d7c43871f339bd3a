package registration

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/festportal/backend/core"
	"github.com/festportal/backend/core/event"
)

var errInvalidSubmission = errors.New("invalid registration")

// Validate checks a cleaned submission against the rules of its event family.
// The UTR is only required when the quoted fee is not zero.
func (s *Submission) Validate(validate *validator.Validate, cfg event.Config, id Identity, quote event.Quote) error {
	if err := validate.Var(id.Email, "email"); err != nil {
		return core.NewValidationError(errInvalidSubmission, core.FieldError{Field: id.EmailField, Error: "must be a valid email address"})
	}
	if id.Name == "" {
		return core.NewValidationError(errInvalidSubmission, core.FieldError{Field: id.NameField, Error: "this field is required"})
	}
	if err := validate.Struct(s); err != nil {
		return err
	}

	var flds []core.FieldError
	report := func(field, msg string) {
		flds = append(flds, core.FieldError{Field: field, Error: msg})
	}

	switch cfg.Family {
	case event.FamilyCricket:
		var complete int
		for _, m := range s.Members {
			if m.complete() {
				complete++
			}
		}
		if complete < cfg.MinMembers {
			report("team_members", fmt.Sprintf("needs at least %d players with a name and a 10 digit phone number", cfg.MinMembers))
		}

	case event.FamilyCouplePass:
		pass, _ := cfg.Pass(s.PassType)
		if !pass.Paired {
			s.Partner = nil
			break
		}
		validatePartner(validate, s.Partner, id.Email, report)

	case event.FamilyPhotography:
		if len(s.PhotoTitles) == 0 {
			report("photo_titles", "at least one photo title is required")
		}

	case event.FamilyStandard, event.FamilyBundle:
	}

	if quote.Total > 0 {
		if s.UTRNumber == "" {
			report("utr_number", "this field is required")
		} else if !core.IsUTR(s.UTRNumber) {
			report("utr_number", "UTR number must be exactly 12 digits")
		}
	} else {
		s.UTRNumber = ""
		s.PaymentQRUsed = ""
	}

	if len(flds) > 0 {
		return core.NewValidationError(errInvalidSubmission, flds...)
	}
	return nil
}

func validatePartner(validate *validator.Validate, p *Partner, identityEmail string, report func(field, msg string)) {
	if p == nil {
		report("partner", "partner details are required for a couple pass")
		return
	}
	required := []struct{ field, val string }{
		{"partner.name", p.Name},
		{"partner.email", p.Email},
		{"partner.phone", p.Phone},
		{"partner.institution", p.Institution},
		{"partner.gender", p.Gender},
	}
	for _, r := range required {
		if r.val == "" {
			report(r.field, "this field is required")
		}
	}
	if p.Email != "" && validate.Var(p.Email, "email") != nil {
		report("partner.email", "must be a valid email address")
	} else if p.Email != "" && strings.EqualFold(strings.TrimSpace(p.Email), strings.TrimSpace(identityEmail)) {
		report("partner.email", "must differ from your own email address")
	}
	if p.Phone != "" && len(p.Phone) != 10 {
		report("partner.phone", "phone number must contain 10 digits")
	}
}
