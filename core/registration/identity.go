package registration

import (
	"github.com/festportal/backend/core"
	"github.com/festportal/backend/core/event"
)

// Identity is the primary contact of a registration.
type Identity struct {
	EmailField string
	NameField  string
	Email      string
	Name       string
}

// ResolveIdentity picks the contact fields of sub according to the category of cfg.
// An empty email fails with ErrMissingIdentity.
func ResolveIdentity(cfg event.Config, sub Submission) (Identity, error) {
	id := Identity{}
	id.EmailField, id.NameField = cfg.Category.IdentityFields()

	switch cfg.Category {
	case event.CategoryGaming:
		id.Email, id.Name = sub.Player1Email, sub.Player1Name
	case event.CategoryIndividual:
		id.Email, id.Name = sub.ParticipantEmail, sub.ParticipantName
	case event.CategoryDirectField:
		id.Email, id.Name = sub.Email, sub.Name
	case event.CategoryTeam:
		id.Email, id.Name = sub.TeamLeaderEmail, sub.TeamLeaderName
	}
	id.Email = core.CleanString(id.Email, true /* lower */)
	id.Name = core.CleanString(id.Name)

	if id.Email == "" {
		return id, core.NewValidationError(ErrMissingIdentity, core.FieldError{Field: id.EmailField, Error: "this field is required"})
	}
	return id, nil
}
