package event

import (
	"fmt"
	"strings"
)

// Category decides which submitted fields identify the primary contact of a registration.
type Category int

const (
	// CategoryTeam is the generic team event led by a team leader.
	CategoryTeam Category = iota
	// CategoryGaming events register squads whose first player is the contact.
	CategoryGaming
	// CategoryIndividual events register a single participant.
	CategoryIndividual
	// CategoryDirectField events use plain `name` / `email` fields.
	CategoryDirectField
)

var categoryNames = map[Category]string{
	CategoryTeam:        "team",
	CategoryGaming:      "gaming",
	CategoryIndividual:  "individual",
	CategoryDirectField: "direct",
}

func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return CategoryTeam, nil
	}
	for c, name := range categoryNames {
		if name == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown event category %q", s)
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// IdentityFields returns the names of the payload fields holding the contact email and name.
func (c Category) IdentityFields() (emailField, nameField string) {
	switch c {
	case CategoryGaming:
		return "player1_email", "player1_name"
	case CategoryIndividual:
		return "participant_email", "participant_name"
	case CategoryDirectField:
		return "email", "name"
	case CategoryTeam:
		return "team_leader_email", "team_leader_name"
	}
	panic(fmt.Sprintf("event: unhandled category %v", c))
}

// Family groups events sharing the same payload shape and validation rules.
type Family int

const (
	FamilyStandard Family = iota
	// FamilyCricket requires a full playing eleven.
	FamilyCricket
	// FamilyCouplePass sells single or couple passes; couples carry a partner.
	FamilyCouplePass
	// FamilyBundle lets the registrant pick several priced sub-events.
	FamilyBundle
	// FamilyPhotography requires at least one photo title.
	FamilyPhotography
)

var familyNames = map[Family]string{
	FamilyStandard:    "standard",
	FamilyCricket:     "cricket",
	FamilyCouplePass:  "couple_pass",
	FamilyBundle:      "bundle",
	FamilyPhotography: "photography",
}

func ParseFamily(s string) (Family, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return FamilyStandard, nil
	}
	for f, name := range familyNames {
		if name == s {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown event family %q", s)
}

func (f Family) String() string {
	if name, ok := familyNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Family(%d)", int(f))
}

func (f Family) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}
