package registration

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/festportal/backend/core"
	"github.com/festportal/backend/core/event"
)

// Registration is one row of an event table.
type Registration struct {
	ID                 string      `json:"id" db:"id"`
	EventID            string      `json:"event_id" db:"-"`
	IdentityEmail      string      `json:"identity_email" db:"identity_email"`
	IdentityName       string      `json:"identity_name" db:"identity_name"`
	Phone              string      `json:"phone" db:"phone"`
	Institution        string      `json:"institution" db:"institution"`
	AmountPaid         int         `json:"amount_paid" db:"amount_paid"`
	UTRNumber          string      `json:"utr_number" db:"utr_number"`
	PaymentQRUsed      string      `json:"payment_qr_used" db:"payment_qr_used"`
	EmailSent          bool        `json:"email_sent" db:"email_sent"`
	QRCodeSent         bool        `json:"qr_code_sent" db:"qr_code_sent"`
	FormLinkSent       bool        `json:"form_link_sent" db:"form_link_sent"`
	CheckedIn          bool        `json:"checked_in" db:"checked_in"`
	CheckedInAt        null.Time   `json:"checked_in_at" db:"checked_in_at"`
	RegistrationStatus null.String `json:"registration_status" db:"registration_status"`
	Details            Details     `json:"details" db:"details"`
	CreatedAt          time.Time   `json:"created_at" db:"created_at"` // UTC
	UpdatedAt          time.Time   `json:"updated_at" db:"updated_at"` // UTC
}

// Details is the event specific part of a registration, stored as JSON.
type Details struct {
	IdentityField string           `json:"identity_field"`
	TeamName      string           `json:"team_name,omitempty"`
	Gender        string           `json:"gender,omitempty"`
	Members       []Member         `json:"team_members,omitempty"`
	Players       []Player         `json:"players,omitempty"`
	PassType      string           `json:"pass_type,omitempty"`
	Partner       *Partner         `json:"partner,omitempty"`
	Selections    []event.LineItem `json:"sub_events,omitempty"`
	PhotoTitles   []string         `json:"photo_titles,omitempty"`
}

func (d Details) Value() (driver.Value, error) {
	return json.Marshal(d)
}

func (d *Details) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*d = Details{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.Errorf("registration.Details: cannot scan %T", src)
	}
	return json.Unmarshal(data, d)
}

type (
	Member struct {
		Name  string `json:"name"`
		Email string `json:"email,omitempty" validate:"omitempty,email"`
		Phone string `json:"phone"`
	}

	Player struct {
		Name string `json:"name" validate:"required"`
		UID  string `json:"uid" validate:"required"`
	}

	Partner struct {
		Name        string `json:"name"`
		Email       string `json:"email"`
		Phone       string `json:"phone"`
		Institution string `json:"institution"`
		Gender      string `json:"gender"`
	}
)

// complete reports whether m can count towards a team's minimum size.
func (m Member) complete() bool {
	return m.Name != "" && len(m.Phone) == 10
}

func (p *Partner) clean() {
	p.Name = core.CleanString(p.Name)
	p.Email = core.CleanString(p.Email, true /* lower */)
	p.Phone = core.NormalizePhone(p.Phone)
	p.Institution = core.CleanString(p.Institution)
	p.Gender = core.CleanString(p.Gender, true /* lower */)
}

// Submission is the registration form payload shared by every event family.
// Which identity pair is used depends on the event category.
type Submission struct {
	EventID string `json:"eventId"`

	ParticipantName  string `json:"participant_name"`
	ParticipantEmail string `json:"participant_email"`
	TeamLeaderName   string `json:"team_leader_name"`
	TeamLeaderEmail  string `json:"team_leader_email"`
	Player1Name      string `json:"player1_name"`
	Player1Email     string `json:"player1_email"`
	Player1UID       string `json:"player1_uid"`
	Name             string `json:"name"`
	Email            string `json:"email"`

	Phone       string   `json:"phone" validate:"required,phone10"`
	Institution string   `json:"institution"`
	Gender      string   `json:"gender"`
	TeamName    string   `json:"team_name"`
	Members     []Member `json:"team_members" validate:"omitempty,dive"`
	Players     []Player `json:"players" validate:"omitempty,dive"`
	PassType    string   `json:"pass_type"`
	Partner     *Partner `json:"partner"`
	SubEvents   []string `json:"sub_events"`
	PhotoTitles []string `json:"photo_titles"`

	UTRNumber     string `json:"utr_number"`
	PaymentQRUsed string `json:"payment_qr_used"`
}

// Clean trims every field, lowers emails and normalizes phone numbers.
func (s *Submission) Clean() {
	s.EventID = core.CleanString(s.EventID, true /* lower */)
	s.ParticipantName = core.CleanString(s.ParticipantName)
	s.ParticipantEmail = core.CleanString(s.ParticipantEmail, true /* lower */)
	s.TeamLeaderName = core.CleanString(s.TeamLeaderName)
	s.TeamLeaderEmail = core.CleanString(s.TeamLeaderEmail, true /* lower */)
	s.Player1Name = core.CleanString(s.Player1Name)
	s.Player1Email = core.CleanString(s.Player1Email, true /* lower */)
	s.Player1UID = core.CleanString(s.Player1UID)
	s.Name = core.CleanString(s.Name)
	s.Email = core.CleanString(s.Email, true /* lower */)

	s.Phone = core.NormalizePhone(s.Phone)
	s.Institution = core.CleanString(s.Institution)
	s.Gender = core.CleanString(s.Gender, true /* lower */)
	s.TeamName = core.CleanString(s.TeamName)
	s.PassType = core.CleanString(s.PassType, true /* lower */)
	s.UTRNumber = core.CleanString(s.UTRNumber)
	s.PaymentQRUsed = core.CleanString(s.PaymentQRUsed)

	members := s.Members[:0]
	for _, m := range s.Members {
		m.Name = core.CleanString(m.Name)
		m.Email = core.CleanString(m.Email, true /* lower */)
		m.Phone = core.NormalizePhone(m.Phone)
		if m.Name == "" && m.Email == "" && m.Phone == "" {
			continue // blank form rows
		}
		members = append(members, m)
	}
	s.Members = members

	for i := range s.Players {
		s.Players[i].Name = core.CleanString(s.Players[i].Name)
		s.Players[i].UID = core.CleanString(s.Players[i].UID)
	}
	if s.Partner != nil {
		s.Partner.clean()
	}

	subEvents := s.SubEvents[:0]
	for _, se := range s.SubEvents {
		if se = core.CleanString(se, true /* lower */); se != "" {
			subEvents = append(subEvents, se)
		}
	}
	s.SubEvents = subEvents

	titles := s.PhotoTitles[:0]
	for _, t := range s.PhotoTitles {
		if t = core.CleanString(t); t != "" {
			titles = append(titles, t)
		}
	}
	s.PhotoTitles = titles
}

func (s *Submission) Selection() event.Selection {
	return event.Selection{PassType: s.PassType, SubEvents: s.SubEvents}
}

type (
	RegisterResult struct {
		ID         string `json:"registrationId"`
		Success    bool   `json:"success"`
		AmountPaid int    `json:"amount_paid"`
		EmailSent  bool   `json:"email_sent"`
	}

	CheckInResult struct {
		Success          bool         `json:"success"`
		AlreadyCheckedIn bool         `json:"alreadyCheckedIn"`
		Registration     Registration `json:"registration"`
	}

	// NotificationFlags are the status flags set once the confirmation email went out.
	NotificationFlags struct {
		EmailSent    bool
		QRCodeSent   bool
		FormLinkSent bool
	}

	// NotificationOutcome is what a Notifier reports back; it never aborts a registration.
	NotificationOutcome struct {
		Sent         bool
		FormLinkSent bool
		Recipient    string
		Err          error
	}
)

func (o NotificationOutcome) Flags() NotificationFlags {
	return NotificationFlags{EmailSent: o.Sent, QRCodeSent: o.Sent, FormLinkSent: o.Sent && o.FormLinkSent}
}
