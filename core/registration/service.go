package registration

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/festportal/backend/core"
	"github.com/festportal/backend/core/event"
)

var (
	// errors
	ErrEventNotFound         = errors.New("unknown event")
	ErrRegistrationClosed    = errors.New("registrations for this event are closed")
	ErrMissingIdentity       = errors.New("contact email is required")
	ErrDuplicateRegistration = errors.New("this email is already registered for this event")
	ErrNotFound              = errors.New("registration not found")

	NowFunc = time.Now // mockable
)

// metric outcomes
const (
	OutcomeSuccess   = "success"
	OutcomeInvalid   = "invalid"
	OutcomeDuplicate = "duplicate"
	OutcomeError     = "error"
	OutcomeChecked   = "checked_in"
	OutcomeAlready   = "already_checked_in"
	OutcomeNotFound  = "not_found"
)

type (
	// Repository stores registrations in one table per event.
	Repository interface {
		ExistsByEmail(ctx context.Context, table, email string) (bool, error)
		// CreateRegistration fails with ErrDuplicateRegistration when the identity email is taken.
		CreateRegistration(ctx context.Context, table string, reg Registration) (Registration, error)
		GetRegistration(ctx context.Context, table, id string) (Registration, error)
		SetNotified(ctx context.Context, table, id string, flags NotificationFlags) error
		// CheckIn sets checked_in only if it is still false, reporting whether it did.
		CheckIn(ctx context.Context, table, id string, at time.Time) (Registration, bool, error)
		QueryPendingNotifications(ctx context.Context, table string) ([]Registration, error)
	}

	// Notifier delivers the confirmation of a registration.
	Notifier interface {
		Notify(ctx context.Context, cfg event.Config, reg Registration, qrPNG []byte) NotificationOutcome
	}

	// QREncoder renders content as a PNG QR code.
	QREncoder interface {
		Encode(content string) ([]byte, error)
	}

	// Recorder collects operational counters.
	Recorder interface {
		Registration(eventID, outcome string)
		Notification(eventID string, sent bool)
		CheckIn(outcome string)
	}

	Service struct {
		registry *event.Registry
		repo     Repository
		notifier Notifier
		qr       QREncoder
		validate *validator.Validate
		logger   core.Logger
		metrics  Recorder
	}
)

func NewService(
	registry *event.Registry,
	repo Repository,
	notifier Notifier,
	qr QREncoder,
	validate *validator.Validate,
	logger core.Logger,
	metrics Recorder,
) *Service {
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return &Service{
		registry: registry,
		repo:     repo,
		notifier: notifier,
		qr:       qr,
		validate: validate,
		logger:   logger,
		metrics:  metrics,
	}
}

func (svc *Service) Registry() *event.Registry { return svc.registry }

// openEvent returns the config of eventID if it accepts registrations.
func (svc *Service) openEvent(eventID string) (event.Config, error) {
	cfg, ok := svc.registry.Lookup(core.CleanString(eventID, true /* lower */))
	if !ok {
		return cfg, core.NewValidationError(ErrEventNotFound, core.FieldError{Field: "eventId", Error: ErrEventNotFound.Error()})
	}
	if !cfg.Open {
		return cfg, core.NewValidationError(ErrRegistrationClosed)
	}
	return cfg, nil
}

// Quote prices a tentative submission without storing anything.
func (svc *Service) Quote(eventID string, sub Submission) (event.Quote, error) {
	cfg, err := svc.openEvent(eventID)
	if err != nil {
		return event.Quote{}, err
	}
	sub.Clean()
	id, err := ResolveIdentity(cfg, sub)
	if err != nil {
		return event.Quote{}, err
	}
	return cfg.ComputeFee(id.Email, sub.Selection())
}

// Register validates sub, stores it in the table of eventID and sends the confirmation email.
// A failed notification is logged and leaves the registration in place with email_sent=false.
func (svc *Service) Register(ctx context.Context, eventID string, sub Submission) (RegisterResult, error) {
	reg, err := svc.register(ctx, eventID, sub)
	if err != nil {
		svc.metrics.Registration(svc.metricLabel(eventID), outcomeOf(err))
		return RegisterResult{}, err
	}
	svc.metrics.Registration(reg.EventID, OutcomeSuccess)

	cfg, _ := svc.registry.Lookup(reg.EventID)
	outcome := svc.notify(ctx, cfg, reg)

	return RegisterResult{
		ID:         reg.ID,
		Success:    true,
		AmountPaid: reg.AmountPaid,
		EmailSent:  outcome.Sent,
	}, nil
}

func (svc *Service) register(ctx context.Context, eventID string, sub Submission) (Registration, error) {
	cfg, err := svc.openEvent(eventID)
	if err != nil {
		return Registration{}, err
	}

	sub.Clean()
	id, err := ResolveIdentity(cfg, sub)
	if err != nil {
		return Registration{}, err
	}
	quote, err := cfg.ComputeFee(id.Email, sub.Selection())
	if err != nil {
		return Registration{}, err
	}
	if err = sub.Validate(svc.validate, cfg, id, quote); err != nil {
		return Registration{}, err
	}

	exists, err := svc.repo.ExistsByEmail(ctx, cfg.Table, id.Email)
	if err != nil {
		return Registration{}, errors.Wrap(err, "checking duplicate registration")
	}
	if exists {
		return Registration{}, ErrDuplicateRegistration
	}

	now := NowFunc().UTC()
	reg := Registration{
		EventID:       cfg.ID,
		IdentityEmail: id.Email,
		IdentityName:  id.Name,
		Phone:         sub.Phone,
		Institution:   sub.Institution,
		AmountPaid:    quote.Total,
		UTRNumber:     sub.UTRNumber,
		PaymentQRUsed: sub.PaymentQRUsed,
		Details: Details{
			IdentityField: id.EmailField,
			TeamName:      sub.TeamName,
			Gender:        sub.Gender,
			Members:       sub.Members,
			Players:       sub.Players,
			PassType:      sub.PassType,
			Partner:       sub.Partner,
			PhotoTitles:   sub.PhotoTitles,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if cfg.Family == event.FamilyBundle {
		reg.Details.Selections = quote.Items
	}
	if cfg.Category == event.CategoryGaming && sub.Player1UID != "" {
		reg.Details.Players = append([]Player{{Name: id.Name, UID: sub.Player1UID}}, reg.Details.Players...)
	}

	reg, err = svc.repo.CreateRegistration(ctx, cfg.Table, reg)
	if err != nil {
		if errors.Cause(err) == ErrDuplicateRegistration {
			return Registration{}, ErrDuplicateRegistration
		}
		return Registration{}, errors.Wrap(err, "creating registration")
	}
	reg.EventID = cfg.ID
	return reg, nil
}

// notify never fails: the outcome is logged, counted and, on success, persisted as flags.
func (svc *Service) notify(ctx context.Context, cfg event.Config, reg Registration) NotificationOutcome {
	qrPNG, err := svc.qr.Encode(reg.ID)
	if err != nil {
		outcome := NotificationOutcome{Recipient: reg.IdentityEmail, Err: errors.Wrap(err, "encoding QR code")}
		svc.logOutcome(cfg, reg, outcome)
		return outcome
	}

	outcome := svc.notifier.Notify(ctx, cfg, reg, qrPNG)
	svc.logOutcome(cfg, reg, outcome)
	if !outcome.Sent {
		return outcome
	}
	if err = svc.repo.SetNotified(ctx, cfg.Table, reg.ID, outcome.Flags()); err != nil {
		svc.logger.Error(fmt.Sprintf("flagging registration %s as notified: %v", reg.ID, err), err, reg)
	}
	return outcome
}

func (svc *Service) logOutcome(cfg event.Config, reg Registration, outcome NotificationOutcome) {
	svc.metrics.Notification(cfg.ID, outcome.Sent)
	if outcome.Sent {
		svc.logger.Info(fmt.Sprintf("confirmation for %s/%s sent to %s", cfg.ID, reg.ID, outcome.Recipient))
		return
	}
	svc.logger.Error(
		fmt.Sprintf("confirmation for %s/%s not sent: %v", cfg.ID, reg.ID, outcome.Err),
		outcome.Err,
		reg,
	)
}

// ResendPending notifies again every registration of eventID whose confirmation never went out.
func (svc *Service) ResendPending(ctx context.Context, eventID string) (sent, failed int, err error) {
	cfg, ok := svc.registry.Lookup(core.CleanString(eventID, true /* lower */))
	if !ok {
		return 0, 0, ErrEventNotFound
	}
	pending, err := svc.repo.QueryPendingNotifications(ctx, cfg.Table)
	if err != nil {
		return 0, 0, errors.Wrap(err, "querying pending notifications")
	}
	for _, reg := range pending {
		if err = ctx.Err(); err != nil {
			return sent, failed, err
		}
		reg.EventID = cfg.ID
		if svc.notify(ctx, cfg, reg).Sent {
			sent++
		} else {
			failed++
		}
	}
	return sent, failed, nil
}

// Lookup finds a registration without modifying it. eventID is optional; without it every event
// table is searched.
func (svc *Service) Lookup(ctx context.Context, eventID, id string) (Registration, error) {
	_, reg, err := svc.find(ctx, eventID, id)
	return reg, err
}

// CheckIn marks a registration as checked in. Checking in twice is not an error:
// the second call reports AlreadyCheckedIn and changes nothing.
func (svc *Service) CheckIn(ctx context.Context, eventID, id string) (CheckInResult, error) {
	cfg, _, err := svc.find(ctx, eventID, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			svc.metrics.CheckIn(OutcomeNotFound)
		}
		return CheckInResult{}, err
	}

	reg, transitioned, err := svc.repo.CheckIn(ctx, cfg.Table, core.CleanString(id, true /* lower */), NowFunc().UTC())
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			svc.metrics.CheckIn(OutcomeNotFound)
			return CheckInResult{}, ErrNotFound
		}
		return CheckInResult{}, errors.Wrap(err, "checking in")
	}
	reg.EventID = cfg.ID

	if transitioned {
		svc.metrics.CheckIn(OutcomeChecked)
	} else {
		svc.metrics.CheckIn(OutcomeAlready)
	}
	return CheckInResult{Success: true, AlreadyCheckedIn: !transitioned, Registration: reg}, nil
}

func (svc *Service) find(ctx context.Context, eventID, id string) (event.Config, Registration, error) {
	u, err := uuid.Parse(core.CleanString(id, false))
	if err != nil {
		return event.Config{}, Registration{}, ErrNotFound
	}
	id = u.String() // canonical form, as stored

	var cfgs []event.Config
	if eventID = core.CleanString(eventID, true /* lower */); eventID != "" {
		cfg, ok := svc.registry.Lookup(eventID)
		if !ok {
			return event.Config{}, Registration{}, core.NewValidationError(ErrEventNotFound, core.FieldError{Field: "eventId", Error: ErrEventNotFound.Error()})
		}
		cfgs = []event.Config{cfg}
	} else {
		cfgs = svc.registry.All()
	}

	for _, cfg := range cfgs {
		reg, err := svc.repo.GetRegistration(ctx, cfg.Table, id)
		if err == nil {
			reg.EventID = cfg.ID
			return cfg, reg, nil
		}
		if errors.Cause(err) != ErrNotFound {
			return event.Config{}, Registration{}, errors.Wrap(err, "finding registration")
		}
	}
	return event.Config{}, Registration{}, ErrNotFound
}

// metricLabel keeps label cardinality bounded by the registry.
func (svc *Service) metricLabel(eventID string) string {
	eventID = core.CleanString(eventID, true /* lower */)
	if _, ok := svc.registry.Lookup(eventID); ok {
		return eventID
	}
	return "unknown"
}

func outcomeOf(err error) string {
	switch {
	case errors.Cause(err) == ErrDuplicateRegistration:
		return OutcomeDuplicate
	case core.IsValidationError(err):
		return OutcomeInvalid
	}
	if _, ok := errors.Cause(err).(validator.ValidationErrors); ok {
		return OutcomeInvalid
	}
	return OutcomeError
}

type nopRecorder struct{}

func (nopRecorder) Registration(string, string) {}
func (nopRecorder) Notification(string, bool)   {}
func (nopRecorder) CheckIn(string)              {}
