package event

import (
	"net/mail"
	"regexp"
	"sort"

	"github.com/pkg/errors"

	"github.com/festportal/backend/core"
)

const defaultMinCricketMembers = 11

var (
	ErrNotFound = errors.New("event not found")

	tableRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)
)

type (
	SubEvent struct {
		ID   string      `json:"id"`
		Name string      `json:"name"`
		Fee  FeeSchedule `json:"fee"`
	}

	Pass struct {
		ID     string      `json:"id"`
		Name   string      `json:"name"`
		Paired bool        `json:"paired"` // requires partner details
		Fee    FeeSchedule `json:"fee"`
	}

	// Config is the static configuration of one event.
	Config struct {
		ID         string       `json:"id"`
		Name       string       `json:"name"`
		Table      string       `json:"-"`
		Sender     mail.Address `json:"-"`
		Open       bool         `json:"registration_open"`
		Category   Category     `json:"category"`
		Family     Family       `json:"family"`
		Fee        FeeSchedule  `json:"fee"`
		Passes     []Pass       `json:"passes,omitempty"`
		SubEvents  []SubEvent   `json:"sub_events,omitempty"`
		MinMembers int          `json:"min_members,omitempty"`
		FormURL    string       `json:"-"`
		Template   string       `json:"-"`
	}

	// Registry is an immutable lookup of event configurations.
	Registry struct {
		events map[string]Config
		order  []string
	}
)

// NewRegistry validates cfgs and indexes them by ID, keeping their order.
func NewRegistry(cfgs ...Config) (*Registry, error) {
	reg := &Registry{
		events: make(map[string]Config, len(cfgs)),
		order:  make([]string, 0, len(cfgs)),
	}
	tables := make(map[string]string, len(cfgs))

	for _, cfg := range cfgs {
		// lookups lowercase their input
		cfg.ID = core.CleanString(cfg.ID, true)
		cfg.Passes = append([]Pass(nil), cfg.Passes...)
		for i := range cfg.Passes {
			cfg.Passes[i].ID = core.CleanString(cfg.Passes[i].ID, true)
		}
		cfg.SubEvents = append([]SubEvent(nil), cfg.SubEvents...)
		for i := range cfg.SubEvents {
			cfg.SubEvents[i].ID = core.CleanString(cfg.SubEvents[i].ID, true)
		}

		if cfg.ID == "" {
			return nil, errors.New("event without id")
		}
		if _, dup := reg.events[cfg.ID]; dup {
			return nil, errors.Errorf("duplicate event id %q", cfg.ID)
		}
		if !tableRegex.MatchString(cfg.Table) {
			return nil, errors.Errorf("event %q: invalid table name %q", cfg.ID, cfg.Table)
		}
		if other, dup := tables[cfg.Table]; dup {
			return nil, errors.Errorf("events %q and %q share table %q", other, cfg.ID, cfg.Table)
		}
		if _, ok := categoryNames[cfg.Category]; !ok {
			return nil, errors.Errorf("event %q: invalid category %v", cfg.ID, cfg.Category)
		}

		switch cfg.Family {
		case FamilyCricket:
			if cfg.MinMembers == 0 {
				cfg.MinMembers = defaultMinCricketMembers
			}
		case FamilyCouplePass:
			if len(cfg.Passes) == 0 {
				return nil, errors.Errorf("event %q: couple pass event without passes", cfg.ID)
			}
		case FamilyBundle:
			if len(cfg.SubEvents) == 0 {
				return nil, errors.Errorf("event %q: bundle event without sub-events", cfg.ID)
			}
		case FamilyStandard, FamilyPhotography:
		default:
			return nil, errors.Errorf("event %q: invalid family %v", cfg.ID, cfg.Family)
		}

		if cfg.Name == "" {
			cfg.Name = cfg.ID
		}
		if cfg.Template == "" {
			cfg.Template = defaultTemplate(cfg)
		}

		tables[cfg.Table] = cfg.ID
		reg.events[cfg.ID] = cfg
		reg.order = append(reg.order, cfg.ID)
	}
	return reg, nil
}

func defaultTemplate(cfg Config) string {
	switch cfg.Family {
	case FamilyCouplePass:
		return "registration_pass"
	case FamilyBundle:
		return "registration_bundle"
	}
	if cfg.Category == CategoryIndividual || cfg.Category == CategoryDirectField {
		return "registration_individual"
	}
	return "registration_team"
}

// Lookup returns the configuration of the event identified by id.
func (r *Registry) Lookup(id string) (Config, bool) {
	cfg, ok := r.events[id]
	return cfg, ok
}

// All returns every event in registry order.
func (r *Registry) All() []Config {
	cfgs := make([]Config, 0, len(r.order))
	for _, id := range r.order {
		cfgs = append(cfgs, r.events[id])
	}
	return cfgs
}

// Tables returns the sorted storage tables of every event.
func (r *Registry) Tables() []string {
	tables := make([]string, 0, len(r.events))
	for _, cfg := range r.events {
		tables = append(tables, cfg.Table)
	}
	sort.Strings(tables)
	return tables
}

func (cfg Config) Pass(id string) (Pass, bool) {
	for _, p := range cfg.Passes {
		if p.ID == id {
			return p, true
		}
	}
	return Pass{}, false
}

func (cfg Config) SubEvent(id string) (SubEvent, bool) {
	for _, se := range cfg.SubEvents {
		if se.ID == id {
			return se, true
		}
	}
	return SubEvent{}, false
}

// RequiresPayment reports whether a registration can ever cost money.
func (cfg Config) RequiresPayment() bool {
	if !cfg.Fee.IsFree() {
		return true
	}
	for _, p := range cfg.Passes {
		if !p.Fee.IsFree() {
			return true
		}
	}
	for _, se := range cfg.SubEvents {
		if !se.Fee.IsFree() {
			return true
		}
	}
	return false
}
