package event

import (
	"bytes"
	"io"
	"net/mail"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	appfs "github.com/festportal/backend/fs"
)

const defaultEventsFile = "events.yaml"

type (
	feeSpec struct {
		Standard       int    `mapstructure:"standard"`
		Discounted     int    `mapstructure:"discounted"`
		DiscountSuffix string `mapstructure:"discountSuffix"`
	}

	optionSpec struct {
		ID     string  `mapstructure:"id"`
		Name   string  `mapstructure:"name"`
		Paired bool    `mapstructure:"paired"`
		Fee    feeSpec `mapstructure:"fee"`
	}

	eventSpec struct {
		ID         string       `mapstructure:"id"`
		Name       string       `mapstructure:"name"`
		Table      string       `mapstructure:"table"`
		Sender     string       `mapstructure:"sender"`
		Open       bool         `mapstructure:"open"`
		Category   string       `mapstructure:"category"`
		Family     string       `mapstructure:"family"`
		Fee        feeSpec      `mapstructure:"fee"`
		Passes     []optionSpec `mapstructure:"passes"`
		SubEvents  []optionSpec `mapstructure:"subEvents"`
		MinMembers int          `mapstructure:"minMembers"`
		FormURL    string       `mapstructure:"formURL"`
		Template   string       `mapstructure:"template"`
	}
)

// LoadDefault builds the registry bundled with the binary.
func LoadDefault() (*Registry, error) {
	data, err := appfs.FS.ReadFile(defaultEventsFile)
	if err != nil {
		return nil, errors.Wrap(err, "reading bundled events")
	}
	return Load(bytes.NewReader(data))
}

// LoadFile builds the registry from a YAML file; an empty path means the bundled one.
func LoadFile(path string) (*Registry, error) {
	if path == "" {
		return LoadDefault()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening events file")
	}
	defer f.Close()
	return Load(f)
}

// Load builds the registry from a YAML document of the form:
//
//	defaults: {sender: "...", discountSuffix: "..."}
//	events: [{id: ..., table: ..., category: ..., family: ..., fee: {...}}, ...]
func Load(r io.Reader) (*Registry, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(r); err != nil {
		return nil, errors.Wrap(err, "reading events")
	}

	var specs []eventSpec
	if err := v.UnmarshalKey("events", &specs); err != nil {
		return nil, errors.Wrap(err, "decoding events")
	}
	defSender := v.GetString("defaults.sender")
	defSuffix := v.GetString("defaults.discountSuffix")

	cfgs := make([]Config, 0, len(specs))
	for _, spec := range specs {
		cfg, err := spec.toConfig(defSender, defSuffix)
		if err != nil {
			return nil, err
		}
		cfgs = append(cfgs, cfg)
	}
	return NewRegistry(cfgs...)
}

func (spec eventSpec) toConfig(defSender, defSuffix string) (Config, error) {
	category, err := ParseCategory(spec.Category)
	if err != nil {
		return Config{}, errors.Wrapf(err, "event %q", spec.ID)
	}
	family, err := ParseFamily(spec.Family)
	if err != nil {
		return Config{}, errors.Wrapf(err, "event %q", spec.ID)
	}

	sender := spec.Sender
	if sender == "" {
		sender = defSender
	}
	var from mail.Address
	if sender != "" {
		addr, err := mail.ParseAddress(sender)
		if err != nil {
			return Config{}, errors.Wrapf(err, "event %q: sender", spec.ID)
		}
		from = *addr
	}

	cfg := Config{
		ID:         spec.ID,
		Name:       spec.Name,
		Table:      spec.Table,
		Sender:     from,
		Open:       spec.Open,
		Category:   category,
		Family:     family,
		Fee:        spec.Fee.toSchedule(defSuffix),
		MinMembers: spec.MinMembers,
		FormURL:    spec.FormURL,
		Template:   spec.Template,
	}
	for _, p := range spec.Passes {
		cfg.Passes = append(cfg.Passes, Pass{ID: p.ID, Name: p.Name, Paired: p.Paired, Fee: p.Fee.toSchedule(defSuffix)})
	}
	for _, se := range spec.SubEvents {
		cfg.SubEvents = append(cfg.SubEvents, SubEvent{ID: se.ID, Name: se.Name, Fee: se.Fee.toSchedule(defSuffix)})
	}
	return cfg, nil
}

// toSchedule applies the default discount suffix to schedules that declare a discounted tier.
func (fs feeSpec) toSchedule(defSuffix string) FeeSchedule {
	sched := FeeSchedule{Standard: fs.Standard, Discounted: fs.Discounted, DiscountSuffix: fs.DiscountSuffix}
	if sched.DiscountSuffix == "" && fs.Discounted > 0 {
		sched.DiscountSuffix = defSuffix
	}
	return sched
}
