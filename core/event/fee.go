package event

import (
	"strings"

	"github.com/festportal/backend/core"
)

// FeeSchedule is a flat fee, optionally discounted for registrants whose identity email
// ends with DiscountSuffix.
type FeeSchedule struct {
	Standard       int    `json:"standard"`
	Discounted     int    `json:"discounted,omitempty"`
	DiscountSuffix string `json:"discount_suffix,omitempty"`
}

// For returns the tier that applies to email.
func (f FeeSchedule) For(email string) int {
	if f.HasDiscount() && strings.HasSuffix(core.CleanString(email, true), strings.ToLower(f.DiscountSuffix)) {
		return f.Discounted
	}
	return f.Standard
}

func (f FeeSchedule) HasDiscount() bool { return f.DiscountSuffix != "" }

func (f FeeSchedule) IsFree() bool {
	return f.Standard == 0 && (!f.HasDiscount() || f.Discounted == 0)
}

type (
	// Selection holds the priced options picked by a registrant.
	Selection struct {
		PassType  string
		SubEvents []string
	}

	LineItem struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Fee  int    `json:"fee"`
	}

	Quote struct {
		Total int        `json:"total"`
		Items []LineItem `json:"items"`
	}
)

// ComputeFee prices a registration. It only depends on cfg, the identity email and sel.
func (cfg Config) ComputeFee(email string, sel Selection) (Quote, error) {
	switch cfg.Family {
	case FamilyCouplePass:
		passType := core.CleanString(sel.PassType, true)
		if passType == "" {
			return Quote{}, core.NewFieldError("pass_type", "this field is required")
		}
		pass, ok := cfg.Pass(passType)
		if !ok {
			return Quote{}, core.NewFieldError("pass_type", "unknown pass type")
		}
		fee := pass.Fee.For(email)
		return Quote{Total: fee, Items: []LineItem{{ID: pass.ID, Name: pass.Name, Fee: fee}}}, nil

	case FamilyBundle:
		if len(sel.SubEvents) == 0 {
			return Quote{}, core.NewFieldError("sub_events", "select at least one event")
		}
		var q Quote
		seen := make(map[string]bool, len(sel.SubEvents))
		for _, id := range sel.SubEvents {
			id = core.CleanString(id, true)
			if seen[id] {
				continue
			}
			seen[id] = true
			se, ok := cfg.SubEvent(id)
			if !ok {
				return Quote{}, core.NewFieldError("sub_events", "unknown event "+id)
			}
			fee := se.Fee.For(email)
			q.Total += fee
			q.Items = append(q.Items, LineItem{ID: se.ID, Name: se.Name, Fee: fee})
		}
		return q, nil
	}

	fee := cfg.Fee.For(email)
	return Quote{Total: fee, Items: []LineItem{{ID: cfg.ID, Name: cfg.Name, Fee: fee}}}, nil
}
