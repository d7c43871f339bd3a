package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/festportal/backend/core"
)

const suffix = "@student.university.ac.in"

func TestFeeSchedule_For(t *testing.T) {
	sched := FeeSchedule{Standard: 150, Discounted: 100, DiscountSuffix: suffix}

	tests := []struct {
		email string
		want  int
	}{
		{"someone@gmail.com", 150},
		{"ravi@student.university.ac.in", 100},
		{" RAVI@Student.University.AC.IN ", 100},
		{"ravi@student.university.ac.in.evil.com", 150},
		{"", 150},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, sched.For(tt.email))
		})
	}

	flat := FeeSchedule{Standard: 200}
	assert.Equal(t, 200, flat.For("ravi@student.university.ac.in"))
}

func TestFeeSchedule_IsFree(t *testing.T) {
	assert.True(t, FeeSchedule{}.IsFree())
	assert.False(t, FeeSchedule{Standard: 1}.IsFree())
	assert.False(t, FeeSchedule{Discounted: 10, DiscountSuffix: suffix}.IsFree())
}

func TestConfig_ComputeFee_Standard(t *testing.T) {
	cfg := Config{ID: "solo-singing", Name: "Solo Singing", Fee: FeeSchedule{Standard: 150, Discounted: 100, DiscountSuffix: suffix}}

	q, err := cfg.ComputeFee("a@gmail.com", Selection{})
	require.NoError(t, err)
	assert.Equal(t, 150, q.Total)
	assert.Equal(t, []LineItem{{ID: "solo-singing", Name: "Solo Singing", Fee: 150}}, q.Items)

	q, err = cfg.ComputeFee("a"+suffix, Selection{})
	require.NoError(t, err)
	assert.Equal(t, 100, q.Total)
}

func TestConfig_ComputeFee_CouplePass(t *testing.T) {
	cfg := Config{
		ID:     "fest-pass",
		Family: FamilyCouplePass,
		Passes: []Pass{
			{ID: "single", Name: "Single Pass", Fee: FeeSchedule{Standard: 499, Discounted: 399, DiscountSuffix: suffix}},
			{ID: "couple", Name: "Couple Pass", Paired: true, Fee: FeeSchedule{Standard: 899, Discounted: 749, DiscountSuffix: suffix}},
		},
	}

	tests := []struct {
		name      string
		email     string
		pass      string
		want      int
		wantField string
	}{
		{name: "single", email: "a@gmail.com", pass: "single", want: 499},
		{name: "single discounted", email: "a" + suffix, pass: "single", want: 399},
		{name: "couple", email: "a@gmail.com", pass: "Couple", want: 899},
		{name: "couple discounted", email: "a" + suffix, pass: "couple", want: 749},
		{name: "missing pass", email: "a@gmail.com", pass: "", wantField: "pass_type"},
		{name: "unknown pass", email: "a@gmail.com", pass: "vip", wantField: "pass_type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := cfg.ComputeFee(tt.email, Selection{PassType: tt.pass})
			if tt.wantField != "" {
				requireFieldError(t, err, tt.wantField)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, q.Total)
			assert.Len(t, q.Items, 1)
		})
	}
}

func TestConfig_ComputeFee_Bundle(t *testing.T) {
	cfg := Config{
		ID:     "tech-bundle",
		Family: FamilyBundle,
		SubEvents: []SubEvent{
			{ID: "code-sprint", Name: "Code Sprint", Fee: FeeSchedule{Standard: 100, Discounted: 60, DiscountSuffix: suffix}},
			{ID: "robo-race", Name: "Robo Race", Fee: FeeSchedule{Standard: 150, Discounted: 100, DiscountSuffix: suffix}},
			{ID: "tech-quiz", Name: "Tech Quiz", Fee: FeeSchedule{Standard: 50}},
		},
	}

	q, err := cfg.ComputeFee("a@gmail.com", Selection{SubEvents: []string{"code-sprint", "tech-quiz"}})
	require.NoError(t, err)
	assert.Equal(t, 150, q.Total)
	assert.Equal(t, []LineItem{
		{ID: "code-sprint", Name: "Code Sprint", Fee: 100},
		{ID: "tech-quiz", Name: "Tech Quiz", Fee: 50},
	}, q.Items)

	// discount applies per sub-event; duplicates are counted once
	q, err = cfg.ComputeFee("a"+suffix, Selection{SubEvents: []string{"code-sprint", "robo-race", "CODE-SPRINT", "tech-quiz"}})
	require.NoError(t, err)
	assert.Equal(t, 60+100+50, q.Total)
	assert.Len(t, q.Items, 3)

	_, err = cfg.ComputeFee("a@gmail.com", Selection{})
	requireFieldError(t, err, "sub_events")

	_, err = cfg.ComputeFee("a@gmail.com", Selection{SubEvents: []string{"code-sprint", "sumo"}})
	requireFieldError(t, err, "sub_events")
}

func requireFieldError(t *testing.T, err error, field string) {
	t.Helper()
	require.Error(t, err)
	verr, ok := err.(*core.ValidationError)
	require.True(t, ok, "want *core.ValidationError; got %T", err)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, field, verr.Fields[0].Field)
}
