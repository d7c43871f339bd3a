package event

import (
	"encoding/json"
	"testing"
)

func TestCategory_IdentityFields(t *testing.T) {
	tests := []struct {
		category  Category
		wantEmail string
		wantName  string
	}{
		{CategoryGaming, "player1_email", "player1_name"},
		{CategoryIndividual, "participant_email", "participant_name"},
		{CategoryDirectField, "email", "name"},
		{CategoryTeam, "team_leader_email", "team_leader_name"},
	}
	for _, tt := range tests {
		t.Run(tt.category.String(), func(t *testing.T) {
			email, name := tt.category.IdentityFields()
			if email != tt.wantEmail || name != tt.wantName {
				t.Errorf("IdentityFields() = (%s, %s); want (%s, %s)", email, name, tt.wantEmail, tt.wantName)
			}
		})
	}
}

func TestCategory_IdentityFieldsUnknownPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("IdentityFields() did not panic on an unknown category")
		}
	}()
	Category(42).IdentityFields()
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in      string
		want    Category
		wantErr bool
	}{
		{in: "", want: CategoryTeam},
		{in: "team", want: CategoryTeam},
		{in: " Gaming ", want: CategoryGaming},
		{in: "INDIVIDUAL", want: CategoryIndividual},
		{in: "direct", want: CategoryDirectField},
		{in: "solo", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCategory(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCategory() err = %v; wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseCategory() = %v; want %v", got, tt.want)
			}
		})
	}
}

func TestParseFamily(t *testing.T) {
	for f, name := range familyNames {
		got, err := ParseFamily(name)
		if err != nil || got != f {
			t.Errorf("ParseFamily(%q) = %v, %v; want %v", name, got, err, f)
		}
	}
	if got, err := ParseFamily(""); err != nil || got != FamilyStandard {
		t.Errorf("ParseFamily(\"\") = %v, %v; want standard", got, err)
	}
	if _, err := ParseFamily("relay"); err == nil {
		t.Error("ParseFamily(relay) should fail")
	}
}

func TestCategory_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Category Category `json:"category"`
		Family   Family   `json:"family"`
	}{CategoryGaming, FamilyCouplePass})
	if err != nil {
		t.Fatalf("json.Marshal(): %v", err)
	}
	if want := `{"category":"gaming","family":"couple_pass"}`; string(data) != want {
		t.Errorf("json = %s; want %s", data, want)
	}
}
