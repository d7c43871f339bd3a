package tests

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/festportal/backend/core/registration"
)

func bgmiSquad(email string) map[string]interface{} {
	return map[string]interface{}{
		"player1_name":  "Ravi",
		"player1_email": email,
		"player1_uid":   "5123456789",
		"phone":         "+91 98765 43210",
		"institution":   "City College",
		"team_name":     "Chicken Dinner",
		"players": []map[string]string{
			{"name": "Asha", "uid": "5100000001"},
			{"name": "Kiran", "uid": "5100000002"},
		},
		"utr_number": "123456789012",
	}
}

func Test_registrationApi_create(t *testing.T) {
	e := setup(t)

	rec := e.do(t, http.MethodPost, "/v1/register/bgmi", "", bgmiSquad("Ravi@Example.com"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var res registration.RegisterResult
	decode(t, rec, &res)
	assert.True(t, res.Success)
	assert.True(t, res.EmailSent)
	assert.Equal(t, 200, res.AmountPaid)
	assert.NotEmpty(t, res.ID)

	reg, err := e.repo.GetRegistration(context.Background(), "bgmi_registrations", res.ID)
	require.NoError(t, err)
	assert.Equal(t, "ravi@example.com", reg.IdentityEmail)
	assert.Equal(t, "9876543210", reg.Phone)
	assert.True(t, reg.EmailSent)

	sent := e.mail.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "ravi@example.com", sent[0].To[0].Address)

	closed := map[string]interface{}{"participant_name": "Mic", "participant_email": "mic@example.com", "phone": "9876543210"}
	badPhone := bgmiSquad("phone@example.com")
	badPhone["phone"] = "12345"

	e.run(t, []httpTest{
		{
			name: "duplicate email (case insensitive)", method: http.MethodPost, path: "/v1/register/bgmi",
			body: bgmiSquad(" RAVI@example.com "), wantCode: http.StatusConflict,
			wantData: httpErr{Error: "this email is already registered for this event"},
		},
		{
			name: "unknown event", method: http.MethodPost, path: "/v1/register/karaoke",
			body: bgmiSquad("a@example.com"), wantCode: http.StatusBadRequest,
			wantData: map[string]interface{}{"error": "unknown event", "fields": map[string]string{"eventId": "unknown event"}},
		},
		{
			name: "closed event", method: http.MethodPost, path: "/v1/register/open-mic",
			body: closed, wantCode: http.StatusBadRequest,
			wantData: httpErr{Error: "registrations for this event are closed"},
		},
		{
			name: "missing identity", method: http.MethodPost, path: "/v1/register/valorant",
			body:     map[string]interface{}{"email": "wrong-field@example.com", "phone": "9876543210"},
			wantCode: http.StatusBadRequest,
			wantData: map[string]interface{}{
				"error":  "contact email is required",
				"fields": map[string]string{"player1_email": "this field is required"},
			},
		},
		{
			name: "invalid phone", method: http.MethodPost, path: "/v1/register/bgmi",
			body: badPhone, wantCode: http.StatusBadRequest,
			wantData: map[string]interface{}{
				"error":  "invalid registration",
				"fields": map[string]string{"phone": "phone number must contain 10 digits"},
			},
		},
		{
			name: "missing UTR", method: http.MethodPost, path: "/v1/register/group-dance",
			body:     map[string]interface{}{"team_leader_name": "Lead", "team_leader_email": "lead@example.com", "phone": "9876543210"},
			wantCode: http.StatusBadRequest,
			wantData: map[string]interface{}{
				"error":  "invalid registration",
				"fields": map[string]string{"utr_number": "this field is required"},
			},
		},
		{
			name: "malformed body", method: http.MethodPost, path: "/v1/register/bgmi",
			body: "not an object", wantCode: http.StatusBadRequest,
			wantData: httpErr{Error: "invalid request body"},
		},
	})

	// rejected requests create nothing
	assert.Len(t, e.mail.SentMessages(), 1)
}

func Test_registrationApi_createGeneric(t *testing.T) {
	e := setup(t)

	rec := e.do(t, http.MethodPost, "/v1/register", "", map[string]interface{}{
		"eventId":           "box-cricket",
		"team_leader_name":  "Captain",
		"team_leader_email": "captain@student.university.ac.in",
		"phone":             "9876543210",
		"team_members":      cricketMembers(11),
		"utr_number":        "123456789012",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var res registration.RegisterResult
	decode(t, rec, &res)
	assert.Equal(t, 880, res.AmountPaid)

	rec = e.do(t, http.MethodPost, "/v1/register", "", map[string]interface{}{
		"eventId":           "box-cricket",
		"team_leader_name":  "Captain",
		"team_leader_email": "short@example.com",
		"phone":             "9876543210",
		"team_members":      cricketMembers(10),
		"utr_number":        "123456789012",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "team_members")
}

func Test_registrationApi_notificationFailure(t *testing.T) {
	e := setup(t)
	e.mail.SetFail(errors.New("provider down"))

	rec := e.do(t, http.MethodPost, "/v1/register/hackathon", "", map[string]interface{}{
		"team_leader_name": "Dev", "team_leader_email": "dev@example.com", "phone": "9876543210",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var res registration.RegisterResult
	decode(t, rec, &res)
	assert.True(t, res.Success)
	assert.False(t, res.EmailSent)
	assert.Equal(t, 0, res.AmountPaid)

	errs := e.logger.Entries("error")
	require.Len(t, errs, 1)
	assert.True(t, strings.Contains(errs[0].Msg, "provider down"))
}

func cricketMembers(n int) []map[string]string {
	out := make([]map[string]string, n)
	for i := range out {
		out[i] = map[string]string{"name": "Player " + string(rune('A'+i)), "phone": "98765432" + string(rune('0'+i/10)) + string(rune('0'+i%10))}
	}
	return out
}
