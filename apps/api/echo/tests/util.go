package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	. "github.com/festportal/backend/apps/api/echo"
	"github.com/festportal/backend/core"
	"github.com/festportal/backend/core/registration"
	"github.com/festportal/backend/core/staff"
	"github.com/festportal/backend/services/email"
	"github.com/festportal/backend/services/metrics"
	"github.com/festportal/backend/services/qrcode"
	"github.com/festportal/backend/storage/database/inmem"
	"github.com/festportal/backend/tests"
)

const (
	staffUser     = "gate1"
	staffPassword = "letmein"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type env struct {
	app    *Server
	conf   *core.Config
	repo   registration.Repository
	mail   *emailsvc.ConsoleServiceMock
	logger *testutil.Logger
}

func testConfig() *core.Config {
	return &core.Config{
		TestMode:        true,
		Env:             "TEST",
		AppName:         "Fest Portal",
		SecretKey:       "test-secret",
		FrontendBaseURL: "http://localhost:3000",
		Server:          core.ServerConfig{JWTExpirationDelta: time.Hour},
	}
}

func setup(t *testing.T) env {
	conf := testConfig()
	hash, err := bcrypt.GenerateFromPassword([]byte(staffPassword), bcrypt.MinCost)
	require.NoError(t, err)
	dir, err := staff.ParseAccounts(staffUser + ":" + string(hash))
	require.NoError(t, err)

	e := env{
		conf:   conf,
		repo:   inmemdb.NewRegistrationRepository(inmemdb.Open()),
		mail:   emailsvc.NewConsoleServiceMock(),
		logger: &testutil.Logger{},
	}
	translator := core.NewTranslator()
	metrics := metricsvc.NewPrometheus()
	svc := registration.NewService(
		testutil.Registry(t),
		e.repo,
		registration.NewComposer(e.mail, conf.FrontendBaseURL),
		qrsvc.NewEncoder(128),
		testutil.NewValidator(),
		e.logger,
		metrics,
	)
	e.app = NewServer(&Deps{
		Conf:          conf,
		Logger:        e.logger,
		Registrations: svc,
		Staff:         dir,
		Translator:    translator,
		Metrics:       metrics.Handler(),
	})
	return e
}

func (e env) staffToken(t *testing.T) string {
	token, err := GenerateToken(e.conf, StaffClaims(e.conf, staffUser))
	require.NoError(t, err)
	return token
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     interface{}
	token    string
	wantCode int
	wantData interface{} // compared as JSON when set
}

func newAuthRequest(t *testing.T, method, path, token string, body interface{}) (*http.Request, *httptest.ResponseRecorder) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, httptest.NewRecorder()
}

func (e env) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(t, method, path, token, body)
	e.app.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func marshal(t *testing.T, v interface{}) string {
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func (e env) run(t *testing.T, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(t, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantData != nil {
				assert.JSONEq(t, marshal(t, tt.wantData), rec.Body.String())
			}
		})
	}
}
