package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/akash12888/note-taking-app/internal/api"
	"github.com/akash12888/note-taking-app/internal/app"
	iauth "github.com/akash12888/note-taking-app/internal/auth"
	dbtestutil "github.com/akash12888/note-taking-app/internal/database/testutil"
	"github.com/akash12888/note-taking-app/pkg/mail"
)

// CookieName is the session cookie used by the test environment.
const CookieName = "authToken"

var codePattern = regexp.MustCompile(`\b(\d{6})\b`)

// CapturingMailer records outbound messages instead of delivering them.
type CapturingMailer struct {
	mu       sync.Mutex
	Messages []mail.Message
}

func (m *CapturingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, msg)
	return nil
}

// LastCode extracts the one-time code from the most recent message.
func (m *CapturingMailer) LastCode(t *testing.T) string {
	t.Helper()

	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.Messages, "no email was sent")

	match := codePattern.FindStringSubmatch(m.Messages[len(m.Messages)-1].Body)
	require.Len(t, match, 2, "no code found in email body")
	return match[1]
}

// Env encapsulates a fully wired API instance backed by an in-memory database.
type Env struct {
	T      *testing.T
	DB     *gorm.DB
	Router *gin.Engine
	JWT    *iauth.JWTService
	Mailer *CapturingMailer
}

// NewEnv provisions a fresh handler test environment with migrations applied.
func NewEnv(t *testing.T) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := dbtestutil.MustOpenTestDB(t, dbtestutil.WithAutoMigrate())

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret: "test-suite-super-secret-key-32-bytes!!",
		Issuer: "test-suite",
	})
	require.NoError(t, err)

	cfg := &app.Config{
		Server: app.ServerConfig{
			Environment: "development",
		},
		Auth: app.AuthConfig{
			JWT: app.JWTSettings{
				Secret: "test-suite-super-secret-key-32-bytes!!",
				Issuer: "test-suite",
				TTL:    time.Hour,
			},
			OTP: app.OTPSettings{
				Length: 6,
				TTL:    5 * time.Minute,
			},
			Cookie: app.CookieSettings{Name: CookieName},
		},
		Monitoring: app.MonitoringConfig{
			Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
		},
	}

	mailer := &CapturingMailer{}

	router, err := api.NewRouter(cfg, api.Deps{DB: db, JWT: jwtSvc, Mailer: mailer})
	require.NoError(t, err)

	return &Env{
		T:      t,
		DB:     db,
		Router: router,
		JWT:    jwtSvc,
		Mailer: mailer,
	}
}

// Request performs an HTTP request against the in-memory router. A non-empty
// token is attached as a bearer header.
func (e *Env) Request(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.T.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(e.T, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}

// Signup drives the full signup flow for the email and returns the session token.
func (e *Env) Signup(name, email string) string {
	e.T.Helper()

	w := e.Request(http.MethodPost, "/api/auth/send-otp", map[string]string{
		"name":        name,
		"email":       email,
		"dateOfBirth": "1990-01-01",
	}, "")
	require.Equal(e.T, http.StatusOK, w.Code, w.Body.String())

	w = e.Request(http.MethodPost, "/api/auth/verify-otp", map[string]string{
		"email": email,
		"otp":   e.Mailer.LastCode(e.T),
	}, "")
	require.Equal(e.T, http.StatusOK, w.Code, w.Body.String())

	var payload struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(e.T, json.Unmarshal(w.Body.Bytes(), &payload))
	require.NotEmpty(e.T, payload.Data.Token)
	return payload.Data.Token
}

// DecodeError returns the machine error code from a response body.
func DecodeError(t *testing.T, body []byte) string {
	t.Helper()

	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	return payload.Error.Code
}
