// AngelaMos | 2026
// handler_test.go

package diagnostics

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/newsletter-api/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Environment: "development"},
		Database: config.DatabaseConfig{
			Driver: config.DriverSQLite,
			URL:    "file:dev.db",
		},
		Mail: config.MailConfig{
			Host:     "smtp.mailprovider.example",
			Port:     587,
			Username: "mailer@example.com",
			Password: "secret",
			From:     "mailer@example.com",
			SiteURL:  "https://example.com",
		},
	}
}

func get(t *testing.T, h *Handler, path string, out any) int {
	t.Helper()

	r := chi.NewRouter()
	r.Route("/api", h.RegisterRoutes)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	return rec.Code
}

func TestEnvCheck(t *testing.T) {
	h := NewHandler(HandlerConfig{Config: testConfig()})

	var body EnvCheckResponse
	status := get(t, h, "/api/debug-env", &body)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, body.AllSet)
	assert.Equal(t, "development", body.Environment)
	assert.Equal(t, "smtp.mailp...", body.SMTPHostPreview)
	assert.NotContains(t, body.Variables, "DATABASE_ACCESS_KEY")

	cfg := testConfig()
	cfg.Mail.Password = ""
	cfg.Database.Driver = config.DriverPostgres
	h = NewHandler(HandlerConfig{Config: cfg})

	body = EnvCheckResponse{}
	get(t, h, "/api/debug-env", &body)
	assert.False(t, body.AllSet)
	assert.False(t, body.Variables["SMTP_PASS"])
	assert.False(t, body.Variables["DATABASE_ACCESS_KEY"])
}

func TestEnvCheckReportsUnsetFrom(t *testing.T) {
	cfg := testConfig()
	cfg.Mail.From = ""
	h := NewHandler(HandlerConfig{Config: cfg})

	var body EnvCheckResponse
	get(t, h, "/api/debug-env", &body)
	assert.True(t, body.Variables["SMTP_USER"])
	assert.False(t, body.Variables["SMTP_FROM"])
	assert.False(t, body.AllSet)
}

func TestSystemStats(t *testing.T) {
	h := NewHandler(HandlerConfig{
		Config:    testConfig(),
		DBStats:   func() sql.DBStats { return sql.DBStats{MaxOpenConnections: 10, InUse: 2} },
		DBPing:    func(context.Context) error { return errors.New("down") },
		MailReady: func() error { return nil },
	})

	var body SystemStatsResponse
	status := get(t, h, "/api/debug/stats", &body)
	assert.Equal(t, http.StatusOK, status)
	assert.False(t, body.Database.Healthy)
	assert.Equal(t, config.DriverSQLite, body.Database.Driver)
	require.NotNil(t, body.Database.Stats)
	assert.Equal(t, 10, body.Database.Stats.MaxOpenConnections)
	assert.True(t, body.MailReady)
	assert.NotEmpty(t, body.Runtime.GoVersion)
}

func TestPreviewHost(t *testing.T) {
	assert.Equal(t, "", previewHost(""))
	assert.Equal(t, "smtp...", previewHost("smtp"))
}
