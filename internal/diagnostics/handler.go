// AngelaMos | 2026
// handler.go

package diagnostics

import (
	"context"
	"database/sql"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/templates/newsletter-api/internal/config"
	"github.com/carterperez-dev/templates/newsletter-api/internal/core"
)

const hostPreviewLen = 10

type Handler struct {
	cfg       *config.Config
	dbStats   func() sql.DBStats
	dbPing    func(ctx context.Context) error
	mailReady func() error
}

type HandlerConfig struct {
	Config    *config.Config
	DBStats   func() sql.DBStats
	DBPing    func(ctx context.Context) error
	MailReady func() error
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		cfg:       cfg.Config,
		dbStats:   cfg.DBStats,
		dbPing:    cfg.DBPing,
		mailReady: cfg.MailReady,
	}
}

// RegisterRoutes mounts the debug endpoints. Callers gate this on
// debug.enabled, which config validation refuses in production.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/debug-env", h.GetEnvCheck)
	r.Get("/debug/stats", h.GetSystemStats)
}

// GetEnvCheck reports which settings are present without revealing values.
func (h *Handler) GetEnvCheck(w http.ResponseWriter, r *http.Request) {
	mail := h.cfg.Mail
	db := h.cfg.Database

	vars := map[string]bool{
		"SMTP_HOST":    mail.Host != "",
		"SMTP_PORT":    mail.Port > 0,
		"SMTP_USER":    mail.Username != "",
		"SMTP_PASS":    mail.Password != "",
		"SMTP_FROM":    mail.From != "",
		"SITE_URL":     mail.SiteURL != "",
		"DATABASE_URL": db.URL != "",
	}
	if db.Driver == config.DriverPostgres {
		vars["DATABASE_ACCESS_KEY"] = db.AccessKey != ""
	}

	allSet := true
	for _, ok := range vars {
		if !ok {
			allSet = false
			break
		}
	}

	core.OK(w, EnvCheckResponse{
		Environment:     h.cfg.App.Environment,
		Variables:       vars,
		SMTPHostPreview: previewHost(mail.Host),
		AllSet:          allSet,
	})
}

func (h *Handler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	dbHealthy := true
	if h.dbPing != nil {
		if err := h.dbPing(r.Context()); err != nil {
			dbHealthy = false
		}
	}

	mailReady := h.mailReady != nil && h.mailReady() == nil

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	core.OK(w, SystemStatsResponse{
		Database: DatabaseStatus{
			Driver:  h.cfg.Database.Driver,
			Healthy: dbHealthy,
			Stats:   h.getDBStats(),
		},
		MailReady: mailReady,
		Runtime: RuntimeStats{
			GoVersion:    runtime.Version(),
			NumGoroutine: runtime.NumGoroutine(),
			NumCPU:       runtime.NumCPU(),
			MemAlloc:     memStats.Alloc,
			MemSys:       memStats.Sys,
			NumGC:        memStats.NumGC,
		},
	})
}

func (h *Handler) getDBStats() *DBPoolStats {
	if h.dbStats == nil {
		return nil
	}

	stats := h.dbStats()
	return &DBPoolStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration.String(),
		MaxIdleClosed:      stats.MaxIdleClosed,
		MaxLifetimeClosed:  stats.MaxLifetimeClosed,
	}
}

func previewHost(host string) string {
	if host == "" {
		return ""
	}
	if len(host) > hostPreviewLen {
		host = host[:hostPreviewLen]
	}
	return host + "..."
}

type EnvCheckResponse struct {
	Environment     string          `json:"environment"`
	Variables       map[string]bool `json:"variables"`
	SMTPHostPreview string          `json:"smtp_host_preview"`
	AllSet          bool            `json:"all_set"`
}

type SystemStatsResponse struct {
	Database  DatabaseStatus `json:"database"`
	MailReady bool           `json:"mail_ready"`
	Runtime   RuntimeStats   `json:"runtime"`
}

type DatabaseStatus struct {
	Driver  string       `json:"driver"`
	Healthy bool         `json:"healthy"`
	Stats   *DBPoolStats `json:"stats,omitempty"`
}

type DBPoolStats struct {
	MaxOpenConnections int    `json:"max_open_connections"`
	OpenConnections    int    `json:"open_connections"`
	InUse              int    `json:"in_use"`
	Idle               int    `json:"idle"`
	WaitCount          int64  `json:"wait_count"`
	WaitDuration       string `json:"wait_duration"`
	MaxIdleClosed      int64  `json:"max_idle_closed"`
	MaxLifetimeClosed  int64  `json:"max_lifetime_closed"`
}

type RuntimeStats struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	NumCPU       int    `json:"num_cpu"`
	MemAlloc     uint64 `json:"mem_alloc_bytes"`
	MemSys       uint64 `json:"mem_sys_bytes"`
	NumGC        uint32 `json:"num_gc"`
}
