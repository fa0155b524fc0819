// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/templates/newsletter-api/internal/config"
	"github.com/carterperez-dev/templates/newsletter-api/internal/core"
	"github.com/carterperez-dev/templates/newsletter-api/internal/diagnostics"
	"github.com/carterperez-dev/templates/newsletter-api/internal/health"
	"github.com/carterperez-dev/templates/newsletter-api/internal/mailer"
	"github.com/carterperez-dev/templates/newsletter-api/internal/middleware"
	"github.com/carterperez-dev/templates/newsletter-api/internal/server"
	"github.com/carterperez-dev/templates/newsletter-api/internal/subscriber"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"driver", cfg.Database.Driver,
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close() //nolint:errcheck // cleanup on startup failure
			return err
		}
		logger.Info("database migrations applied")
	}

	mail := mailer.New(cfg.Mail, logger)
	if err := mail.Ready(); err != nil {
		logger.Warn("mail configuration incomplete, subscriptions will fail",
			"error", err,
		)
	}
	logger.Info("mailer initialized", "driver", cfg.Mail.Driver)

	subscriberRepo := subscriber.NewRepository(db.DB, db.Dialect)
	subscriberSvc := subscriber.NewService(subscriberRepo, mail)
	subscriberHandler := subscriber.NewHandler(subscriberSvc, logger)

	healthHandler := health.NewHandler(
		health.Check{Name: "database", Run: db.Ping},
		health.Check{Name: "mailer", Run: func(context.Context) error {
			return mail.Ready()
		}},
	)

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Route("/api", func(r chi.Router) {
		subscriberHandler.RegisterRoutes(r)

		if cfg.Debug.Enabled {
			diagnostics.NewHandler(diagnostics.HandlerConfig{
				Config:    cfg,
				DBStats:   db.Stats,
				DBPing:    db.Ping,
				MailReady: mail.Ready,
			}).RegisterRoutes(r)
			logger.Warn("debug endpoints enabled")
		}
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
