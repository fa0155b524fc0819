// AngelaMos | 2026
// log.go

package mailer

import (
	"context"
	"log/slog"
)

// LogMailer writes confirmation links to the log instead of sending mail.
// Only for local development; config validation rejects it in production.
type LogMailer struct {
	siteURL string
	logger  *slog.Logger
}

func NewLogMailer(siteURL string, logger *slog.Logger) *LogMailer {
	return &LogMailer{siteURL: siteURL, logger: logger}
}

func (m *LogMailer) Ready() error {
	if m.siteURL == "" {
		return notReady([]string{"SITE_URL"})
	}
	return nil
}

func (m *LogMailer) SendConfirmation(ctx context.Context, c Confirmation) error {
	if err := m.Ready(); err != nil {
		return err
	}

	m.logger.InfoContext(ctx, "confirmation email (log driver)",
		"to", c.To,
		"subject", confirmSubject,
		"confirm_url", ConfirmURL(m.siteURL, c.Token),
		"form_url", c.FormURL,
	)

	return nil
}
