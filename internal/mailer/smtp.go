// AngelaMos | 2026
// smtp.go

package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/templates/newsletter-api/internal/core"
)

const implicitTLSPort = 465

type SMTPMailer struct {
	cfg     Config
	missing []string
	logger  *slog.Logger
}

func NewSMTPMailer(cfg Config, logger *slog.Logger) *SMTPMailer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}

	return &SMTPMailer{cfg: cfg, missing: missingFields(cfg), logger: logger}
}

func (m *SMTPMailer) Ready() error {
	if len(m.missing) > 0 {
		return notReady(m.missing)
	}
	return nil
}

func (m *SMTPMailer) ConfirmURL(token string) string {
	return ConfirmURL(m.cfg.SiteURL, token)
}

// SendConfirmation submits the message over authenticated SMTP. Port 465
// uses implicit TLS, any other port must upgrade with STARTTLS.
func (m *SMTPMailer) SendConfirmation(ctx context.Context, c Confirmation) error {
	if err := m.Ready(); err != nil {
		return err
	}

	ctx, span := core.StartSpan(ctx, "mailer.SendConfirmation",
		attribute.String("smtp.host", m.cfg.Host),
		attribute.Int("smtp.port", m.cfg.Port),
	)
	defer span.End()

	msg, err := m.buildMessage(c)
	if err != nil {
		core.SetSpanError(ctx, err)
		return err
	}

	client, err := mail.NewClient(m.cfg.Host, m.clientOptions()...)
	if err != nil {
		core.SetSpanError(ctx, err)
		return fmt.Errorf("create smtp client: %w", err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	start := time.Now()
	if err := client.DialAndSendWithContext(sendCtx, msg); err != nil {
		core.SetSpanError(ctx, err)
		return fmt.Errorf("send confirmation email: %w", err)
	}

	m.logger.InfoContext(ctx, "confirmation email sent",
		"smtp_host", m.cfg.Host,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

func (m *SMTPMailer) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
		mail.WithTimeout(m.cfg.Timeout),
	}

	if m.cfg.Port == implicitTLSPort {
		return append(opts, mail.WithSSL())
	}
	return append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
}

func (m *SMTPMailer) buildMessage(c Confirmation) (*mail.Msg, error) {
	text, html, err := renderBodies(bodyData{
		ConfirmURL:  m.ConfirmURL(c.Token),
		ConsentCopy: c.ConsentCopy,
		FormURL:     c.FormURL,
	})
	if err != nil {
		return nil, err
	}

	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("set from address: %w", err)
	}
	if err := msg.To(c.To); err != nil {
		return nil, fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(confirmSubject)
	msg.SetBodyString(mail.TypeTextPlain, text)
	msg.AddAlternativeString(mail.TypeTextHTML, html)

	return msg, nil
}

func missingFields(cfg Config) []string {
	var missing []string
	if cfg.Host == "" {
		missing = append(missing, "SMTP_HOST")
	}
	if cfg.Username == "" {
		missing = append(missing, "SMTP_USER")
	}
	if cfg.Password == "" {
		missing = append(missing, "SMTP_PASS")
	}
	if cfg.From == "" {
		missing = append(missing, "SMTP_FROM")
	}
	if cfg.SiteURL == "" {
		missing = append(missing, "SITE_URL")
	}
	return missing
}
