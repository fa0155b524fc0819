// AngelaMos | 2026
// mailer.go

package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/carterperez-dev/templates/newsletter-api/internal/config"
	"github.com/carterperez-dev/templates/newsletter-api/internal/core"
)

const confirmSubject = "Confirm your subscription"

// Confirmation is everything needed to render one double opt-in email.
type Confirmation struct {
	To          string
	Token       string
	ConsentCopy string
	FormURL     string
}

type Sender interface {
	Ready() error
	SendConfirmation(ctx context.Context, c Confirmation) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	SiteURL  string
	Timeout  time.Duration
}

func ConfigFrom(c config.MailConfig) Config {
	return Config{
		Host:     c.Host,
		Port:     c.Port,
		Username: c.Username,
		Password: c.Password,
		From:     c.From,
		SiteURL:  c.SiteURL,
		Timeout:  c.Timeout,
	}
}

// New picks the delivery driver named in the mail config.
func New(c config.MailConfig, logger *slog.Logger) Sender {
	if c.Driver == config.MailDriverLog {
		return NewLogMailer(c.SiteURL, logger)
	}
	return NewSMTPMailer(ConfigFrom(c), logger)
}

func ConfirmURL(siteURL, token string) string {
	return strings.TrimRight(siteURL, "/") + "/confirm?token=" + url.QueryEscape(token)
}

func notReady(missing []string) error {
	return fmt.Errorf(
		"%w: missing %s",
		core.ErrConfiguration,
		strings.Join(missing, ", "),
	)
}
