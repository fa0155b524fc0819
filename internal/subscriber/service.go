// AngelaMos | 2026
// service.go

package subscriber

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/templates/newsletter-api/internal/core"
	"github.com/carterperez-dev/templates/newsletter-api/internal/mailer"
)

type Mailer interface {
	Ready() error
	SendConfirmation(ctx context.Context, c mailer.Confirmation) error
}

type Service struct {
	repo     Repository
	mailer   Mailer
	newToken func() (string, error)
	now      func() time.Time
}

type ServiceOption func(*Service)

func WithTokenSource(fn func() (string, error)) ServiceOption {
	return func(s *Service) { s.newToken = fn }
}

func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) { s.now = fn }
}

func NewService(repo Repository, m Mailer, opts ...ServiceOption) *Service {
	s := &Service{
		repo:     repo,
		mailer:   m,
		newToken: core.GenerateConfirmationToken,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe runs one intake: mailer readiness, token, upsert, email.
// Already confirmed subscribers are left alone and not emailed again.
func (s *Service) Subscribe(
	ctx context.Context,
	req *SubscriptionRequest,
	rc RequestContext,
) (result *SubscribeResult, err error) {
	ctx, span := core.StartSpan(ctx, "subscriber.Subscribe",
		attribute.String("subscriber.source", req.Source),
	)
	defer func() {
		if err != nil {
			core.SetSpanError(ctx, err)
		}
		span.End()
	}()

	if err := s.mailer.Ready(); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrConfiguration, err)
	}

	token, err := s.newToken()
	if err != nil {
		return nil, fmt.Errorf("issue confirmation token: %w", err)
	}

	sub, err := s.repo.UpsertPending(ctx, UpsertParams{
		ID:          uuid.New().String(),
		Email:       req.Email,
		FullName:    req.FullName,
		CompanyName: req.CompanyName,
		Role:        req.Role,
		Source:      req.Source,
		Token:       token,
		ConsentCopy: req.ConsentCopy,
		FormURL:     req.FormURL,
		Metadata:    intakeMetadata(rc),
		Now:         s.timestamp(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrStoreUnavailable, err)
	}

	span.SetAttributes(attribute.String("subscriber.status", sub.Status))

	if sub.IsConfirmed() {
		core.AddSpanEvent(ctx, "subscriber.already_confirmed")
		return &SubscribeResult{Subscriber: sub}, nil
	}

	if sub.ConfirmationToken == nil {
		return nil, fmt.Errorf("%w: pending row without token", core.ErrStoreUnavailable)
	}

	err = s.mailer.SendConfirmation(ctx, mailer.Confirmation{
		To:          sub.Email,
		Token:       *sub.ConfirmationToken,
		ConsentCopy: deref(req.ConsentCopy),
		FormURL:     deref(req.FormURL),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrMailDelivery, err)
	}

	return &SubscribeResult{Subscriber: sub, EmailSent: true}, nil
}

// Confirm finalizes the subscription owning token. A token that already
// confirmed its row answers with AlreadyConfirmed instead of an error.
func (s *Service) Confirm(
	ctx context.Context,
	token string,
	rc RequestContext,
) (result *ConfirmResult, err error) {
	ctx, span := core.StartSpan(ctx, "subscriber.Confirm")
	defer func() {
		if err != nil && !errors.Is(err, core.ErrNotFound) {
			core.SetSpanError(ctx, err)
		}
		span.End()
	}()

	token, err = ValidateToken(token)
	if err != nil {
		return nil, err
	}

	sub, err := s.repo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", core.ErrStoreUnavailable, err)
	}

	if sub.IsConfirmed() {
		return &ConfirmResult{Subscriber: sub, AlreadyConfirmed: true}, nil
	}

	confirmed, changed, err := s.repo.MarkConfirmed(ctx, sub.ID, ConfirmParams{
		Token:    token,
		Metadata: confirmMetadata(rc),
		Now:      s.timestamp(),
	})
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrConfirmFailed, err)
	}

	return &ConfirmResult{Subscriber: confirmed, AlreadyConfirmed: !changed}, nil
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
