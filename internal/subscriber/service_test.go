// AngelaMos | 2026
// service_test.go

package subscriber

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/newsletter-api/internal/core"
	"github.com/carterperez-dev/templates/newsletter-api/internal/mailer"
)

type serviceFixture struct {
	repo   Repository
	mail   *fakeMailer
	clock  *testClock
	tokens *tokenSequence
	svc    *Service
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	f := &serviceFixture{
		repo:   newTestRepository(t),
		mail:   &fakeMailer{},
		clock:  newTestClock(),
		tokens: &tokenSequence{},
	}
	f.svc = NewService(f.repo, f.mail,
		WithTokenSource(f.tokens.Next),
		WithClock(f.clock.Now),
	)
	return f
}

func mustParse(t *testing.T, payload map[string]any) *SubscriptionRequest {
	t.Helper()
	req, err := ParseSubscription(payload)
	require.NoError(t, err)
	return req
}

func TestSubscribeNormalizesAndEmails(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	req := mustParse(t, map[string]any{"email": "USER@Example.COM", "consent": true})
	result, err := f.svc.Subscribe(ctx, req, RequestContext{IP: "203.0.113.7", UserAgent: "ua"})
	require.NoError(t, err)
	assert.True(t, result.EmailSent)

	sub, err := f.repo.GetByEmail(ctx, "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, sub.Status)
	assert.Equal(t, "203.0.113.7", sub.Metadata[MetaIP])

	sent := f.mail.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "user@example.com", sent[0].To)
	assert.Equal(t, *sub.ConfirmationToken, sent[0].Token)

	link, err := url.Parse(mailer.ConfirmURL("https://example.com", sent[0].Token))
	require.NoError(t, err)
	assert.Equal(t, *sub.ConfirmationToken, link.Query().Get("token"))
}

func TestSubscribeTwiceKeepsOneRowWithLatestToken(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	req := mustParse(t, map[string]any{"email": "user@example.com", "consent": true})

	first, err := f.svc.Subscribe(ctx, req, RequestContext{})
	require.NoError(t, err)
	firstToken := *first.Subscriber.ConfirmationToken

	f.clock.Advance(time.Second)
	second, err := f.svc.Subscribe(ctx, req, RequestContext{})
	require.NoError(t, err)

	assert.Equal(t, first.Subscriber.ID, second.Subscriber.ID)
	assert.Equal(t, f.tokens.Last(), *second.Subscriber.ConfirmationToken)
	assert.NotEqual(t, firstToken, *second.Subscriber.ConfirmationToken)
	assert.True(t, first.Subscriber.SubscribedAt.Equal(second.Subscriber.SubscribedAt))
	assert.True(t, second.Subscriber.ConfirmationSentAt.After(*first.Subscriber.ConfirmationSentAt))

	_, err = f.svc.Confirm(ctx, firstToken, RequestContext{})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSubscribeConcurrentSameEmail(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewService(NewRepository(db, core.DialectSQLite), &fakeMailer{})
	req := mustParse(t, map[string]any{"email": "race@example.com", "consent": true})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Subscribe(ctx, req, RequestContext{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, countRows(t, db))
}

func TestSubscribeAlreadyConfirmedSkipsEmail(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	req := mustParse(t, map[string]any{"email": "user@example.com", "consent": true})

	_, err := f.svc.Subscribe(ctx, req, RequestContext{})
	require.NoError(t, err)
	_, err = f.svc.Confirm(ctx, f.tokens.Last(), RequestContext{})
	require.NoError(t, err)

	result, err := f.svc.Subscribe(ctx, req, RequestContext{})
	require.NoError(t, err)
	assert.False(t, result.EmailSent)
	assert.True(t, result.Subscriber.IsConfirmed())
	assert.Len(t, f.mail.Sent(), 1)
}

func TestSubscribeMailerNotReadyWritesNothing(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	f.mail.readyErr = errors.New("missing SMTP_HOST")

	req := mustParse(t, map[string]any{"email": "user@example.com", "consent": true})
	_, err := f.svc.Subscribe(ctx, req, RequestContext{})
	assert.ErrorIs(t, err, core.ErrConfiguration)

	_, err = f.repo.GetByEmail(ctx, "user@example.com")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSubscribeMailFailureLeavesPendingRow(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	f.mail.sendErr = errors.New("535 authentication failed")

	req := mustParse(t, map[string]any{"email": "user@example.com", "consent": true})
	_, err := f.svc.Subscribe(ctx, req, RequestContext{})
	assert.ErrorIs(t, err, core.ErrMailDelivery)

	sub, err := f.repo.GetByEmail(ctx, "user@example.com")
	require.NoError(t, err)
	assert.True(t, sub.IsPending())
}

func TestSubscribeStoreFailure(t *testing.T) {
	svc := NewService(&brokenRepository{}, &fakeMailer{})
	req := mustParse(t, map[string]any{"email": "user@example.com", "consent": true})

	_, err := svc.Subscribe(context.Background(), req, RequestContext{})
	assert.ErrorIs(t, err, core.ErrStoreUnavailable)
	assert.ErrorIs(t, err, errStoreDown)
}

func TestConfirmLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	req := mustParse(t, map[string]any{"email": "user@example.com", "consent": true})

	_, err := f.svc.Subscribe(ctx, req, RequestContext{})
	require.NoError(t, err)
	token := f.tokens.Last()

	f.clock.Advance(time.Hour)
	result, err := f.svc.Confirm(ctx, token, RequestContext{IP: "198.51.100.4", UserAgent: "Mail/1.0"})
	require.NoError(t, err)
	assert.False(t, result.AlreadyConfirmed)
	assert.Equal(t, StatusConfirmed, result.Subscriber.Status)
	assert.Nil(t, result.Subscriber.ConfirmationToken)
	require.NotNil(t, result.Subscriber.ConfirmedAt)
	confirmedAt := *result.Subscriber.ConfirmedAt
	assert.Equal(t, "198.51.100.4", result.Subscriber.Metadata[MetaConfirmIP])
	assert.Equal(t, "Mail/1.0", result.Subscriber.Metadata[MetaConfirmUserAgent])

	f.clock.Advance(time.Hour)
	again, err := f.svc.Confirm(ctx, token, RequestContext{})
	require.NoError(t, err)
	assert.True(t, again.AlreadyConfirmed)
	assert.True(t, confirmedAt.Equal(*again.Subscriber.ConfirmedAt))
}

func TestConfirmErrors(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	_, err := f.svc.Confirm(ctx, "  ", RequestContext{})
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = f.svc.Confirm(ctx, "unknown", RequestContext{})
	assert.ErrorIs(t, err, core.ErrNotFound)

	svc := NewService(&brokenRepository{}, &fakeMailer{})
	_, err = svc.Confirm(ctx, "tok", RequestContext{})
	assert.ErrorIs(t, err, core.ErrStoreUnavailable)

	pending := &Subscriber{ID: "id-1", Status: StatusPending, ConfirmationToken: strPtr("tok")}
	svc = NewService(&brokenRepository{found: pending}, &fakeMailer{})
	_, err = svc.Confirm(ctx, "tok", RequestContext{})
	assert.ErrorIs(t, err, ErrConfirmFailed)
	assert.NotErrorIs(t, err, core.ErrStoreUnavailable)
}
