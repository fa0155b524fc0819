// AngelaMos | 2026
// helpers_test.go

package subscriber

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/newsletter-api/internal/core"
	"github.com/carterperez-dev/templates/newsletter-api/internal/mailer"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)
	t.Cleanup(func() { _ = db.Close() })

	database := &core.Database{DB: db, Dialect: core.DialectSQLite}
	require.NoError(t, database.Migrate(context.Background()))

	return db
}

func newTestRepository(t *testing.T) Repository {
	t.Helper()
	return NewRepository(newTestDB(t), core.DialectSQLite)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeMailer struct {
	mu       sync.Mutex
	readyErr error
	sendErr  error
	sent     []mailer.Confirmation
}

func (m *fakeMailer) Ready() error {
	return m.readyErr
}

func (m *fakeMailer) SendConfirmation(_ context.Context, c mailer.Confirmation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, c)
	return nil
}

func (m *fakeMailer) Sent() []mailer.Confirmation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailer.Confirmation(nil), m.sent...)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type tokenSequence struct {
	mu     sync.Mutex
	n      int
	issued []string
}

func (s *tokenSequence) Next() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	token := fmt.Sprintf("token-%03d", s.n)
	s.issued = append(s.issued, token)
	return token, nil
}

func (s *tokenSequence) Last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.issued) == 0 {
		return ""
	}
	return s.issued[len(s.issued)-1]
}

var errStoreDown = errors.New("dial tcp 10.0.0.5:5432: connect: connection refused")

// brokenRepository fails every call after the optional canned lookup.
type brokenRepository struct {
	found *Subscriber
}

func (r *brokenRepository) UpsertPending(context.Context, UpsertParams) (*Subscriber, error) {
	return nil, fmt.Errorf("upsert subscriber: %w", errStoreDown)
}

func (r *brokenRepository) FindByToken(context.Context, string) (*Subscriber, error) {
	if r.found != nil {
		return r.found, nil
	}
	return nil, fmt.Errorf("find subscriber by token: %w", errStoreDown)
}

func (r *brokenRepository) MarkConfirmed(context.Context, string, ConfirmParams) (*Subscriber, bool, error) {
	return nil, false, fmt.Errorf("mark confirmed: %w", errStoreDown)
}

func (r *brokenRepository) GetByID(context.Context, string) (*Subscriber, error) {
	return nil, fmt.Errorf("get subscriber: %w", errStoreDown)
}

func (r *brokenRepository) GetByEmail(context.Context, string) (*Subscriber, error) {
	return nil, fmt.Errorf("get subscriber by email: %w", errStoreDown)
}

func strPtr(s string) *string {
	return &s
}

func countRows(t *testing.T, db *sqlx.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM newsletter_subscribers"))
	return n
}
