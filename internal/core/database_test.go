// AngelaMos | 2026
// database_test.go

package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONMerge(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		left    string
		right   string
		want    string
	}{
		{
			name:    "sqlite column with bind",
			dialect: DialectSQLite,
			left:    "metadata",
			right:   "?",
			want:    "json_patch(COALESCE(metadata, '{}'), ?)",
		},
		{
			name:    "sqlite upsert excluded row",
			dialect: DialectSQLite,
			left:    "newsletter_subscribers.metadata",
			right:   "excluded.metadata",
			want:    "json_patch(COALESCE(newsletter_subscribers.metadata, '{}'), excluded.metadata)",
		},
		{
			name:    "postgres column with bind",
			dialect: DialectPostgres,
			left:    "metadata",
			right:   "?",
			want:    "COALESCE(metadata, '{}'::jsonb) || (?)::jsonb",
		},
		{
			name:    "postgres upsert excluded row",
			dialect: DialectPostgres,
			left:    "newsletter_subscribers.metadata",
			right:   "excluded.metadata",
			want:    "COALESCE(newsletter_subscribers.metadata, '{}'::jsonb) || (excluded.metadata)::jsonb",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.dialect.JSONMerge(tt.left, tt.right))
		})
	}
}

func TestJSONMergeSQLiteEvaluates(t *testing.T) {
	db := openMemoryDB(t)

	var merged string
	query := "SELECT " + DialectSQLite.JSONMerge("?", "?")
	err := db.GetContext(context.Background(), &merged, query, nil, `{"ip":"203.0.113.7"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ip":"203.0.113.7"}`, merged)

	err = db.GetContext(context.Background(), &merged, query,
		`{"ip":"203.0.113.7","user_agent":"old"}`, `{"user_agent":"new"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ip":"203.0.113.7","user_agent":"new"}`, merged)
}

func TestJitteredDuration(t *testing.T) {
	assert.Equal(t, time.Duration(5), jitteredDuration(5))

	base := time.Hour
	for range 32 {
		got := jitteredDuration(base)
		assert.GreaterOrEqual(t, got, base)
		assert.Less(t, got, base+base/7)
	}
}
