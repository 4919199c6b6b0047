//go:build postgres

package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests need a reachable Postgres and DATABASE_URL.
// Run with: go test -tags=postgres ./internal/adapter/postgres/ -v -count=1

func smokeStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Fatal("DATABASE_URL must be set to run postgres smoke tests")
	}
	s, err := Open(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSmoke_SetGet(t *testing.T) {
	s := smokeStore(t)
	ctx := context.Background()
	key := "smoke-" + uuid.NewString()

	_, ok, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, key, []byte(`[]`)))
	require.NoError(t, s.Set(ctx, key, []byte(`[{"date":"2026-10-16","total_cfp":0.2}]`)))

	v, ok, err := s.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `[{"date":"2026-10-16","total_cfp":0.2}]`, string(v))

	_, err = s.db.ExecContext(ctx, `DELETE FROM kv_store WHERE key = $1;`, key)
	require.NoError(t, err)
}
