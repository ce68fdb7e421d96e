// Package dbtest connects repository tests to a live PostgreSQL database.
// Tests are skipped unless TEST_DB_DSN is set.
package dbtest

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/auditorium-booking/internal/db"
)

// Pool opens a pool against TEST_DB_DSN with the schema applied, and closes it when t ends.
func Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN is not set")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, db.ApplySchema(ctx, pool))
	return pool
}

// CreateUser inserts a user with a unique email and returns its id.
// The user is deleted on cleanup, and with it every booking and post it owns.
func CreateUser(t *testing.T, pool *pgxpool.Pool, displayName string) string {
	t.Helper()

	ctx := context.Background()
	email := "test-" + uuid.NewString() + "@example.org"

	var id string
	err := pool.QueryRow(ctx,
		`INSERT INTO public.users (email, password_hash, display_name) VALUES ($1, 'x', NULLIF($2, '')) RETURNING id`,
		email, displayName,
	).Scan(&id)
	require.NoError(t, err)

	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM public.users WHERE id = $1`, id)
	})
	return id
}
