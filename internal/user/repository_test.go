package user

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/auditorium-booking/internal/db/dbtest"
)

func TestPgxRepository(t *testing.T) {
	pool := dbtest.Pool(t)
	repo := NewPgxRepository(pool)
	ctx := context.Background()

	name := "Front Office"
	u := &User{
		Email:        "repo-" + strings.ToLower(uuid.NewString()) + "@example.org",
		PasswordHash: "hash",
		DisplayName:  &name,
		IsActive:     true,
	}
	require.NoError(t, repo.Create(ctx, u))
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM public.users WHERE id = $1`, u.ID)
	})
	assert.NotEmpty(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	dup := *u
	assert.ErrorIs(t, repo.Create(ctx, &dup), ErrEmailAlreadyUsed)

	byEmail, err := repo.GetByEmail(ctx, u.Email)
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
	assert.Equal(t, "Front Office", byEmail.Name())
	assert.Nil(t, byEmail.LastLoginAt)

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.UpdateLastLogin(ctx, u.ID, at))

	byID, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, byID.LastLoginAt)
	assert.True(t, at.Equal(*byID.LastLoginAt))

	_, err = repo.GetByEmail(ctx, "missing-"+uuid.NewString()+"@example.org")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.UpdateLastLogin(ctx, uuid.NewString(), at), ErrNotFound)
}
