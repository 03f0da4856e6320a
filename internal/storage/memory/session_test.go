package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/print-order/internal/domain/session"
	"github.com/xenking/print-order/internal/wizard"
)

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository()
	now := time.Now()

	s := &session.Session{
		ID:        "s1",
		OwnerHash: "ab",
		State:     wizard.NewState(),
		Status:    session.StatusOpen,
		ExpiresAt: now.Add(time.Hour),
	}
	require.NoError(t, repo.Create(ctx, s))
	require.Error(t, repo.Create(ctx, s), "duplicate id")

	got, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	got.State.Step = wizard.StepPaper
	stored, _ := repo.Get(ctx, "s1")
	assert.Equal(t, wizard.StepCover, stored.State.Step, "Get must return a copy")

	require.NoError(t, repo.Update(ctx, got))
	assert.Equal(t, int64(1), got.Version)

	ok, err := repo.BeginSubmit(ctx, "s1", 0, now)
	require.NoError(t, err)
	assert.False(t, ok, "stale version")

	ok, err = repo.BeginSubmit(ctx, "s1", got.Version, now)
	require.NoError(t, err)
	require.True(t, ok)
	ok, _ = repo.BeginSubmit(ctx, "s1", got.Version, now)
	assert.False(t, ok)
	require.ErrorIs(t, repo.Update(ctx, got), session.ErrNotOpen)

	got.CheckoutURL = "https://pay.example/abc"
	require.NoError(t, repo.FinishSubmit(ctx, got))
	require.Error(t, repo.AbortSubmit(ctx, got))

	stored, err = repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, session.StatusSubmitted, stored.Status)
	assert.Equal(t, wizard.StepPaper, stored.State.Step)

	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(t, err, session.ErrNotFound)

	n, err := repo.DeleteExpired(ctx, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
