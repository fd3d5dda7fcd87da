package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/poker-server-go/internal/model"
	"github.com/openclaw/poker-server-go/internal/repository"
)

type failingSessionRepo struct {
	repository.SessionRepository
}

func (failingSessionRepo) DeleteEndedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, errors.New("connection refused")
}

func storeSession(t *testing.T, store *repository.MemoryStore, itemKey string, end time.Time) {
	t.Helper()
	_, _, err := store.InsertIfAbsent(context.Background(), model.Session{
		ID:      itemKey + "-id",
		ItemKey: itemKey,
		Author:  "alice",
		Created: end.Add(-time.Hour),
		Start:   end.Add(-time.Hour),
		End:     end,
	})
	require.NoError(t, err)
}

func TestRetentionJob_RunOnce(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("deletes sessions older than retention", func(t *testing.T) {
		store := repository.NewMemoryStore()
		storeSession(t, store, "OLD-1", now.Add(-48*time.Hour))
		storeSession(t, store, "NEW-1", now.Add(-time.Hour))

		job := NewRetentionJob(store, 24*time.Hour, time.Hour)
		job.now = func() time.Time { return now }

		count, err := job.RunOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		old, err := store.FindByItemKey(ctx, "OLD-1")
		require.NoError(t, err)
		assert.Nil(t, old)

		fresh, err := store.FindByItemKey(ctx, "NEW-1")
		require.NoError(t, err)
		assert.NotNil(t, fresh)
	})

	t.Run("zero retention keeps everything", func(t *testing.T) {
		store := repository.NewMemoryStore()
		storeSession(t, store, "OLD-1", now.Add(-48*time.Hour))

		job := NewRetentionJob(store, 0, time.Hour)
		assert.False(t, job.Enabled())

		count, err := job.RunOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)

		job.Start()
		job.Stop()
	})

	t.Run("surfaces store errors", func(t *testing.T) {
		job := NewRetentionJob(failingSessionRepo{}, time.Hour, time.Hour)

		_, err := job.RunOnce(ctx)
		assert.Error(t, err)
	})
}

func TestRetentionJob_StartStop(t *testing.T) {
	store := repository.NewMemoryStore()
	storeSession(t, store, "OLD-1", time.Now().Add(-48*time.Hour))

	job := NewRetentionJob(store, time.Hour, time.Hour)
	job.Start()

	assert.Eventually(t, func() bool {
		session, err := store.FindByItemKey(context.Background(), "OLD-1")
		return err == nil && session == nil
	}, time.Second, 10*time.Millisecond)

	job.Stop()
}
