//go:build integration

package redisstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stewardhq/steward"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	addr := os.Getenv("STEWARD_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("STEWARD_TEST_REDIS_ADDR not set")
	}
	store, err := New(context.Background(), Options{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func checkpoint(threadID string, seq int, status steward.TurnStatus) *steward.Checkpoint {
	state := steward.NewWorkflowState()
	state.BeginTurn("Post about the launch")
	state.Intent = steward.IntentSocial
	return &steward.Checkpoint{
		ThreadID:  threadID,
		Seq:       seq,
		Status:    status,
		State:     state,
		CreatedAt: time.Now().UTC(),
	}
}

func TestStore(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	threadID := steward.NewThreadID()
	t.Cleanup(func() { _ = store.Delete(ctx, threadID) })

	t.Run("unknown thread is not found", func(t *testing.T) {
		_, err := store.Load(ctx, "thread_missing")
		require.True(t, steward.IsNotFound(err))
	})

	t.Run("conditional append", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, checkpoint(threadID, 1, steward.TurnStatusRunning)))
		require.NoError(t, store.Save(ctx, checkpoint(threadID, 2, steward.TurnStatusSuspended)))

		err := store.Save(ctx, checkpoint(threadID, 2, steward.TurnStatusRunning))
		require.True(t, steward.IsConflict(err))
		err = store.Save(ctx, checkpoint(threadID, 4, steward.TurnStatusRunning))
		require.True(t, steward.IsConflict(err))

		latest, err := store.Load(ctx, threadID)
		require.NoError(t, err)
		require.Equal(t, 2, latest.Seq)
		require.True(t, latest.Suspended())

		history, err := store.History(ctx, threadID)
		require.NoError(t, err)
		require.Len(t, history, 2)

		threads, err := store.ListThreads(ctx)
		require.NoError(t, err)
		require.Contains(t, threads, threadID)
	})
}
