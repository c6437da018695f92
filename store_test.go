package steward

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testCheckpoint(threadID string, seq int, status TurnStatus) *Checkpoint {
	state := NewWorkflowState()
	state.BeginTurn("Email bob@example.com saying hi")
	state.Intent = IntentEmail
	return &Checkpoint{
		ThreadID:  threadID,
		Seq:       seq,
		Status:    status,
		State:     state,
		CreatedAt: time.Now().UTC(),
	}
}

// runStoreConformance exercises the CheckpointStore contract shared by all
// backends.
func runStoreConformance(t *testing.T, store CheckpointStore) {
	ctx := context.Background()

	t.Run("load unknown thread returns not found", func(t *testing.T) {
		_, err := store.Load(ctx, "thread_missing")
		require.True(t, IsNotFound(err))

		_, err = store.History(ctx, "thread_missing")
		require.True(t, IsNotFound(err))
	})

	t.Run("save and load latest", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, testCheckpoint("thread_a", 1, TurnStatusRunning)))
		require.NoError(t, store.Save(ctx, testCheckpoint("thread_a", 2, TurnStatusSuspended)))

		latest, err := store.Load(ctx, "thread_a")
		require.NoError(t, err)
		require.Equal(t, 2, latest.Seq)
		require.True(t, latest.Suspended())
		require.Equal(t, IntentEmail, latest.State.Intent)
	})

	t.Run("rejects out of order sequence", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, testCheckpoint("thread_b", 1, TurnStatusRunning)))

		err := store.Save(ctx, testCheckpoint("thread_b", 1, TurnStatusRunning))
		require.True(t, IsConflict(err))

		err = store.Save(ctx, testCheckpoint("thread_b", 3, TurnStatusRunning))
		require.True(t, IsConflict(err))
	})

	t.Run("rejects invalid checkpoints", func(t *testing.T) {
		require.True(t, IsValidation(store.Save(ctx, nil)))
		require.True(t, IsValidation(store.Save(ctx, testCheckpoint("", 1, TurnStatusRunning))))
		require.True(t, IsValidation(store.Save(ctx, testCheckpoint("thread_c", 0, TurnStatusRunning))))
	})

	t.Run("history returns sequence order", func(t *testing.T) {
		for seq := 1; seq <= 3; seq++ {
			require.NoError(t, store.Save(ctx, testCheckpoint("thread_d", seq, TurnStatusRunning)))
		}
		history, err := store.History(ctx, "thread_d")
		require.NoError(t, err)
		require.Len(t, history, 3)
		for i, checkpoint := range history {
			require.Equal(t, i+1, checkpoint.Seq)
		}
	})

	t.Run("list and delete threads", func(t *testing.T) {
		threads, err := store.ListThreads(ctx)
		require.NoError(t, err)
		require.Contains(t, threads, "thread_a")
		require.Contains(t, threads, "thread_d")

		require.NoError(t, store.Delete(ctx, "thread_d"))
		_, err = store.Load(ctx, "thread_d")
		require.True(t, IsNotFound(err))

		// A deleted thread starts over at seq 1.
		require.NoError(t, store.Save(ctx, testCheckpoint("thread_d", 1, TurnStatusRunning)))
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreConformance(t, NewMemoryStore())
}

func TestMemoryStoreIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	original := testCheckpoint("thread_iso", 1, TurnStatusRunning)
	require.NoError(t, store.Save(ctx, original))
	original.State.Intent = IntentSocial

	loaded, err := store.Load(ctx, "thread_iso")
	require.NoError(t, err)
	require.Equal(t, IntentEmail, loaded.State.Intent)

	loaded.State.Intent = IntentCalendar
	again, err := store.Load(ctx, "thread_iso")
	require.NoError(t, err)
	require.Equal(t, IntentEmail, again.State.Intent)
}

func TestFileStore(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	runStoreConformance(t, store)
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dataDir := t.TempDir()

	store, err := NewFileStore(dataDir)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, testCheckpoint("thread_persist", 1, TurnStatusSuspended)))

	reopened, err := NewFileStore(dataDir)
	require.NoError(t, err)

	latest, err := reopened.Load(ctx, "thread_persist")
	require.NoError(t, err)
	require.Equal(t, 1, latest.Seq)
	require.True(t, latest.Suspended())

	// The reopened store still enforces the conditional append.
	err = reopened.Save(ctx, testCheckpoint("thread_persist", 1, TurnStatusRunning))
	require.True(t, IsConflict(err))
	require.NoError(t, reopened.Save(ctx, testCheckpoint("thread_persist", 2, TurnStatusCompleted)))
}
