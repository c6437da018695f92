package steward

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory CheckpointStore, suitable for tests and for
// single-process deployments that do not need durability.
type MemoryStore struct {
	mutex   sync.RWMutex
	threads map[string][]*Checkpoint
}

// NewMemoryStore creates an empty in-memory checkpoint store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{threads: map[string][]*Checkpoint{}}
}

func (s *MemoryStore) Save(ctx context.Context, checkpoint *Checkpoint) error {
	if err := ValidateCheckpoint(checkpoint); err != nil {
		return err
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()

	history := s.threads[checkpoint.ThreadID]
	if checkpoint.Seq != len(history)+1 {
		return NewConflictError("thread %s: checkpoint seq %d conflicts with latest seq %d",
			checkpoint.ThreadID, checkpoint.Seq, len(history))
	}
	s.threads[checkpoint.ThreadID] = append(history, checkpoint.Clone())
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, threadID string) (*Checkpoint, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	history, ok := s.threads[threadID]
	if !ok || len(history) == 0 {
		return nil, NewNotFoundError("thread %s has no checkpoints", threadID)
	}
	return history[len(history)-1].Clone(), nil
}

func (s *MemoryStore) History(ctx context.Context, threadID string) ([]*Checkpoint, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	history, ok := s.threads[threadID]
	if !ok || len(history) == 0 {
		return nil, NewNotFoundError("thread %s has no checkpoints", threadID)
	}
	result := make([]*Checkpoint, len(history))
	for i, checkpoint := range history {
		result[i] = checkpoint.Clone()
	}
	return result, nil
}

func (s *MemoryStore) ListThreads(ctx context.Context) ([]string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	ids := make([]string, 0, len(s.threads))
	for id := range s.threads {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *MemoryStore) Delete(ctx context.Context, threadID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.threads, threadID)
	return nil
}
