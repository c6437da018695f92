package steward

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// FileStore is a file-based CheckpointStore that persists each thread's
// checkpoint history to disk as JSON, one directory per thread.
type FileStore struct {
	dataDir string

	// Per-thread locks so writes to the same thread are serialized while
	// different threads proceed independently.
	mutex sync.Mutex
	locks map[string]*sync.Mutex
}

// NewFileStore creates a file-based checkpoint store rooted at dataDir.
// An empty dataDir defaults to ~/.steward/threads.
func NewFileStore(dataDir string) (*FileStore, error) {
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".steward", "threads")
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dataDir, err)
	}
	return &FileStore{dataDir: dataDir, locks: map[string]*sync.Mutex{}}, nil
}

func (s *FileStore) threadLock(threadID string) *sync.Mutex {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	lock, ok := s.locks[threadID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[threadID] = lock
	}
	return lock
}

func (s *FileStore) threadDir(threadID string) string {
	return filepath.Join(s.dataDir, threadID)
}

func (s *FileStore) checkpointPath(threadID string, seq int) string {
	return filepath.Join(s.threadDir(threadID), fmt.Sprintf("checkpoint-%06d.json", seq))
}

func (s *FileStore) Save(ctx context.Context, checkpoint *Checkpoint) error {
	if err := ValidateCheckpoint(checkpoint); err != nil {
		return err
	}
	lock := s.threadLock(checkpoint.ThreadID)
	lock.Lock()
	defer lock.Unlock()

	latestSeq, err := s.latestSeq(checkpoint.ThreadID)
	if err != nil {
		return err
	}
	if checkpoint.Seq != latestSeq+1 {
		return NewConflictError("thread %s: checkpoint seq %d conflicts with latest seq %d",
			checkpoint.ThreadID, checkpoint.Seq, latestSeq)
	}

	threadDir := s.threadDir(checkpoint.ThreadID)
	if err := os.MkdirAll(threadDir, 0755); err != nil {
		return fmt.Errorf("failed to create thread directory: %w", err)
	}
	data, err := json.MarshalIndent(checkpoint, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}
	path := s.checkpointPath(checkpoint.ThreadID, checkpoint.Seq)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write checkpoint file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to finalize checkpoint file: %w", err)
	}
	return nil
}

func (s *FileStore) Load(ctx context.Context, threadID string) (*Checkpoint, error) {
	seq, err := s.latestSeq(threadID)
	if err != nil {
		return nil, err
	}
	if seq == 0 {
		return nil, NewNotFoundError("thread %s has no checkpoints", threadID)
	}
	return s.readCheckpoint(threadID, seq)
}

func (s *FileStore) History(ctx context.Context, threadID string) ([]*Checkpoint, error) {
	seqs, err := s.checkpointSeqs(threadID)
	if err != nil {
		return nil, err
	}
	if len(seqs) == 0 {
		return nil, NewNotFoundError("thread %s has no checkpoints", threadID)
	}
	checkpoints := make([]*Checkpoint, 0, len(seqs))
	for _, seq := range seqs {
		checkpoint, err := s.readCheckpoint(threadID, seq)
		if err != nil {
			return nil, err
		}
		checkpoints = append(checkpoints, checkpoint)
	}
	return checkpoints, nil
}

func (s *FileStore) ListThreads(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read threads directory: %w", err)
	}
	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			ids = append(ids, entry.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *FileStore) Delete(ctx context.Context, threadID string) error {
	lock := s.threadLock(threadID)
	lock.Lock()
	defer lock.Unlock()

	if err := os.RemoveAll(s.threadDir(threadID)); err != nil {
		return fmt.Errorf("failed to delete thread directory: %w", err)
	}
	return nil
}

func (s *FileStore) readCheckpoint(threadID string, seq int) (*Checkpoint, error) {
	data, err := os.ReadFile(s.checkpointPath(threadID, seq))
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint file: %w", err)
	}
	var checkpoint Checkpoint
	if err := json.Unmarshal(data, &checkpoint); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}
	return &checkpoint, nil
}

// latestSeq returns the highest stored sequence for a thread, 0 when none.
func (s *FileStore) latestSeq(threadID string) (int, error) {
	seqs, err := s.checkpointSeqs(threadID)
	if err != nil {
		return 0, err
	}
	if len(seqs) == 0 {
		return 0, nil
	}
	return seqs[len(seqs)-1], nil
}

func (s *FileStore) checkpointSeqs(threadID string) ([]int, error) {
	entries, err := os.ReadDir(s.threadDir(threadID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read thread directory: %w", err)
	}
	var seqs []int
	for _, entry := range entries {
		var seq int
		if _, err := fmt.Sscanf(entry.Name(), "checkpoint-%06d.json", &seq); err == nil {
			seqs = append(seqs, seq)
		}
	}
	sort.Ints(seqs)
	return seqs, nil
}
