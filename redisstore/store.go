// Package redisstore provides a CheckpointStore backed by Redis. Each
// thread's history is a list of JSON checkpoints; a Lua script makes the
// append conditional on the list length so the sequence check and the push
// happen atomically.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/stewardhq/steward"
)

const (
	threadKeyPrefix = "steward:thread:"
	threadSetKey    = "steward:threads"
)

// appendScript pushes the checkpoint only when seq extends the list by one.
// Returns the new length, or -1 on a sequence conflict.
var appendScript = redis.NewScript(`
local len = redis.call('LLEN', KEYS[1])
if tonumber(ARGV[1]) ~= len + 1 then
	return -1
end
redis.call('RPUSH', KEYS[1], ARGV[2])
redis.call('SADD', KEYS[2], ARGV[3])
return len + 1
`)

// Store persists checkpoints in Redis.
type Store struct {
	client redis.UniversalClient
}

// Options configure the Redis store.
type Options struct {
	Addr     string
	Password string
	DB       int
	Client   redis.UniversalClient
}

// New connects to Redis (or adopts the provided client) and verifies the
// connection with a ping.
func New(ctx context.Context, opts Options) (*Store, error) {
	client := opts.Client
	if client == nil {
		if opts.Addr == "" {
			return nil, steward.NewValidationError("redis store requires an address or a client")
		}
		client = redis.NewClient(&redis.Options{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
		})
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func threadKey(threadID string) string {
	return threadKeyPrefix + threadID
}

func (s *Store) Save(ctx context.Context, checkpoint *steward.Checkpoint) error {
	if err := steward.ValidateCheckpoint(checkpoint); err != nil {
		return err
	}
	data, err := json.Marshal(checkpoint)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	result, err := appendScript.Run(ctx, s.client,
		[]string{threadKey(checkpoint.ThreadID), threadSetKey},
		checkpoint.Seq, data, checkpoint.ThreadID).Int64()
	if err != nil {
		return fmt.Errorf("failed to append checkpoint: %w", err)
	}
	if result < 0 {
		return steward.NewConflictError("checkpoint seq %d does not extend thread %q",
			checkpoint.Seq, checkpoint.ThreadID)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, threadID string) (*steward.Checkpoint, error) {
	data, err := s.client.LIndex(ctx, threadKey(threadID), -1).Result()
	if errors.Is(err, redis.Nil) {
		return nil, steward.NewNotFoundError("no checkpoints found for thread %q", threadID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	return decodeCheckpoint(data)
}

func (s *Store) History(ctx context.Context, threadID string) ([]*steward.Checkpoint, error) {
	items, err := s.client.LRange(ctx, threadKey(threadID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint history: %w", err)
	}
	if len(items) == 0 {
		return nil, steward.NewNotFoundError("no checkpoints found for thread %q", threadID)
	}
	history := make([]*steward.Checkpoint, 0, len(items))
	for _, item := range items {
		checkpoint, err := decodeCheckpoint(item)
		if err != nil {
			return nil, err
		}
		history = append(history, checkpoint)
	}
	return history, nil
}

func (s *Store) ListThreads(ctx context.Context) ([]string, error) {
	threads, err := s.client.SMembers(ctx, threadSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	return threads, nil
}

func (s *Store) Delete(ctx context.Context, threadID string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, threadKey(threadID))
	pipe.SRem(ctx, threadSetKey, threadID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete thread %q: %w", threadID, err)
	}
	return nil
}

func decodeCheckpoint(data string) (*steward.Checkpoint, error) {
	var checkpoint steward.Checkpoint
	if err := json.Unmarshal([]byte(data), &checkpoint); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}
	return &checkpoint, nil
}
