package poll

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
)

// MemoryStore keeps the tally in process.
type MemoryStore struct {
	mu    sync.Mutex
	tally Tally
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tally: Tally{}}
}

func (s *MemoryStore) Load(_ context.Context) (Tally, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyTally(s.tally), nil
}

func (s *MemoryStore) Save(_ context.Context, tally Tally) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tally = copyTally(tally)
	return nil
}

// FileStore keeps the tally as an indented JSON object on disk.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	if path == "" {
		panic("poll: file path cannot be empty")
	}
	return &FileStore{path: path}
}

// Load returns an empty tally when the file is missing or unreadable JSON.
func (s *FileStore) Load(_ context.Context) (Tally, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Tally{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("poll: read %s: %w", s.path, err)
	}
	tally := Tally{}
	if err := json.Unmarshal(data, &tally); err != nil {
		return Tally{}, nil
	}
	return tally, nil
}

func (s *FileStore) Save(_ context.Context, tally Tally) error {
	data, err := json.MarshalIndent(tally, "", "  ")
	if err != nil {
		return fmt.Errorf("poll: encode tally: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("poll: create data dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("poll: write %s: %w", s.path, err)
	}
	return nil
}

// RedisStore keeps the tally in a hash of label to count.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if client == nil {
		panic("poll: redis client cannot be nil")
	}
	if key == "" {
		key = "poll:tagline"
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Load(ctx context.Context) (Tally, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("poll: redis hgetall: %w", err)
	}
	tally := make(Tally, len(fields))
	for label, value := range fields {
		count, err := strconv.Atoi(value)
		if err != nil {
			continue
		}
		tally[label] = count
	}
	return tally, nil
}

func (s *RedisStore) Save(ctx context.Context, tally Tally) error {
	if len(tally) == 0 {
		return nil
	}
	values := make(map[string]any, len(tally))
	for label, count := range tally {
		values[label] = count
	}
	if err := s.client.HSet(ctx, s.key, values).Err(); err != nil {
		return fmt.Errorf("poll: redis hset: %w", err)
	}
	return nil
}

func copyTally(in Tally) Tally {
	out := make(Tally, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
