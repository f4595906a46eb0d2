package booking

import (
	"context"
	"strconv"
	"sync"
)

// MemoryStore keeps the collection in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	records []Record
	version int
}

// NewMemoryStore returns an empty store, optionally seeded.
func NewMemoryStore(seed ...Record) *MemoryStore {
	s := &MemoryStore{}
	if len(seed) > 0 {
		s.records = append([]Record(nil), seed...)
		s.version = 1
	}
	return s
}

func (s *MemoryStore) Load(_ context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Records: append([]Record(nil), s.records...),
		Version: s.versionString(),
	}, nil
}

func (s *MemoryStore) Save(_ context.Context, records []Record, version string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if version != s.versionString() {
		return ErrVersionConflict
	}
	s.records = append([]Record(nil), records...)
	s.version++
	return nil
}

func (s *MemoryStore) versionString() string {
	if s.version == 0 {
		return ""
	}
	return strconv.Itoa(s.version)
}
