package booking

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

const lockRetryWait = 25 * time.Millisecond

// FileStore keeps the collection as one JSON array on disk. Writes go to a
// temp file in the same directory and are renamed over the target, under an
// exclusive lock on a sibling ".lock" file so the version check and the
// rename are atomic across processes sharing the path.
type FileStore struct {
	path string
}

// NewFileStore returns a store rooted at path. The directory is created on
// first write.
func NewFileStore(path string) *FileStore {
	if path == "" {
		panic("booking: file store path cannot be empty")
	}
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load(_ context.Context) (Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Snapshot{}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("booking: read %s: %w", s.path, err)
	}
	records, err := decodeRecords(data)
	if err != nil {
		return Snapshot{}, fmt.Errorf("booking: decode %s: %w", s.path, err)
	}
	return Snapshot{Records: records, Version: contentVersion(data)}, nil
}

func (s *FileStore) Save(ctx context.Context, records []Record, version string) error {
	data, err := encodeRecords(records)
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("booking: create %s: %w", dir, err)
	}

	return withFileLock(ctx, s.path+".lock", func() error {
		current, err := s.currentVersion()
		if err != nil {
			return err
		}
		if current != version {
			return ErrVersionConflict
		}
		return s.replace(dir, data)
	})
}

func (s *FileStore) replace(dir string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".bookings-*.json")
	if err != nil {
		return fmt.Errorf("booking: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("booking: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("booking: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("booking: replace %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) currentVersion() (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("booking: read %s: %w", s.path, err)
	}
	return contentVersion(data), nil
}

func waitForLock(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	timer := time.NewTimer(lockRetryWait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func contentVersion(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:12])
}

func encodeRecords(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("booking: encode records: %w", err)
	}
	return data, nil
}

func decodeRecords(data []byte) ([]Record, error) {
	var records []Record
	if len(data) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}
