package booking

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore checks the optimistic-concurrency contract every backend shares.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	snap, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Records)
	assert.Equal(t, "", snap.Version)

	first := []Record{{ID: "1", Email: "a@example.com", Time: "Thu 3pm", CreatedKey: "thu3pm"}}
	require.NoError(t, store.Save(ctx, first, ""))
	assert.ErrorIs(t, store.Save(ctx, first, ""), ErrVersionConflict, "second create must conflict")

	snap, err = store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Records, 1)
	assert.NotEmpty(t, snap.Version)
	assert.Equal(t, "a@example.com", snap.Records[0].Email)

	second := append(snap.Records, Record{ID: "2", Email: "b@example.com", Time: "Fri 10am", CreatedKey: "fri10am"})
	require.NoError(t, store.Save(ctx, second, snap.Version))
	assert.ErrorIs(t, store.Save(ctx, second, snap.Version), ErrVersionConflict, "stale version must conflict")

	snap, err = store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Records, 2)
	assert.Equal(t, "b@example.com", snap.Records[1].Email)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "bookings.json")
	exerciseStore(t, NewFileStore(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"createdKey": "fri10am"`)
}

func TestFileStore_CorruptFileIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookings.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewFileStore(path).Load(context.Background())
	assert.Error(t, err)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	exerciseStore(t, NewRedisStore(client, "site"))
	assert.True(t, mr.Exists("ledger:site"))
}
