package dialogue

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleState() *State {
	return &State{
		Mode:          ModeBooking,
		Slots:         Slots{Email: "jane@example.com", ISOKey: "2025-06-12t15:00", Time: "Thu 15:00"},
		History:       []Turn{{Role: RoleUser, Content: "book a demo"}},
		BookingIntent: true,
		NameAsks:      1,
	}
}

func TestMemorySessionStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore(time.Minute)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	_, err := store.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, store.Save(ctx, "s1", sampleState()))
	got, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, sampleState(), got)

	got.Slots.Email = "changed@example.com"
	again, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", again.Slots.Email, "loads must not alias stored state")

	now = now.Add(2 * time.Minute)
	_, err = store.Load(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, store.Save(ctx, "s2", NewState()))
	require.NoError(t, store.Delete(ctx, "s2"))
	_, err = store.Load(ctx, "s2")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisSessionStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := NewRedisSessionStore(client, time.Hour)

	_, err := store.Load(ctx, "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, store.Save(ctx, "s1", sampleState()))
	assert.Equal(t, time.Hour, mr.TTL("session:s1"))

	got, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, sampleState(), got)

	mr.FastForward(2 * time.Hour)
	_, err = store.Load(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, mr.Set("session:bad", "{"))
	_, err = store.Load(ctx, "bad")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrSessionNotFound)
}
