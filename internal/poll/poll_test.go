package poll

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLabel(t *testing.T) {
	tests := []struct {
		in   string
		want string
		err  error
	}{
		{in: "Forms", want: "forms"},
		{in: "  Say No 2 Forms ", want: "forms"},
		{in: "sayno2paperwork", want: "paperwork"},
		{in: "say no 2", want: "say no 2"},
		{in: "", err: ErrMissingLabel},
		{in: "   ", err: ErrInvalidLabel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeLabel(tt.in)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSeed(t *testing.T) {
	seed := ParseSeed("forms=10, Say no 2 queues = 3,broken,bad=x,neg=-1")
	assert.Equal(t, Tally{"forms": 10, "queues": 3}, seed)
	assert.Empty(t, ParseSeed(""))
}

func TestPoll_VoteAppliesSeedAndPersists(t *testing.T) {
	store := NewMemoryStore()
	p := New(store, Tally{"forms": 10}, nil)
	ctx := context.Background()

	tally, err := p.Vote(ctx, "say no 2 forms")
	require.NoError(t, err)
	assert.Equal(t, 11, tally["forms"])

	tally, err = p.Vote(ctx, "Hold music")
	require.NoError(t, err)
	assert.Equal(t, Tally{"forms": 11, "hold music": 1}, tally)

	stored, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, tally, stored)

	results, err := p.Results(ctx)
	require.NoError(t, err)
	assert.Equal(t, tally, results)
}

func TestPoll_InvalidVoteLeavesTally(t *testing.T) {
	store := NewMemoryStore()
	p := New(store, nil, nil)

	_, err := p.Vote(context.Background(), " ")
	assert.ErrorIs(t, err, ErrInvalidLabel)

	stored, _ := store.Load(context.Background())
	assert.Empty(t, stored)
}

type brokenStore struct {
	loadErr error
	saveErr error
}

func (b brokenStore) Load(context.Context) (Tally, error) { return Tally{}, b.loadErr }
func (b brokenStore) Save(context.Context, Tally) error    { return b.saveErr }

func TestPoll_SaveFailureIsBestEffort(t *testing.T) {
	p := New(brokenStore{saveErr: errors.New("read-only fs")}, nil, nil)
	tally, err := p.Vote(context.Background(), "forms")
	require.NoError(t, err)
	assert.Equal(t, 1, tally["forms"])
}

func TestPoll_LoadFailureIsReturned(t *testing.T) {
	p := New(brokenStore{loadErr: errors.New("disk gone")}, nil, nil)
	_, err := p.Vote(context.Background(), "forms")
	assert.Error(t, err)
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "poll.json")
	store := NewFileStore(path)
	ctx := context.Background()

	tally, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, tally)

	require.NoError(t, store.Save(ctx, Tally{"forms": 2}))
	tally, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, Tally{"forms": 2}, tally)

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	tally, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, tally)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisStore(client, "")
	p := New(store, Tally{"forms": 10}, nil)
	ctx := context.Background()

	_, err := p.Vote(ctx, "forms")
	require.NoError(t, err)
	_, err = p.Vote(ctx, "paper")
	require.NoError(t, err)

	assert.Equal(t, "11", mr.HGet("poll:tagline", "forms"))
	stored, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, Tally{"forms": 11, "paper": 1}, stored)
}
