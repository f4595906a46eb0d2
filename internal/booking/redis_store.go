package booking

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// compareAndSet replaces the collection only when the stored version matches.
var compareAndSet = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'version')
if not current then current = '' end
if current ~= ARGV[1] then return 0 end
redis.call('HSET', KEYS[1], 'version', ARGV[2], 'records', ARGV[3])
return 1
`)

// RedisStore keeps the collection in a Redis hash under ledger:<name>.
type RedisStore struct {
	redis *redis.Client
	key   string
}

// NewRedisStore builds a store for the named ledger.
func NewRedisStore(client *redis.Client, name string) *RedisStore {
	if client == nil {
		panic("booking: redis client cannot be nil")
	}
	if name == "" {
		name = "bookings"
	}
	return &RedisStore{redis: client, key: ledgerKey(name)}
}

func (s *RedisStore) Load(ctx context.Context) (Snapshot, error) {
	fields, err := s.redis.HGetAll(ctx, s.key).Result()
	if err != nil {
		return Snapshot{}, fmt.Errorf("booking: redis load: %w", err)
	}
	if len(fields) == 0 {
		return Snapshot{}, nil
	}
	records, err := decodeRecords([]byte(fields["records"]))
	if err != nil {
		return Snapshot{}, fmt.Errorf("booking: redis decode: %w", err)
	}
	return Snapshot{Records: records, Version: fields["version"]}, nil
}

func (s *RedisStore) Save(ctx context.Context, records []Record, version string) error {
	data, err := encodeRecords(records)
	if err != nil {
		return err
	}
	swapped, err := compareAndSet.Run(ctx, s.redis, []string{s.key}, version, uuid.NewString(), string(data)).Int()
	if err != nil {
		return fmt.Errorf("booking: redis save: %w", err)
	}
	if swapped == 0 {
		return ErrVersionConflict
	}
	return nil
}

func ledgerKey(name string) string {
	return fmt.Sprintf("ledger:%s", name)
}
