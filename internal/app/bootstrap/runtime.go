package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/no2forms/intake-assistant/internal/config"
	"github.com/no2forms/intake-assistant/internal/dialogue"
	"github.com/no2forms/intake-assistant/pkg/logging"
)

// AWSConfigLoader loads the shared AWS SDK config. It is only called when a
// configured backend needs AWS.
type AWSConfigLoader func(ctx context.Context) (aws.Config, error)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildSessionStore picks where server-side dialogue sessions live.
func BuildSessionStore(cfg *appconfig.Config, redisClient *redis.Client, logger *logging.Logger) (dialogue.SessionStore, error) {
	if logger == nil {
		logger = logging.Default()
	}
	switch cfg.SessionStore {
	case "", "memory":
		return dialogue.NewMemorySessionStore(cfg.SessionTTL), nil
	case "redis":
		if redisClient == nil {
			return nil, fmt.Errorf("bootstrap: SESSION_STORE=redis requires REDIS_ADDR")
		}
		logger.Info("dialogue sessions stored in redis", "ttl", cfg.SessionTTL.String())
		return dialogue.NewRedisSessionStore(redisClient, cfg.SessionTTL), nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown session store %q", cfg.SessionStore)
	}
}

// onceAWS memoizes an AWSConfigLoader.
func onceAWS(load AWSConfigLoader) AWSConfigLoader {
	var (
		once   sync.Once
		awsCfg aws.Config
		err    error
	)
	return func(ctx context.Context) (aws.Config, error) {
		if load == nil {
			return aws.Config{}, fmt.Errorf("bootstrap: aws config loader not provided")
		}
		once.Do(func() { awsCfg, err = load(ctx) })
		return awsCfg, err
	}
}
