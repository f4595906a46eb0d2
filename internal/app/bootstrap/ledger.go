package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/no2forms/intake-assistant/internal/booking"
	appconfig "github.com/no2forms/intake-assistant/internal/config"
	"github.com/no2forms/intake-assistant/pkg/logging"
)

// BuildLedgerStore selects the booking ledger backend from LEDGER_BACKEND.
// The returned cleanup releases backend resources and is never nil.
func BuildLedgerStore(ctx context.Context, cfg *appconfig.Config, redisClient *redis.Client, loadAWS AWSConfigLoader, logger *logging.Logger) (booking.Store, func(), error) {
	if logger == nil {
		logger = logging.Default()
	}
	noop := func() {}

	switch cfg.LedgerBackend {
	case "", "file":
		logger.Info("booking ledger backend: file", "path", cfg.LedgerPath)
		return booking.NewFileStore(cfg.LedgerPath), noop, nil

	case "memory":
		logger.Warn("booking ledger backend: memory; bookings are lost on restart")
		return booking.NewMemoryStore(), noop, nil

	case "redis":
		if redisClient == nil {
			return nil, noop, fmt.Errorf("bootstrap: LEDGER_BACKEND=redis requires REDIS_ADDR")
		}
		logger.Info("booking ledger backend: redis", "ledger", cfg.LedgerName)
		return booking.NewRedisStore(redisClient, cfg.LedgerName), noop, nil

	case "postgres":
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return nil, noop, fmt.Errorf("bootstrap: LEDGER_BACKEND=postgres requires DATABASE_URL")
		}
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, noop, fmt.Errorf("bootstrap: connect postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, noop, fmt.Errorf("bootstrap: ping postgres: %w", err)
		}
		logger.Info("booking ledger backend: postgres", "ledger", cfg.LedgerName)
		return booking.NewPostgresStore(pool, cfg.LedgerName), pool.Close, nil

	case "dynamodb":
		awsCfg, err := loadAWS(ctx)
		if err != nil {
			return nil, noop, fmt.Errorf("bootstrap: load aws config: %w", err)
		}
		logger.Info("booking ledger backend: dynamodb", "table", cfg.LedgerDynamoTable, "ledger", cfg.LedgerName)
		return booking.NewDynamoStore(dynamodb.NewFromConfig(awsCfg), cfg.LedgerDynamoTable, cfg.LedgerName), noop, nil

	case "s3":
		if strings.TrimSpace(cfg.LedgerS3Bucket) == "" {
			return nil, noop, fmt.Errorf("bootstrap: LEDGER_BACKEND=s3 requires LEDGER_S3_BUCKET")
		}
		awsCfg, err := loadAWS(ctx)
		if err != nil {
			return nil, noop, fmt.Errorf("bootstrap: load aws config: %w", err)
		}
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.UsePathStyle = cfg.AWSEndpointOverride != ""
		})
		logger.Info("booking ledger backend: s3", "bucket", cfg.LedgerS3Bucket, "key", cfg.LedgerS3Key)
		return booking.NewS3Store(client, cfg.LedgerS3Bucket, cfg.LedgerS3Key), noop, nil

	default:
		return nil, noop, fmt.Errorf("bootstrap: unknown ledger backend %q", cfg.LedgerBackend)
	}
}
