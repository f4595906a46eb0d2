package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	SiteName           string
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int

	// SlotTimezone is the zone free-text booking times are normalized into.
	SlotTimezone string

	// Booking ledger
	LedgerBackend     string
	LedgerName        string
	LedgerPath        string
	LedgerDynamoTable string
	LedgerS3Bucket    string
	LedgerS3Key       string
	DatabaseURL       string

	// Redis (ledger and/or sessions)
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Server-side dialogue sessions
	SessionStore string
	SessionTTL   time.Duration

	// AWS
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Oracle (LLM)
	LLMProvider         string
	LLMFallbackProvider string
	OpenAIAPIKey        string
	OpenAIModel         string
	BedrockModelID      string
	GeminiAPIKey        string
	GeminiModel         string
	OracleTemperature   float64

	// Notification channels
	EmailProvider     string
	SendGridAPIKey    string
	EmailFromAddress  string
	EmailFromName     string
	BookingsToEmail   []string
	SlackWebhookURL   string
	NatsURL           string
	NatsToken         string
	NatsSubject       string
	NotifySQSQueueURL string

	// Tagline poll
	PollPath string
	PollSeed string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		SiteName:           getEnv("SITE_NAME", "no2forms"),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		RateLimitRPS:       getEnvAsFloat("RATE_LIMIT_RPS", 2),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 10),

		SlotTimezone: getEnv("SLOT_TIMEZONE", "Europe/London"),

		LedgerBackend:     strings.ToLower(strings.TrimSpace(getEnv("LEDGER_BACKEND", "file"))),
		LedgerName:        getEnv("LEDGER_NAME", "bookings"),
		LedgerPath:        getEnv("LEDGER_PATH", "data/bookings.json"),
		LedgerDynamoTable: getEnv("LEDGER_DYNAMO_TABLE", "booking_ledgers"),
		LedgerS3Bucket:    getEnv("LEDGER_S3_BUCKET", ""),
		LedgerS3Key:       getEnv("LEDGER_S3_KEY", "ledgers/bookings.json"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		SessionStore: strings.ToLower(strings.TrimSpace(getEnv("SESSION_STORE", "memory"))),
		SessionTTL:   getEnvAsDuration("SESSION_TTL", 24*time.Hour),

		AWSRegion:           getEnv("AWS_REGION", "eu-west-2"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		LLMProvider:         strings.ToLower(strings.TrimSpace(getEnv("LLM_PROVIDER", "openai"))),
		LLMFallbackProvider: strings.ToLower(strings.TrimSpace(getEnv("LLM_FALLBACK_PROVIDER", ""))),
		OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:         getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		BedrockModelID:      getEnv("BEDROCK_MODEL_ID", ""),
		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		GeminiModel:         getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		OracleTemperature:   getEnvAsFloat("ORACLE_TEMPERATURE", 0.2),

		EmailProvider:     strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "sendgrid"))),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		EmailFromAddress:  getEnv("EMAIL_FROM_ADDRESS", "onboarding@no2forms.com"),
		EmailFromName:     getEnv("EMAIL_FROM_NAME", "no2forms"),
		BookingsToEmail:   getEnvAsList("BOOKINGS_TO_EMAIL", nil),
		SlackWebhookURL:   getEnv("SLACK_WEBHOOK_URL", ""),
		NatsURL:           getEnv("NATS_URL", ""),
		NatsToken:         getEnv("NATS_TOKEN", ""),
		NatsSubject:       getEnv("NATS_SUBJECT", "no2forms.bookings.created"),
		NotifySQSQueueURL: getEnv("NOTIFY_SQS_QUEUE_URL", ""),

		PollPath: getEnv("POLL_PATH", "data/poll.json"),
		PollSeed: getEnv("POLL_SEED", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blank entries.
func getEnvAsList(key string, defaultValue []string) []string {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
