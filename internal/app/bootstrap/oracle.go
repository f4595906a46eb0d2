package bootstrap

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	appconfig "github.com/no2forms/intake-assistant/internal/config"
	"github.com/no2forms/intake-assistant/internal/dialogue"
	"github.com/no2forms/intake-assistant/internal/llm"
	"github.com/no2forms/intake-assistant/pkg/logging"
)

// BuildLLMClient builds the chat-completion client for one provider. It
// returns nil for "none" or "".
func BuildLLMClient(ctx context.Context, cfg *appconfig.Config, provider string, loadAWS AWSConfigLoader) (llm.Client, error) {
	switch provider {
	case "", "none":
		return nil, nil
	case "openai":
		return llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	case "bedrock":
		if cfg.BedrockModelID == "" {
			return nil, fmt.Errorf("bootstrap: LLM provider bedrock requires BEDROCK_MODEL_ID")
		}
		awsCfg, err := loadAWS(ctx)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: load aws config: %w", err)
		}
		return llm.NewBedrockClient(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID), nil
	case "gemini":
		return llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	default:
		return nil, fmt.Errorf("bootstrap: unknown LLM provider %q", provider)
	}
}

// BuildOracle wires the primary provider, optionally chained to a fallback
// provider. A nil oracle means every turn uses the lexical oracle. A provider
// that cannot be built is logged and skipped so the widget keeps working.
func BuildOracle(ctx context.Context, cfg *appconfig.Config, loadAWS AWSConfigLoader, logger *logging.Logger) dialogue.Oracle {
	if logger == nil {
		logger = logging.Default()
	}
	primary, err := BuildLLMClient(ctx, cfg, cfg.LLMProvider, loadAWS)
	if err != nil {
		logger.Warn("primary LLM unavailable", "provider", cfg.LLMProvider, "error", err)
		primary = nil
	}
	fallback, err := BuildLLMClient(ctx, cfg, cfg.LLMFallbackProvider, loadAWS)
	if err != nil {
		logger.Warn("fallback LLM unavailable", "provider", cfg.LLMFallbackProvider, "error", err)
		fallback = nil
	}

	var client llm.Client
	switch {
	case primary != nil && fallback != nil:
		client = llm.NewFallbackClient(primary, fallback, logger)
	case primary != nil:
		client = primary
	case fallback != nil:
		client = fallback
	default:
		logger.Warn("no LLM configured; dialogue runs on the lexical oracle")
		return nil
	}
	logger.Info("oracle configured", "provider", cfg.LLMProvider, "fallback", cfg.LLMFallbackProvider)
	return dialogue.NewLLMOracle(client, cfg.SiteName, float32(cfg.OracleTemperature))
}
