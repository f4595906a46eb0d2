package bootstrap

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	appconfig "github.com/no2forms/intake-assistant/internal/config"
	"github.com/no2forms/intake-assistant/internal/notify"
	"github.com/no2forms/intake-assistant/pkg/logging"
)

// BuildNotifier assembles the configured notification channels. Unconfigured
// channels are skipped; no channels at all is a valid no-op service. The
// returned cleanup closes any connections opened here.
func BuildNotifier(ctx context.Context, cfg *appconfig.Config, loadAWS AWSConfigLoader, logger *logging.Logger) (*notify.Service, func(), error) {
	if logger == nil {
		logger = logging.Default()
	}
	var (
		channels []notify.Channel
		closers  []func()
	)
	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}

	sender, err := buildEmailSender(ctx, cfg, loadAWS, logger)
	if err != nil {
		return nil, cleanup, err
	}
	if ch := notify.NewEmailChannel(sender, cfg.BookingsToEmail); ch != nil {
		channels = append(channels, ch)
	}

	if ch := notify.NewSlackWebhook(cfg.SlackWebhookURL); ch != nil {
		channels = append(channels, ch)
	}

	if cfg.NatsURL != "" {
		pub, err := notify.ConnectNATS(cfg.NatsURL, cfg.NatsToken, cfg.NatsSubject, logger)
		if err != nil {
			return nil, cleanup, err
		}
		channels = append(channels, pub)
		closers = append(closers, pub.Close)
	}

	if cfg.NotifySQSQueueURL != "" {
		awsCfg, err := loadAWS(ctx)
		if err != nil {
			return nil, cleanup, fmt.Errorf("bootstrap: load aws config: %w", err)
		}
		channels = append(channels, notify.NewSQSPublisher(sqs.NewFromConfig(awsCfg), cfg.NotifySQSQueueURL))
	}

	svc := notify.NewService(cfg.SiteName, logger, channels...)
	logger.Info("booking notifications configured", "channels", svc.Channels())
	return svc, cleanup, nil
}

func buildEmailSender(ctx context.Context, cfg *appconfig.Config, loadAWS AWSConfigLoader, logger *logging.Logger) (notify.EmailSender, error) {
	if len(cfg.BookingsToEmail) == 0 {
		return nil, nil
	}
	switch cfg.EmailProvider {
	case "", "none":
		return nil, nil
	case "stub":
		return notify.NewStubEmailSender(logger), nil
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFromAddress,
			FromName:  cfg.EmailFromName,
		}, logger)
		if sender == nil {
			logger.Warn("sendgrid selected but SENDGRID_API_KEY is empty; email disabled")
			return nil, nil
		}
		return sender, nil
	case "ses":
		awsCfg, err := loadAWS(ctx)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: load aws config: %w", err)
		}
		return notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.EmailFromAddress,
			FromName:  cfg.EmailFromName,
		}, logger), nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown email provider %q", cfg.EmailProvider)
	}
}
