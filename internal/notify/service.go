package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/no2forms/intake-assistant/internal/booking"
	"github.com/no2forms/intake-assistant/pkg/logging"
)

const defaultChannelTimeout = 10 * time.Second

// Channel delivers a booking notification somewhere.
type Channel interface {
	Name() string
	Deliver(ctx context.Context, n Notification) error
}

// Service fans a committed booking out to every configured channel. With no
// channels it is a no-op.
type Service struct {
	site     string
	channels []Channel
	timeout  time.Duration
	logger   *logging.Logger
}

var _ booking.Notifier = (*Service)(nil)

// NewService creates a notification service. Callers pass only configured
// channels; constructors such as NewSlackWebhook return nil when unconfigured.
func NewService(site string, logger *logging.Logger, channels ...Channel) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{site: site, timeout: defaultChannelTimeout, logger: logger}
	for _, ch := range channels {
		if ch != nil {
			s.channels = append(s.channels, ch)
		}
	}
	return s
}

// Channels returns the names of the configured channels.
func (s *Service) Channels() []string {
	names := make([]string, 0, len(s.channels))
	for _, ch := range s.channels {
		names = append(names, ch.Name())
	}
	return names
}

// Notify delivers to every channel. A failing channel does not stop the
// others; the failures are logged and returned joined.
func (s *Service) Notify(ctx context.Context, rec booking.Record) error {
	if len(s.channels) == 0 {
		s.logger.Debug("notify: no channels configured, skipping", "booking_id", rec.ID)
		return nil
	}
	n := Notification{Record: rec, Summary: BuildSummary(rec, s.site)}

	var errs []error
	for _, ch := range s.channels {
		chCtx, cancel := context.WithTimeout(ctx, s.timeout)
		err := ch.Deliver(chCtx, n)
		cancel()
		if err != nil {
			s.logger.Error("notify: channel delivery failed", "channel", ch.Name(), "booking_id", rec.ID, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", ch.Name(), err))
			continue
		}
		s.logger.Info("notify: booking delivered", "channel", ch.Name(), "booking_id", rec.ID)
	}
	return errors.Join(errs...)
}
