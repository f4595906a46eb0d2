package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/no2forms/intake-assistant/pkg/logging"
)

// DefaultBookingSubject is the subject booking events are published on.
const DefaultBookingSubject = "no2forms.bookings.created"

type natsPublisher interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher publishes booking events to a NATS subject.
type NATSPublisher struct {
	conn    natsPublisher
	subject string
	closeFn func()
}

// ConnectNATS dials url and returns a publisher for subject.
func ConnectNATS(url, token, subject string, logger *logging.Logger) (*NATSPublisher, error) {
	if logger == nil {
		logger = logging.Default()
	}
	opts := []nats.Option{
		nats.Name("intake-assistant"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("notify: nats connect: %w", err)
	}
	p := newNATSPublisher(nc, subject)
	p.closeFn = nc.Close
	return p, nil
}

func newNATSPublisher(conn natsPublisher, subject string) *NATSPublisher {
	if subject == "" {
		subject = DefaultBookingSubject
	}
	return &NATSPublisher{conn: conn, subject: subject}
}

func (p *NATSPublisher) Name() string { return "nats" }

func (p *NATSPublisher) Deliver(_ context.Context, n Notification) error {
	payload, err := json.Marshal(n.Event())
	if err != nil {
		return fmt.Errorf("notify: marshal booking event: %w", err)
	}
	if err := p.conn.Publish(p.subject, payload); err != nil {
		return fmt.Errorf("notify: nats publish %s: %w", p.subject, err)
	}
	return nil
}

// Close closes the connection opened by ConnectNATS.
func (p *NATSPublisher) Close() {
	if p.closeFn != nil {
		p.closeFn()
	}
}
