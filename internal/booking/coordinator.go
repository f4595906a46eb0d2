package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/no2forms/intake-assistant/internal/observability/metrics"
	"github.com/no2forms/intake-assistant/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	effectPersist = "persist"
	effectNotify  = "notify"
)

// Notifier dispatches a human-facing summary of a committed booking.
type Notifier interface {
	Notify(ctx context.Context, rec Record) error
}

// Outcome is the result of a commit. Persist and Notify report the
// best-effort side effects; neither changes OK.
type Outcome struct {
	OK      bool
	Reason  Reason
	Key     string
	Record  Record
	Persist EffectResult
	Notify  EffectResult
}

// Coordinator validates, deduplicates, persists and notifies.
type Coordinator struct {
	ledger   *Ledger
	notifier Notifier
	metrics  *metrics.IntakeMetrics
	logger   *logging.Logger
	tracer   trace.Tracer
	now      func() time.Time
	newID    func() string
}

// CoordinatorOption customises a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithMetrics records commit outcomes.
func WithMetrics(m *metrics.IntakeMetrics) CoordinatorOption {
	return func(c *Coordinator) { c.metrics = m }
}

// WithClock overrides time.Now for record timestamps.
func WithClock(now func() time.Time) CoordinatorOption {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCoordinator builds a coordinator. A nil notifier disables notifications.
func NewCoordinator(ledger *Ledger, notifier Notifier, logger *logging.Logger, opts ...CoordinatorOption) *Coordinator {
	if ledger == nil {
		panic("booking: ledger cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	c := &Coordinator{
		ledger:   ledger,
		notifier: notifier,
		logger:   logger,
		tracer:   otel.Tracer("no2forms.internal.booking.coordinator"),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Commit records a booking unless its canonical time key is already taken.
func (c *Coordinator) Commit(ctx context.Context, req CommitRequest) Outcome {
	start := c.now()
	ctx, span := c.tracer.Start(ctx, "booking.commit")
	defer span.End()

	out := c.commit(ctx, req.Normalize())
	span.SetAttributes(
		attribute.Bool("booking.ok", out.OK),
		attribute.String("booking.reason", string(out.Reason)),
		attribute.String("booking.canonical_key", out.Key),
	)
	c.metrics.ObserveCommit(string(out.Reason), c.now().Sub(start).Seconds())
	return out
}

func (c *Coordinator) commit(ctx context.Context, req CommitRequest) Outcome {
	if err := req.Validate(); err != nil {
		return Outcome{Reason: ReasonMissingFields}
	}

	key := c.ledger.Normalizer().Key(req.ISOKey, req.Time)
	rec := Record{
		ID:         c.newID(),
		Email:      req.Email,
		Time:       req.Time,
		Name:       req.Name,
		Notes:      req.Notes,
		ISOKey:     req.ISOKey,
		CreatedKey: key,
		CreatedAt:  c.now().UTC(),
	}

	res, err := c.ledger.AppendIfAbsent(ctx, rec)
	if err != nil {
		c.logger.Error("booking commit failed", "error", err, "canonical_key", key)
		return Outcome{Reason: ReasonServerError, Key: key}
	}
	if res.Duplicate {
		c.logger.Info("booking slot unavailable", "canonical_key", key)
		return Outcome{Reason: ReasonSlotUnavailable, Key: key}
	}

	out := Outcome{
		OK:      true,
		Key:     key,
		Record:  res.Record,
		Persist: EffectResult{Name: effectPersist, Err: res.PersistErr},
		Notify:  EffectResult{Name: effectNotify},
	}
	if !out.Persist.OK() {
		c.metrics.ObserveEffectFailure(effectPersist)
	}
	if c.notifier != nil {
		if err := c.notifier.Notify(ctx, res.Record); err != nil {
			c.logger.Warn("booking notification failed", "error", err, "booking_id", res.Record.ID)
			c.metrics.ObserveEffectFailure(effectNotify)
			out.Notify.Err = err
		}
	}
	c.logger.Info("booking committed",
		"booking_id", res.Record.ID,
		"canonical_key", key,
		"persisted", out.Persist.OK(),
		"notified", out.Notify.OK(),
	)
	return out
}

// Available reports whether the slot described by isoKey/raw is still free,
// along with the canonical key it was checked under.
func (c *Coordinator) Available(ctx context.Context, isoKey, raw string) (bool, string, error) {
	key := c.ledger.Normalizer().Key(isoKey, raw)
	taken, err := c.ledger.Exists(ctx, key)
	if err != nil {
		return false, key, err
	}
	return !taken, key, nil
}
