// Package booking keeps the append-only ledger of committed bookings and
// rejects a second booking for the same canonical time.
package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/no2forms/intake-assistant/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultAppendAttempts = 3

// Snapshot is a full load of the persisted collection. Version is an opaque
// optimistic-concurrency token; an empty Version means nothing was saved yet.
type Snapshot struct {
	Records []Record
	Version string
}

// Store persists the whole booking collection. Save must return
// ErrVersionConflict when the collection changed since the snapshot with the
// given version was loaded.
type Store interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, records []Record, version string) error
}

// AppendResult describes an AppendIfAbsent call.
type AppendResult struct {
	Record Record
	// Duplicate is set when a stored record already holds the same canonical key.
	Duplicate bool
	// PersistErr is a failed write. The append still counts.
	PersistErr error
}

// Ledger is the append-only booking collection. All writes from this process
// go through one mutex; cross-process writers are detected by Store versions.
type Ledger struct {
	store       Store
	normalizer  *Normalizer
	logger      *logging.Logger
	tracer      trace.Tracer
	maxAttempts int

	mu sync.Mutex
}

// LedgerOption customises a Ledger.
type LedgerOption func(*Ledger)

// WithNormalizer overrides the canonical key normalizer.
func WithNormalizer(n *Normalizer) LedgerOption {
	return func(l *Ledger) {
		if n != nil {
			l.normalizer = n
		}
	}
}

// WithAppendAttempts sets how many times a conflicting write is retried.
func WithAppendAttempts(n int) LedgerOption {
	return func(l *Ledger) {
		if n > 0 {
			l.maxAttempts = n
		}
	}
}

// NewLedger wraps a Store.
func NewLedger(store Store, logger *logging.Logger, opts ...LedgerOption) *Ledger {
	if store == nil {
		panic("booking: ledger store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	l := &Ledger{
		store:       store,
		normalizer:  defaultNormalizer,
		logger:      logger,
		tracer:      otel.Tracer("no2forms.internal.booking.ledger"),
		maxAttempts: defaultAppendAttempts,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Normalizer returns the normalizer used for key comparisons.
func (l *Ledger) Normalizer() *Normalizer {
	return l.normalizer
}

// List returns every record in insertion order.
func (l *Ledger) List(ctx context.Context) ([]Record, error) {
	snap, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Records, nil
}

// Exists reports whether any stored record normalizes to key.
func (l *Ledger) Exists(ctx context.Context, key string) (bool, error) {
	snap, err := l.load(ctx)
	if err != nil {
		return false, err
	}
	return l.contains(snap.Records, key), nil
}

// Append adds rec to the end of the collection without a conflict check.
// Failures follow the same policy as AppendIfAbsent.
func (l *Ledger) Append(ctx context.Context, rec Record) (AppendResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.appendLocked(ctx, l.stamp(rec), false)
}

// AppendIfAbsent runs the load, check, append and save sequence as one unit.
// A load failure is returned. A save failure other than a version conflict is
// reported in PersistErr and the record is treated as appended.
func (l *Ledger) AppendIfAbsent(ctx context.Context, rec Record) (AppendResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.appendLocked(ctx, l.stamp(rec), true)
}

func (l *Ledger) appendLocked(ctx context.Context, rec Record, unique bool) (AppendResult, error) {
	for attempt := 1; ; attempt++ {
		snap, err := l.load(ctx)
		if err != nil {
			return AppendResult{}, err
		}
		if unique && l.contains(snap.Records, rec.CreatedKey) {
			return AppendResult{Record: rec, Duplicate: true}, nil
		}

		err = l.save(ctx, append(cloneRecords(snap.Records), rec), snap.Version)
		switch {
		case err == nil:
			return AppendResult{Record: rec}, nil
		case errors.Is(err, ErrVersionConflict):
			if attempt >= l.maxAttempts {
				return AppendResult{}, fmt.Errorf("booking: ledger busy after %d attempts: %w", attempt, err)
			}
			l.logger.Warn("ledger write raced, retrying",
				"attempt", attempt,
				"canonical_key", rec.CreatedKey,
			)
		default:
			l.logger.Error("ledger write failed; booking kept in memory only",
				"error", err,
				"canonical_key", rec.CreatedKey,
				"booking_id", rec.ID,
			)
			return AppendResult{Record: rec, PersistErr: err}, nil
		}
	}
}

func (l *Ledger) stamp(rec Record) Record {
	if rec.CreatedKey == "" {
		rec.CreatedKey = l.normalizer.RecordKey(rec)
	}
	return rec
}

func (l *Ledger) contains(records []Record, key string) bool {
	for _, rec := range records {
		if l.normalizer.RecordKey(rec) == key {
			return true
		}
	}
	return false
}

func (l *Ledger) load(ctx context.Context) (Snapshot, error) {
	ctx, span := l.tracer.Start(ctx, "booking.ledger.load")
	defer span.End()

	snap, err := l.store.Load(ctx)
	if err != nil {
		span.RecordError(err)
		return Snapshot{}, fmt.Errorf("booking: load ledger: %w", err)
	}
	span.SetAttributes(attribute.Int("ledger.records", len(snap.Records)))
	return snap, nil
}

func (l *Ledger) save(ctx context.Context, records []Record, version string) error {
	ctx, span := l.tracer.Start(ctx, "booking.ledger.save")
	defer span.End()

	span.SetAttributes(attribute.Int("ledger.records", len(records)))
	if err := l.store.Save(ctx, records, version); err != nil {
		span.RecordError(err)
		return fmt.Errorf("booking: save ledger: %w", err)
	}
	return nil
}

func cloneRecords(records []Record) []Record {
	out := make([]Record, len(records), len(records)+1)
	copy(out, records)
	return out
}
