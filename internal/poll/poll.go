// Package poll tallies votes for the site's "say no 2 ..." tagline.
package poll

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/no2forms/intake-assistant/pkg/logging"
)

var (
	// ErrMissingLabel is returned when no label was supplied.
	ErrMissingLabel = errors.New("missing_label")
	// ErrInvalidLabel is returned when the label is blank after trimming.
	ErrInvalidLabel = errors.New("invalid_label")
)

var taglinePrefix = regexp.MustCompile(`^say\s*no\s*2\s*`)

// Tally maps a normalized label to its vote count.
type Tally map[string]int

// Store persists the whole tally.
type Store interface {
	Load(ctx context.Context) (Tally, error)
	Save(ctx context.Context, tally Tally) error
}

// Poll applies votes to a store. Writes are serialized within the process and
// persisted best-effort: a failed save is logged and the vote still counts in
// the returned tally.
type Poll struct {
	store  Store
	seed   Tally
	logger *logging.Logger
	mu     sync.Mutex
}

// New creates a poll. Seed counts are applied to labels the store has not
// recorded yet.
func New(store Store, seed Tally, logger *logging.Logger) *Poll {
	if store == nil {
		panic("poll: store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Poll{store: store, seed: seed, logger: logger}
}

// Results returns the current tally including seed counts.
func (p *Poll) Results(ctx context.Context) (Tally, error) {
	tally, err := p.load(ctx)
	if err != nil {
		return nil, err
	}
	return tally, nil
}

// Vote increments the normalized label and returns the updated tally.
func (p *Poll) Vote(ctx context.Context, label string) (Tally, error) {
	key, err := NormalizeLabel(label)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	tally, err := p.load(ctx)
	if err != nil {
		return nil, err
	}
	tally[key]++
	if err := p.store.Save(ctx, tally); err != nil {
		p.logger.Error("poll: failed to persist tally", "label", key, "error", err)
	}
	return tally, nil
}

func (p *Poll) load(ctx context.Context) (Tally, error) {
	stored, err := p.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("poll: load tally: %w", err)
	}
	tally := make(Tally, len(stored)+len(p.seed))
	for label, count := range p.seed {
		tally[label] = count
	}
	for label, count := range stored {
		if count > 0 {
			tally[label] = count
		}
	}
	return tally, nil
}

// NormalizeLabel lower-cases and trims a label and strips a leading
// "say no 2". A label that is only the prefix is kept as is.
func NormalizeLabel(label string) (string, error) {
	if label == "" {
		return "", ErrMissingLabel
	}
	clean := strings.ToLower(strings.TrimSpace(label))
	if clean == "" {
		return "", ErrInvalidLabel
	}
	key := strings.TrimSpace(taglinePrefix.ReplaceAllString(clean, ""))
	if key == "" {
		key = clean
	}
	return key, nil
}

// ParseSeed reads "label=count" pairs separated by commas. Malformed pairs
// are skipped.
func ParseSeed(raw string) Tally {
	seed := Tally{}
	for _, part := range strings.Split(raw, ",") {
		label, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		key, err := NormalizeLabel(label)
		if err != nil {
			continue
		}
		count, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || count < 0 {
			continue
		}
		seed[key] = count
	}
	return seed
}
