package booking

import "errors"

var (
	// ErrMissingFields is returned when a commit omits email or time.
	ErrMissingFields = errors.New("booking: email and time are required")

	// ErrVersionConflict is returned by Store.Save when another writer replaced
	// the collection after it was loaded.
	ErrVersionConflict = errors.New("booking: ledger version conflict")
)

// Reason classifies a rejected commit.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonMissingFields   Reason = "missing_fields"
	ReasonSlotUnavailable Reason = "slot_unavailable"
	ReasonServerError     Reason = "server_error"
)

// EffectResult reports the outcome of a best-effort side effect (persisting the
// ledger, dispatching notifications). A failed effect never fails the commit.
type EffectResult struct {
	Name string
	Err  error
}

// OK reports whether the effect succeeded.
func (r EffectResult) OK() bool { return r.Err == nil }
