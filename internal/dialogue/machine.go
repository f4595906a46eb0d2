// Package dialogue runs the slot-filling intake conversation.
package dialogue

import (
	"context"
	"strings"

	"github.com/no2forms/intake-assistant/internal/booking"
	"github.com/no2forms/intake-assistant/internal/observability/metrics"
	"github.com/no2forms/intake-assistant/pkg/logging"
)

const (
	defaultHistoryLimit = 40
	defaultNotes        = "Collected via AI agent flow on no2forms.com"
)

// Prompt is a UI affordance the client should open.
type Prompt string

const (
	PromptNone     Prompt = ""
	PromptPickTime Prompt = "pick_time"
)

// Committer records a completed booking.
type Committer interface {
	Commit(ctx context.Context, req booking.CommitRequest) booking.Outcome
}

// TurnResult is what the client renders after a turn.
type TurnResult struct {
	Mode    Mode     `json:"mode"`
	Reply   string   `json:"reply"`
	Replies []string `json:"replies"`
	Missing Field    `json:"missing"`
	Slots   Slots    `json:"slots"`
	Prompt  Prompt   `json:"prompt,omitempty"`
	// Outcome is set when the turn attempted a commit.
	Outcome *booking.Outcome `json:"-"`
}

// Committed reports whether this turn recorded a booking.
func (r TurnResult) Committed() bool {
	return r.Outcome != nil && r.Outcome.OK
}

// Machine drives a conversation between IDLE (chat) and BOOKING.
type Machine struct {
	oracle       Oracle
	fallback     Oracle
	committer    Committer
	metrics      *metrics.IntakeMetrics
	logger       *logging.Logger
	notes        string
	historyLimit int
}

// MachineConfig wires a Machine. Oracle may be nil, in which case the
// lexical oracle is used for every turn.
type MachineConfig struct {
	Oracle       Oracle
	Committer    Committer
	Metrics      *metrics.IntakeMetrics
	Logger       *logging.Logger
	Notes        string
	HistoryLimit int
}

func NewMachine(cfg MachineConfig) *Machine {
	if cfg.Committer == nil {
		panic("dialogue: committer cannot be nil")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Notes == "" {
		cfg.Notes = defaultNotes
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}
	return &Machine{
		oracle:       cfg.Oracle,
		fallback:     LexicalOracle{},
		committer:    cfg.Committer,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
		notes:        cfg.Notes,
		historyLimit: cfg.HistoryLimit,
	}
}

// HandleTurn processes one user message and mutates st in place.
func (m *Machine) HandleTurn(ctx context.Context, st *State, text string) (TurnResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return TurnResult{}, ErrEmptyMessage
	}
	if st.Mode == "" {
		st.Mode = ModeChat
	}

	if IsCancel(text) && st.Mode == ModeBooking {
		m.Reset(st)
		st.append(RoleUser, text, m.historyLimit)
		res := m.say(st, ReplyCancelled)
		m.metrics.ObserveTurn(string(st.Mode), "cancelled")
		return m.finish(st, res), nil
	}

	st.append(RoleUser, text, m.historyLimit)
	if HasBookingIntent(text) {
		st.BookingIntent = true
	}

	ext := m.extract(ctx, st)
	st.Slots = MergeSlots(st.Slots, ext.Slots)
	res := m.say(st, ext.Reply)

	if ext.Mode != ModeBooking {
		st.Mode = ModeChat
		st.NameAsks = 0
		m.metrics.ObserveTurn(string(st.Mode), "reply")
		return m.finish(st, res), nil
	}

	st.Mode = ModeBooking
	st.BookingIntent = true
	return m.advance(ctx, st, res, ext.Missing), nil
}

// PickSlot applies a time chosen from a structured picker and commits when
// the email is already known.
func (m *Machine) PickSlot(ctx context.Context, st *State, label, isoKey string) (TurnResult, error) {
	label, isoKey = strings.TrimSpace(label), strings.TrimSpace(isoKey)
	if label == "" || isoKey == "" {
		return TurnResult{}, ErrInvalidSlot
	}
	st.Mode = ModeBooking
	st.BookingIntent = true
	st.Slots.Time = label
	st.Slots.ISOKey = isoKey

	if !ValidEmail(st.Slots.Email) {
		st.Slots.Email = ""
		res := m.say(st, replySlotChosen(label))
		res.Missing = FieldEmail
		m.metrics.ObserveTurn(string(st.Mode), "prompt")
		return m.finish(st, res), nil
	}
	return m.commit(ctx, st, TurnResult{}), nil
}

// Reset returns the conversation to IDLE and clears slots. History is kept.
func (m *Machine) Reset(st *State) {
	st.reset()
}

func (m *Machine) advance(ctx context.Context, st *State, res TurnResult, missing Field) TurnResult {
	complete := ValidEmail(st.Slots.Email) && st.Slots.Time != ""

	switch missing {
	case FieldEmail:
		st.NameAsks = 0
		res.Missing = FieldEmail
	case FieldTime:
		st.NameAsks = 0
		res.Missing = FieldTime
		res.Prompt = PromptPickTime
	case FieldName:
		switch {
		case !complete:
			res = m.reprompt(st, res)
		case st.NameAsks >= 1:
			return m.commit(ctx, st, res)
		default:
			st.NameAsks++
			res.Missing = FieldName
		}
	default:
		if complete {
			return m.commit(ctx, st, res)
		}
		// The oracle claimed completeness without the fields to back it.
		res = m.reprompt(st, res)
	}
	m.metrics.ObserveTurn(string(st.Mode), "prompt")
	return m.finish(st, res)
}

// reprompt asks for the first required field the slots still lack.
func (m *Machine) reprompt(st *State, res TurnResult) TurnResult {
	if !ValidEmail(st.Slots.Email) {
		res = m.say(st, ReplyAskEmail, res.Replies...)
		res.Missing = FieldEmail
		return res
	}
	res = m.say(st, ReplyAskTime, res.Replies...)
	res.Missing = FieldTime
	res.Prompt = PromptPickTime
	return res
}

func (m *Machine) commit(ctx context.Context, st *State, res TurnResult) TurnResult {
	out := m.committer.Commit(ctx, booking.CommitRequest{
		Email:  st.Slots.Email,
		Time:   st.Slots.Time,
		Name:   st.Slots.Name,
		Notes:  m.notes,
		ISOKey: st.Slots.ISOKey,
	})

	switch {
	case out.OK:
		m.Reset(st)
		res = m.say(st, ReplyCommitted, res.Replies...)
		m.metrics.ObserveTurn(string(st.Mode), "committed")
	case out.Reason == booking.ReasonSlotUnavailable:
		st.Slots.Time = ""
		st.Slots.ISOKey = ""
		st.Mode = ModeBooking
		st.NameAsks = 0
		res = m.say(st, ReplySlotUnavailable, res.Replies...)
		res.Missing = FieldTime
		res.Prompt = PromptPickTime
		m.metrics.ObserveTurn(string(st.Mode), "slot_unavailable")
	default:
		m.logger.Warn("booking commit not recorded; resetting conversation", "reason", string(out.Reason))
		m.Reset(st)
		res = m.say(st, ReplyCommitFailed, res.Replies...)
		m.metrics.ObserveTurn(string(st.Mode), "commit_failed")
	}
	res.Outcome = &out
	return m.finish(st, res)
}

// Classify runs the oracle over a client-held history without touching any
// server-side state. known carries slots the client has already collected.
func (m *Machine) Classify(ctx context.Context, history []Turn, known Slots) Extraction {
	st := NewState()
	st.Slots = known
	for _, turn := range history {
		role := RoleUser
		if turn.Role == RoleAssistant {
			role = RoleAssistant
		}
		st.append(role, turn.Content, m.historyLimit)
	}
	ext := m.extract(ctx, st)
	m.metrics.ObserveTurn(string(ext.Mode), "classified")
	return ext
}

func (m *Machine) extract(ctx context.Context, st *State) Extraction {
	if m.oracle != nil {
		ext, err := m.oracle.Extract(ctx, st)
		if err == nil {
			if ext.Kind == KindUnrecognized {
				m.logger.Warn("oracle output unrecognized; using safe default")
				m.metrics.ObserveOracle("malformed")
			} else {
				m.metrics.ObserveOracle("ok")
			}
			return ext
		}
		m.logger.Warn("oracle unavailable; using lexical fallback", "error", err)
		m.metrics.ObserveOracle("error")
	}
	m.metrics.ObserveOracle("offline")
	ext, err := m.fallback.Extract(ctx, st)
	if err != nil {
		return SafeDefault()
	}
	return ext
}

// say appends an assistant message to the history and to the result.
func (m *Machine) say(st *State, reply string, earlier ...string) TurnResult {
	st.append(RoleAssistant, reply, m.historyLimit)
	replies := append(append([]string(nil), earlier...), reply)
	return TurnResult{Reply: reply, Replies: replies}
}

func (m *Machine) finish(st *State, res TurnResult) TurnResult {
	res.Mode = st.Mode
	res.Slots = st.Slots
	return res
}
