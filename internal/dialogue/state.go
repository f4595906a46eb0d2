package dialogue

import (
	"encoding/json"
	"errors"
	"strings"
)

var (
	// ErrEmptyMessage is returned when a turn carries no text.
	ErrEmptyMessage = errors.New("dialogue: message is empty")
	// ErrInvalidSlot is returned when a slot pick lacks a label or key.
	ErrInvalidSlot = errors.New("dialogue: slot pick requires label and isoKey")
	// ErrSessionNotFound is returned by session stores for unknown or expired IDs.
	ErrSessionNotFound = errors.New("dialogue: session not found")
)

// Mode is the conversation mode.
type Mode string

const (
	ModeChat    Mode = "chat"
	ModeBooking Mode = "booking"
)

// ParseMode normalizes a mode string. ok is false for anything other than
// chat or booking.
func ParseMode(raw string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeChat:
		return ModeChat, true
	case ModeBooking:
		return ModeBooking, true
	default:
		return "", false
	}
}

// Field names a slot the oracle still needs. FieldNone encodes as JSON null.
type Field string

const (
	FieldNone  Field = ""
	FieldEmail Field = "email"
	FieldTime  Field = "time"
	FieldName  Field = "name"
)

// ParseField maps unknown values to FieldNone.
func ParseField(raw string) Field {
	switch f := Field(strings.ToLower(strings.TrimSpace(raw))); f {
	case FieldEmail, FieldTime, FieldName:
		return f
	default:
		return FieldNone
	}
}

func (f Field) MarshalJSON() ([]byte, error) {
	if f == FieldNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(f))
}

func (f *Field) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil || s == nil {
		*f = FieldNone
		return nil
	}
	*f = ParseField(*s)
	return nil
}

// Slots are the booking fields collected so far.
type Slots struct {
	Email  string `json:"email"`
	Time   string `json:"time"`
	Name   string `json:"name"`
	ISOKey string `json:"isoKey,omitempty"`
}

// Empty reports whether no slot is filled.
func (s Slots) Empty() bool {
	return s == Slots{}
}

// Role is the author of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in the running history.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// State is a single conversation. It is not safe for concurrent use; callers
// serialize turns per session.
type State struct {
	Mode    Mode   `json:"mode"`
	Slots   Slots  `json:"slots"`
	History []Turn `json:"history"`
	// BookingIntent is set once a booking request has been detected.
	BookingIntent bool `json:"bookingIntent,omitempty"`
	// NameAsks counts consecutive turns the oracle asked for the optional name.
	NameAsks int `json:"nameAsks,omitempty"`
}

// NewState returns an idle conversation.
func NewState() *State {
	return &State{Mode: ModeChat}
}

// LastUserText returns the most recent user message, or "".
func (s *State) LastUserText() string {
	for i := len(s.History) - 1; i >= 0; i-- {
		if s.History[i].Role == RoleUser {
			return s.History[i].Content
		}
	}
	return ""
}

func (s *State) append(role Role, content string, limit int) {
	if strings.TrimSpace(content) == "" {
		return
	}
	s.History = append(s.History, Turn{Role: role, Content: content})
	if limit > 0 && len(s.History) > limit {
		s.History = append([]Turn(nil), s.History[len(s.History)-limit:]...)
	}
}

func (s *State) reset() {
	s.Mode = ModeChat
	s.Slots = Slots{}
	s.BookingIntent = false
	s.NameAsks = 0
}
