package dialogue

import (
	"context"
	"fmt"
	"strings"

	"github.com/no2forms/intake-assistant/internal/llm"
)

// Oracle classifies the latest turn and extracts slots from it.
type Oracle interface {
	Extract(ctx context.Context, st *State) (Extraction, error)
}

// LLMOracle asks a chat-completion model for a structured extraction.
type LLMOracle struct {
	client      llm.Client
	site        string
	temperature float32
	maxTokens   int32
}

// NewLLMOracle builds an oracle over client.
func NewLLMOracle(client llm.Client, site string, temperature float32) *LLMOracle {
	if client == nil {
		panic("dialogue: llm client cannot be nil")
	}
	return &LLMOracle{client: client, site: site, temperature: temperature, maxTokens: 400}
}

// Extract returns SafeDefault (KindUnrecognized) for unusable model output;
// an error only when the model could not be reached.
func (o *LLMOracle) Extract(ctx context.Context, st *State) (Extraction, error) {
	messages := make([]llm.Message, 0, len(st.History))
	for _, turn := range st.History {
		role := llm.RoleUser
		if turn.Role == RoleAssistant {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: turn.Content})
	}

	resp, err := o.client.Complete(ctx, llm.Request{
		System:      []string{SystemPrompt(o.site, st.Slots)},
		Messages:    messages,
		Temperature: o.temperature,
		MaxTokens:   o.maxTokens,
		JSON:        true,
	})
	if err != nil {
		return Extraction{}, fmt.Errorf("dialogue: oracle completion: %w", err)
	}
	return ParseExtraction(resp.Text), nil
}

// LexicalOracle works without a model: it spots booking intent by keyword,
// pulls an address-shaped email out of the text and, once an email is known,
// takes the next free-text answer as the time.
type LexicalOracle struct{}

func (LexicalOracle) Extract(_ context.Context, st *State) (Extraction, error) {
	text := strings.TrimSpace(st.LastUserText())
	booking := st.Mode == ModeBooking || st.BookingIntent || HasBookingIntent(text)
	if !booking {
		return Extraction{Kind: KindStructured, Mode: ModeChat, Reply: ReplyGeneric}, nil
	}

	var found Slots
	found.Email = FindEmail(text)
	if st.Slots.Email != "" && st.Slots.Time == "" {
		rest := strings.TrimSpace(strings.Replace(text, found.Email, "", 1))
		if rest != "" && !HasBookingIntent(rest) {
			found.Time = rest
		}
	}

	merged := MergeSlots(st.Slots, found)
	out := Extraction{Kind: KindStructured, Mode: ModeBooking, Slots: found}
	switch {
	case merged.Email == "":
		out.Missing = FieldEmail
		out.Reply = ReplyAskEmail
	case merged.Time == "":
		out.Missing = FieldTime
		out.Reply = ReplyAskTime
	default:
		out.Reply = ReplyConfirming
	}
	return out, nil
}
