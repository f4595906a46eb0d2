package dialogue

import (
	"encoding/json"
	"strings"
)

// ExtractionKind tags how an oracle response was understood.
type ExtractionKind int

const (
	// KindUnrecognized means the response did not have the expected shape and
	// the safe default was substituted.
	KindUnrecognized ExtractionKind = iota
	// KindStructured is a well-formed {mode, reply, missing, slots} object.
	KindStructured
	// KindLegacy is a bare {reply} object, treated as plain chat.
	KindLegacy
)

func (k ExtractionKind) String() string {
	switch k {
	case KindStructured:
		return "structured"
	case KindLegacy:
		return "legacy"
	default:
		return "unrecognized"
	}
}

// Extraction is the oracle's classification of a turn.
type Extraction struct {
	Kind    ExtractionKind `json:"-"`
	Mode    Mode           `json:"mode"`
	Reply   string         `json:"reply"`
	Missing Field          `json:"missing"`
	Slots   Slots          `json:"slots"`
}

// SafeDefault is used whenever the oracle output cannot be trusted.
func SafeDefault() Extraction {
	return Extraction{
		Kind:    KindUnrecognized,
		Mode:    ModeChat,
		Reply:   ReplyGeneric,
		Missing: FieldNone,
	}
}

type rawExtraction struct {
	Mode    *string                    `json:"mode"`
	Reply   *string                    `json:"reply"`
	Missing json.RawMessage            `json:"missing"`
	Slots   map[string]json.RawMessage `json:"slots"`
}

// ParseExtraction decodes an oracle response. Surrounding prose or code
// fences are tolerated; anything without a usable mode and reply yields
// SafeDefault.
func ParseExtraction(text string) Extraction {
	body := extractJSONObject(stripCodeFence(text))
	if body == "" {
		return SafeDefault()
	}

	var raw rawExtraction
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return SafeDefault()
	}
	if raw.Reply == nil || strings.TrimSpace(*raw.Reply) == "" {
		return SafeDefault()
	}
	reply := strings.TrimSpace(*raw.Reply)

	if raw.Mode == nil {
		if raw.Missing == nil && raw.Slots == nil {
			return Extraction{Kind: KindLegacy, Mode: ModeChat, Reply: reply}
		}
		return SafeDefault()
	}
	mode, ok := ParseMode(*raw.Mode)
	if !ok {
		return SafeDefault()
	}

	var missing Field
	if len(raw.Missing) > 0 {
		_ = missing.UnmarshalJSON(raw.Missing)
	}

	return Extraction{
		Kind:    KindStructured,
		Mode:    mode,
		Reply:   reply,
		Missing: missing,
		Slots: Slots{
			Email:  slotString(raw.Slots, "email"),
			Time:   slotString(raw.Slots, "time"),
			Name:   slotString(raw.Slots, "name"),
			ISOKey: slotString(raw.Slots, "isoKey"),
		},
	}
}

// slotString reads a string slot, ignoring nulls and non-string values.
func slotString(slots map[string]json.RawMessage, key string) string {
	v, ok := slots[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return ""
}
