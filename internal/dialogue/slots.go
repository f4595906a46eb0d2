package dialogue

import (
	"regexp"
	"strings"

	"github.com/no2forms/intake-assistant/internal/booking"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s has an address shape: local@domain.tld with no
// whitespace.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// MergeSlots overlays the non-empty extracted fields on the accumulated ones,
// then clears an email that is not address-shaped.
//
// A picked slot (accumulated isoKey) is only replaced by a time that carries
// its own isoKey or that parses to a different date-time. Reworded or
// unparseable times leave the picked label and isoKey in place.
func MergeSlots(acc, extracted Slots) Slots {
	out := acc
	if v := strings.TrimSpace(extracted.Email); v != "" {
		out.Email = v
	}
	if v := strings.TrimSpace(extracted.Time); v != "" && v != acc.Time {
		switch {
		case acc.ISOKey == "" || strings.TrimSpace(extracted.ISOKey) != "":
			out.Time = v
		case replacesPick(v, acc.ISOKey):
			out.Time = v
			out.ISOKey = ""
		}
	}
	if v := strings.TrimSpace(extracted.Name); v != "" {
		out.Name = v
	}
	if v := strings.TrimSpace(extracted.ISOKey); v != "" {
		out.ISOKey = v
	}
	if out.Email != "" && !ValidEmail(out.Email) {
		out.Email = ""
	}
	return out
}

func replacesPick(text, isoKey string) bool {
	key, ok := booking.ParsedKey(text)
	return ok && key != strings.ToLower(strings.TrimSpace(isoKey))
}
