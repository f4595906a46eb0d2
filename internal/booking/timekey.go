package booking

import (
	"strings"
	"time"
	_ "time/tzdata"
	"unicode"
)

// DefaultSlotTimezone is the zone booking times are assumed to be entered in.
const DefaultSlotTimezone = "Europe/London"

const keyLayout = "2006-01-02t15:04"

// freeTextLayouts are tried in order when no structured isoKey is available.
var freeTextLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02/01/2006 15:04",
	"2 Jan 2006 15:04",
	"Jan 2, 2006 3:04 PM",
	"January 2, 2006 3:04 PM",
	time.RFC1123Z,
	time.RFC1123,
}

var lexicalStripper = strings.NewReplacer(
	"-", "",
	"–", "",
	"—", "",
	":", "",
	".", "",
	",", "",
)

// Normalizer turns a structured or free-text booking time into the canonical
// key used for conflict detection. Key is total and deterministic.
type Normalizer struct {
	loc *time.Location
}

// NewNormalizer builds a normalizer that interprets zone-less times in loc.
func NewNormalizer(loc *time.Location) *Normalizer {
	if loc == nil {
		loc = SlotLocation(DefaultSlotTimezone)
	}
	return &Normalizer{loc: loc}
}

// SlotLocation resolves a timezone name, falling back to UTC.
func SlotLocation(name string) *time.Location {
	if strings.TrimSpace(name) == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Key computes the canonical key. An explicit isoKey wins; then a parseable
// date-time (minute resolution, in the normalizer zone); then a lexical
// normalization of the raw text.
func (n *Normalizer) Key(isoKey, raw string) string {
	if iso := strings.TrimSpace(isoKey); iso != "" {
		return strings.ToLower(iso)
	}
	if key, ok := n.ParsedKey(raw); ok {
		return key
	}
	return lexicalKey(raw)
}

// ParsedKey returns the date-time key of raw when it parses as a date-time.
// Free text that only has a lexical key reports false.
func (n *Normalizer) ParsedKey(raw string) (string, bool) {
	t, ok := n.parse(raw)
	if !ok {
		return "", false
	}
	return strings.ToLower(t.In(n.loc).Truncate(time.Minute).Format(keyLayout)), true
}

// RecordKey computes the key a stored record is compared under.
func (n *Normalizer) RecordKey(rec Record) string {
	return n.Key(rec.ISOKey, rec.Time)
}

func (n *Normalizer) parse(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range freeTextLayouts {
		if t, err := time.ParseInLocation(layout, raw, n.loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func lexicalKey(raw string) string {
	lowered := strings.ToLower(raw)
	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lexicalStripper.Replace(lowered) {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var defaultNormalizer = NewNormalizer(nil)

// CanonicalKey normalizes with the default (Europe/London) normalizer.
func CanonicalKey(isoKey, raw string) string {
	return defaultNormalizer.Key(isoKey, raw)
}

// ParsedKey is Normalizer.ParsedKey with the default normalizer.
func ParsedKey(raw string) (string, bool) {
	return defaultNormalizer.ParsedKey(raw)
}
