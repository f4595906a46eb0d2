package dialogue

import "regexp"

var (
	bookingIntentPattern = regexp.MustCompile(`(?i)\b(book|booking|schedule|meeting|appointment|demo|call)\b`)
	cancelPattern        = regexp.MustCompile(`(?i)^\s*cancel\s*$`)
	emailSearchPattern   = regexp.MustCompile(`[^\s@<>(),;:"']+@[^\s@<>(),;:"']+\.[^\s@<>(),;:"']+`)
)

// HasBookingIntent reports whether text reads like a booking request.
func HasBookingIntent(text string) bool {
	return bookingIntentPattern.MatchString(text)
}

// IsCancel reports whether the whole message is a cancellation.
func IsCancel(text string) bool {
	return cancelPattern.MatchString(text)
}

// FindEmail returns the first address-shaped token in text.
func FindEmail(text string) string {
	match := emailSearchPattern.FindString(text)
	for len(match) > 0 && (match[len(match)-1] == '.' || match[len(match)-1] == '!' || match[len(match)-1] == '?') {
		match = match[:len(match)-1]
	}
	if !ValidEmail(match) {
		return ""
	}
	return match
}
