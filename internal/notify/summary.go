package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/no2forms/intake-assistant/internal/booking"
)

const defaultSite = "no2forms"

// Summary is the human-readable text sent to every channel.
type Summary struct {
	Subject string
	Lines   []string
}

// Text joins the summary lines.
func (s Summary) Text() string {
	return strings.Join(s.Lines, "\n")
}

// BuildSummary renders a booking the way operators read it: header, email,
// time, then name and notes when present, then the source site.
func BuildSummary(rec booking.Record, site string) Summary {
	if strings.TrimSpace(site) == "" {
		site = defaultSite
	}
	lines := []string{
		fmt.Sprintf("🗓️ New %s booking request", site),
		fmt.Sprintf("• Email: %s", rec.Email),
		fmt.Sprintf("• Time: %s", rec.Time),
	}
	if rec.Name != "" {
		lines = append(lines, fmt.Sprintf("• Name: %s", rec.Name))
	}
	if rec.Notes != "" {
		lines = append(lines, fmt.Sprintf("• Notes: %s", rec.Notes))
	}
	lines = append(lines, fmt.Sprintf("• Source: %s.com", site))
	return Summary{
		Subject: fmt.Sprintf("New %s booking", site),
		Lines:   lines,
	}
}

// BookingEvent is the machine-readable payload for event bus and queue
// channels.
type BookingEvent struct {
	Type         string    `json:"type"`
	BookingID    string    `json:"booking_id"`
	Email        string    `json:"email"`
	Time         string    `json:"time"`
	Name         string    `json:"name,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	ISOKey       string    `json:"iso_key,omitempty"`
	CanonicalKey string    `json:"canonical_key"`
	CreatedAt    time.Time `json:"created_at"`
	Summary      string    `json:"summary"`
}

// Notification is what a channel delivers.
type Notification struct {
	Record  booking.Record
	Summary Summary
}

// Event converts the notification to its event payload.
func (n Notification) Event() BookingEvent {
	return BookingEvent{
		Type:         "booking.created",
		BookingID:    n.Record.ID,
		Email:        n.Record.Email,
		Time:         n.Record.Time,
		Name:         n.Record.Name,
		Notes:        n.Record.Notes,
		ISOKey:       n.Record.ISOKey,
		CanonicalKey: n.Record.CreatedKey,
		CreatedAt:    n.Record.CreatedAt,
		Summary:      n.Summary.Text(),
	}
}
