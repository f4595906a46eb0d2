package dialogue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeSlots(t *testing.T) {
	tests := []struct {
		name      string
		acc       Slots
		extracted Slots
		want      Slots
	}{
		{
			name:      "invalid email rejected",
			extracted: Slots{Email: "bad-email"},
			want:      Slots{},
		},
		{
			name:      "invalid email replaces a valid one and is then cleared",
			acc:       Slots{Email: "jane@example.com"},
			extracted: Slots{Email: "jane at example"},
			want:      Slots{},
		},
		{
			name:      "empty fields never overwrite",
			acc:       Slots{Email: "jane@example.com", Time: "Thu 3pm", Name: "Jane"},
			extracted: Slots{Email: " ", Time: ""},
			want:      Slots{Email: "jane@example.com", Time: "Thu 3pm", Name: "Jane"},
		},
		{
			name:      "last write wins per field",
			acc:       Slots{Email: "jane@example.com", Time: "Thu 3pm"},
			extracted: Slots{Time: "Fri 10am", Name: "Jane"},
			want:      Slots{Email: "jane@example.com", Time: "Fri 10am", Name: "Jane"},
		},
		{
			name:      "reworded time keeps picked slot",
			acc:       Slots{Time: "Thu 12 Jun, 15:00", ISOKey: "2025-06-12t15:00"},
			extracted: Slots{Email: "jane@example.com", Time: "Thursday 12 June at 3pm"},
			want:      Slots{Email: "jane@example.com", Time: "Thu 12 Jun, 15:00", ISOKey: "2025-06-12t15:00"},
		},
		{
			name:      "same parsed time keeps picked slot",
			acc:       Slots{Time: "Thu 12 Jun, 15:00", ISOKey: "2025-06-12T15:00"},
			extracted: Slots{Time: "2025-06-12 15:00"},
			want:      Slots{Time: "Thu 12 Jun, 15:00", ISOKey: "2025-06-12T15:00"},
		},
		{
			name:      "different parsed time drops picked slot",
			acc:       Slots{Time: "Thu 12 Jun, 15:00", ISOKey: "2025-06-12T15:00"},
			extracted: Slots{Time: "2025-06-13 10:00"},
			want:      Slots{Time: "2025-06-13 10:00"},
		},
		{
			name:      "repeated time keeps isoKey",
			acc:       Slots{Time: "Thu 12 Jun 15:00", ISOKey: "2025-06-12T15:00"},
			extracted: Slots{Time: "Thu 12 Jun 15:00"},
			want:      Slots{Time: "Thu 12 Jun 15:00", ISOKey: "2025-06-12T15:00"},
		},
		{
			name:      "new time with its own isoKey",
			acc:       Slots{Time: "Thu", ISOKey: "2025-06-12T15:00"},
			extracted: Slots{Time: "Fri 10:00", ISOKey: "2025-06-13T10:00"},
			want:      Slots{Time: "Fri 10:00", ISOKey: "2025-06-13T10:00"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MergeSlots(tt.acc, tt.extracted))
		})
	}
}

func TestValidEmail(t *testing.T) {
	for _, ok := range []string{"jane@example.com", "a.b+c@sub.example.co.uk"} {
		assert.True(t, ValidEmail(ok), ok)
	}
	for _, bad := range []string{"", "bad-email", "jane@example", "jane @example.com", "@example.com", "jane@@example.com"} {
		assert.False(t, ValidEmail(bad), bad)
	}
}

func TestIntentPatterns(t *testing.T) {
	for _, text := range []string{"book a demo", "Can we schedule a call?", "I'd like a MEETING", "appointment please", "Booking"} {
		assert.True(t, HasBookingIntent(text), text)
	}
	for _, text := range []string{"what is no2forms?", "facebook integration", "recall"} {
		assert.False(t, HasBookingIntent(text), text)
	}

	assert.True(t, IsCancel("  Cancel "))
	assert.False(t, IsCancel("cancel my booking"))

	assert.Equal(t, "jane@example.com", FindEmail("sure, it's jane@example.com."))
	assert.Equal(t, "", FindEmail("no address here"))
}
