package dialogue

import "fmt"

// User-visible texts. Raw errors never reach these.
const (
	ReplyWelcome         = "Hi! I’m the no2forms assistant. Ask anything — or say “book a demo” and I’ll sort it (no forms). Type ‘cancel’ to exit booking."
	ReplyGeneric         = "I’m here to help explain no2forms and book a quick call. Ask me anything — or say “book a demo” and I’ll schedule it (no forms)."
	ReplyCancelled       = "Booking cancelled. How else can I help?"
	ReplyCommitted       = "✅ All set — I’ve sent the details. You’ll get a confirmation shortly. Anything else I can help with?"
	ReplySlotUnavailable = "That time isn’t available — please choose another slot."
	ReplyCommitFailed    = "I couldn’t log that automatically, but I’ve saved your details and we’ll follow up by email."
	ReplyAskEmail        = "Happy to set that up. What’s the best email to send the invite to?"
	ReplyAskTime         = "Thanks! What day and time suits you? (UK time)"
	ReplyConfirming      = "Perfect — locking that in now."
)

func replySlotChosen(label string) string {
	return fmt.Sprintf("Great! You've chosen %s. Please enter your email to confirm.", label)
}
