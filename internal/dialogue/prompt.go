package dialogue

import (
	"fmt"
	"strings"
)

const systemPromptTemplate = `You are the %[1]s site assistant. Be concise, friendly, and helpful. Explain how %[1]s replaces contact forms with AI that handles inquiries, bookings, and info requests. If asked about pricing or onboarding, say it's early access and to leave contact info.

You also book short demo calls. Respond with ONE JSON object and nothing else:
{"mode":"chat"|"booking","reply":string,"missing":null|"email"|"time"|"name","slots":{"email":string,"time":string,"name":string}}

Rules:
- mode is "booking" once the visitor wants a demo, call, meeting or appointment; otherwise "chat".
- slots holds only what the visitor actually said. Use "" for anything unknown. Never invent an email.
- missing is the next field to ask for, in the order email, time, name. Name is optional: ask once.
- missing is null only when both email and time are known.
- time is the visitor's own wording of the day and time (UK time), e.g. "Thu 12 Jun 3pm".
- A time marked "picked" came from the calendar: copy it exactly. If the visitor wants a different time, leave slots.time "" and set missing to "time".
- reply is what the visitor sees: one or two short sentences, no markdown.`

// SystemPrompt builds the oracle instruction for a site, including anything
// already collected so the oracle does not ask twice.
func SystemPrompt(site string, known Slots) string {
	if strings.TrimSpace(site) == "" {
		site = "no2forms"
	}
	prompt := fmt.Sprintf(systemPromptTemplate, site)

	var facts []string
	if known.Email != "" {
		facts = append(facts, fmt.Sprintf("email=%q", known.Email))
	}
	switch {
	case known.Time != "" && known.ISOKey != "":
		facts = append(facts, fmt.Sprintf("time=%q (picked)", known.Time))
	case known.Time != "":
		facts = append(facts, fmt.Sprintf("time=%q", known.Time))
	}
	if known.Name != "" {
		facts = append(facts, fmt.Sprintf("name=%q", known.Name))
	}
	if len(facts) == 0 {
		return prompt
	}
	return prompt + "\n\nAlready collected: " + strings.Join(facts, ", ") + "."
}
