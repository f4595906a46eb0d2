package dialogue

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExtraction_Structured(t *testing.T) {
	ext := ParseExtraction("```json\n{\"mode\":\"Booking\",\"reply\":\"Great, what's your email?\",\"missing\":\"email\",\"slots\":{\"email\":\"\",\"time\":\"Thu 3pm\",\"name\":null}}\n```")
	assert.Equal(t, KindStructured, ext.Kind)
	assert.Equal(t, ModeBooking, ext.Mode)
	assert.Equal(t, FieldEmail, ext.Missing)
	assert.Equal(t, Slots{Time: "Thu 3pm"}, ext.Slots)
}

func TestParseExtraction_ProseAroundObject(t *testing.T) {
	ext := ParseExtraction(`Sure! {"mode":"chat","reply":"Hello","missing":null,"slots":{}} Hope that helps.`)
	assert.Equal(t, KindStructured, ext.Kind)
	assert.Equal(t, "Hello", ext.Reply)
	assert.Equal(t, FieldNone, ext.Missing)
}

func TestParseExtraction_UnknownMissingIsNull(t *testing.T) {
	ext := ParseExtraction(`{"mode":"booking","reply":"ok","missing":"phone","slots":{"email":42}}`)
	assert.Equal(t, KindStructured, ext.Kind)
	assert.Equal(t, FieldNone, ext.Missing)
	assert.Equal(t, "", ext.Slots.Email)
}

func TestParseExtraction_LegacyReply(t *testing.T) {
	ext := ParseExtraction(`{"reply":"no2forms replaces contact forms."}`)
	assert.Equal(t, KindLegacy, ext.Kind)
	assert.Equal(t, ModeChat, ext.Mode)
	assert.Equal(t, "no2forms replaces contact forms.", ext.Reply)
}

func TestParseExtraction_SafeDefault(t *testing.T) {
	for _, raw := range []string{
		"",
		"I can't help with that",
		"{not json}",
		`{"mode":"booking"}`,
		`{"mode":"booking","reply":"  "}`,
		`{"reply":"hi","missing":"email","slots":{"email":"a@b.co"}}`,
		`{"mode":"sales","reply":"hi"}`,
		`["mode","chat"]`,
	} {
		ext := ParseExtraction(raw)
		assert.Equal(t, KindUnrecognized, ext.Kind, raw)
		assert.Equal(t, ModeChat, ext.Mode, raw)
		assert.NotEmpty(t, ext.Reply, raw)
		assert.Equal(t, FieldNone, ext.Missing, raw)
		assert.True(t, ext.Slots.Empty(), raw)
	}
}

func TestFieldJSON(t *testing.T) {
	data, err := json.Marshal(TurnResult{Mode: ModeChat, Missing: FieldNone})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"missing":null`)

	data, err = json.Marshal(TurnResult{Mode: ModeBooking, Missing: FieldTime})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"missing":"time"`)
}
