package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	UniqueID string `json:"uniqueId" validate:"required,is-unique-handle"`
	Type     string `json:"type" validate:"omitempty,is-message-type"`
	AgeGroup string `json:"ageGroup" validate:"omitempty,is-age-group"`
	Theme    string `json:"chatTheme" validate:"omitempty,is-chat-theme"`
	Reaction string `json:"reaction" validate:"omitempty,is-reaction"`
}

func TestValidateAcceptsGoodInput(t *testing.T) {
	v := New()
	err := v.Validate(sample{UniqueID: "alice_01", Type: "voice", AgeGroup: "13-17", Theme: "ocean", Reaction: "👍"})
	assert.NoError(t, err)
}

func TestValidateReportsJSONFieldNames(t *testing.T) {
	v := New()
	err := v.Validate(sample{UniqueID: "a!", Type: "video", AgeGroup: "adult", Theme: "neon", Reaction: "   "})
	require.Error(t, err)

	verr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Contains(t, verr.Errors, "uniqueId")
	assert.Contains(t, verr.Errors, "type")
	assert.Contains(t, verr.Errors, "ageGroup")
	assert.Contains(t, verr.Errors, "chatTheme")
	assert.Contains(t, verr.Errors, "reaction")
	assert.Equal(t, "Must be one of: text, sticker, gif, voice", verr.Errors["type"])
}

func TestValidateRequired(t *testing.T) {
	v := New()
	err := v.Validate(sample{})
	require.Error(t, err)
	verr := err.(*ValidationError)
	assert.Equal(t, "This field is required", verr.Errors["uniqueId"])
	assert.Len(t, verr.Errors, 1)
}
