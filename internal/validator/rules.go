package validator

import (
	"log"
	"regexp"
	"strings"
	"unicode/utf8"

	"talkio_backend/internal/models"

	"github.com/go-playground/validator/v10"
)

// ChatThemes lists the accepted values of UserPreference.ChatTheme.
var ChatThemes = []string{"default", "dark", "ocean", "forest", "sunset", "candy"}

var handlePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,32}$`)

const maxReactionRunes = 16

func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	mustRegister("is-message-type", validateMessageType)
	mustRegister("is-age-group", validateAgeGroup)
	mustRegister("is-chat-theme", validateChatTheme)
	mustRegister("is-unique-handle", validateUniqueHandle)
	mustRegister("is-reaction", validateReaction)
}

// Empty values pass every rule, 'required' covers presence.

func validateMessageType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.MessageType(value).Valid()
}

func validateAgeGroup(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.AgeGroup(value).Valid()
}

func validateChatTheme(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	for _, theme := range ChatThemes {
		if value == theme {
			return true
		}
	}
	return false
}

func validateUniqueHandle(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return handlePattern.MatchString(value)
}

func validateReaction(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return strings.TrimSpace(value) != "" && utf8.RuneCountInString(value) <= maxReactionRunes
}
