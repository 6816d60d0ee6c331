package validation

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Room ids are short human-presentable codes: 6 decimal digits.
var roomIDRegex = regexp.MustCompile(`^[0-9]{6}$`)

func init() {
	MustRegisterGin("roomid", ValidateRoomID)
	MustRegisterGin("participantid", ValidateParticipantID)
	MustRegisterGinAlias("rolename", "oneof=admin participant")
	MustRegisterGinAlias("aipermission", "oneof=canHearAI canTalkToAI")
}

// ValidateRoomID validates the 6-digit room code format
func ValidateRoomID(fl validator.FieldLevel) bool {
	return roomIDRegex.MatchString(fl.Field().String())
}

// ValidateParticipantID accepts either a plain uuid4 (human connections) or an
// assistant id of the form "ai-<uuid4>".
func ValidateParticipantID(fl validator.FieldLevel) bool {
	id := strings.TrimPrefix(fl.Field().String(), "ai-")
	_, err := uuid.Parse(id)
	return err == nil
}
