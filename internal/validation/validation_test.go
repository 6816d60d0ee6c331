package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/suite"

	"github.com/google/uuid"
)

type ValidationTestSuite struct {
	suite.Suite
	validator *validator.Validate
}

func (s *ValidationTestSuite) SetupTest() {
	s.validator = validator.New()
}

func TestValidationTestSuite(t *testing.T) {
	suite.Run(t, new(ValidationTestSuite))
}

func (s *ValidationTestSuite) TestValidateRoomID() {
	err := Register(s.validator, "roomid", ValidateRoomID)
	s.Require().NoError(err)

	tests := []struct {
		name    string
		roomID  string
		wantErr bool
	}{
		{name: "valid six digits", roomID: "123456", wantErr: false},
		{name: "valid leading zeros", roomID: "000042", wantErr: false},
		{name: "invalid - too short", roomID: "12345", wantErr: true},
		{name: "invalid - too long", roomID: "1234567", wantErr: true},
		{name: "invalid - letters", roomID: "12a456", wantErr: true},
		{name: "invalid - empty", roomID: "", wantErr: true},
		{name: "invalid - spaces", roomID: "123 56", wantErr: true},
	}

	type req struct {
		RoomID string `validate:"roomid"`
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			err := s.validator.Struct(&req{RoomID: tt.roomID})
			if tt.wantErr {
				s.Error(err)
			} else {
				s.NoError(err)
			}
		})
	}
}

func (s *ValidationTestSuite) TestValidateParticipantID() {
	err := Register(s.validator, "participantid", ValidateParticipantID)
	s.Require().NoError(err)

	type req struct {
		ID string `validate:"participantid"`
	}

	human := uuid.New().String()
	assistant := "ai-" + uuid.New().String()

	s.NoError(s.validator.Struct(&req{ID: human}))
	s.NoError(s.validator.Struct(&req{ID: assistant}))
	s.Error(s.validator.Struct(&req{ID: "not-a-uuid"}))
	s.Error(s.validator.Struct(&req{ID: "ai-not-a-uuid"}))
	s.Error(s.validator.Struct(&req{ID: ""}))
}
