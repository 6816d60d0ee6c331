package turn

import "github.com/voxroom/voxroom/internal/errors"

const (
	ErrSessionExists   errors.Code = "ai session already exists"
	ErrSessionNotFound errors.Code = "ai session not found"
	ErrNoSession       errors.Code = "no ai session in room"
	ErrForbidden       errors.Code = "not allowed to talk to ai"
	ErrAIMicOff        errors.Code = "ai microphone is off"
)
