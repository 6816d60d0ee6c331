package openai

import "github.com/voxroom/voxroom/internal/errors"

const (
	ErrRequestFailed   errors.Code = "request failed"
	ErrInvalidResponse errors.Code = "invalid response"
	ErrEmptyCompletion errors.Code = "empty completion"
)
