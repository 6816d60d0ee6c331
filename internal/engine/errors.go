package engine

import "github.com/voxroom/voxroom/internal/errors"

const (
	ErrNotReady            errors.Code = "engine not ready"
	ErrInvalidResponse     errors.Code = "invalid response"
	ErrNoneSuccessResponse errors.Code = "none success response"
)
