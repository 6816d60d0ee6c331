package room

import "github.com/voxroom/voxroom/internal/errors"

const (
	ErrRoomNotFound      errors.Code = "room not found"
	ErrUserNotFound      errors.Code = "user not found"
	ErrUnauthorized      errors.Code = "unauthorized"
	ErrInvalidAssignment errors.Code = "invalid assignment"
	ErrInvalidPermission errors.Code = "invalid permission"
)
