package media

import "github.com/voxroom/voxroom/internal/errors"

const (
	ErrEngineUnavailable        errors.Code = "engine unavailable"
	ErrTransportNotFound        errors.Code = "transport not found"
	ErrProducerNotFound         errors.Code = "producer not found"
	ErrIncompatibleCapabilities errors.Code = "incompatible rtp capabilities"
	ErrTransportNotOwned        errors.Code = "transport not owned by connection"
)
