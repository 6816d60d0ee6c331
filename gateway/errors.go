package gateway

import (
	"github.com/voxroom/voxroom/internal/errors"
	"github.com/voxroom/voxroom/internal/jsonrpc"
	"github.com/voxroom/voxroom/media"
	"github.com/voxroom/voxroom/room"
	"github.com/voxroom/voxroom/turn"
)

// rpcError translates a domain failure into a JSON-RPC error response.
// Known domain codes become invalid-request errors carrying the code text;
// anything else is reported as internal.
func rpcError(err error) error {
	if err == nil {
		return nil
	}
	if jerr, ok := errors.As[*jsonrpc.Error](err); ok {
		return *jerr
	}

	for _, code := range domainCodes {
		if errors.Is(err, code) {
			return jsonrpc.ErrInvalidRequest(string(code))
		}
	}
	return jsonrpc.ErrInternal(err.Error())
}

var domainCodes = []errors.Code{
	room.ErrRoomNotFound,
	room.ErrUserNotFound,
	room.ErrUnauthorized,
	room.ErrInvalidAssignment,
	room.ErrInvalidPermission,
	media.ErrEngineUnavailable,
	media.ErrTransportNotFound,
	media.ErrProducerNotFound,
	media.ErrIncompatibleCapabilities,
	media.ErrTransportNotOwned,
	turn.ErrSessionExists,
	turn.ErrSessionNotFound,
	turn.ErrNoSession,
	turn.ErrForbidden,
	turn.ErrAIMicOff,
}
