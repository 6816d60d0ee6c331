package gateway

import (
	"context"

	"golang.org/x/time/rate"
)

// connContext is the per-connection state shared by all method handlers on
// a signaling connection.
type connContext struct {
	connID      string
	userID      string
	displayName string
	roomID      string

	reqCtx context.Context

	// throttles whisper transcription uploads per connection
	whisperLimiter *rate.Limiter
}
