package turn

import (
	"context"

	"github.com/voxroom/voxroom/internal/openai"
)

// AIDisplayName is the participant name shown for the assistant member.
const AIDisplayName = "AI Assistant"

// Config is the per-session assistant configuration supplied by the client
// that adds the AI to the room.
type Config struct {
	Voice        string  `json:"voice"`
	Instructions string  `json:"instructions"`
	Temperature  float64 `json:"temperature"`
}

// Response is the aiResponse broadcast payload. Voice is the synthesized
// reply audio; encoding/json emits []byte as base64.
type Response struct {
	Transcription string `json:"transcription"`
	Voice         []byte `json:"voice"`
}

// ChatService produces an assistant reply for a message history.
type ChatService interface {
	Complete(ctx context.Context, msgs []openai.Message, temperature float64) (string, error)
}

// SpeechService turns a reply into audio.
type SpeechService interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// Broadcaster delivers assistant replies to a room's connections.
type Broadcaster interface {
	NotifyRoom(roomID, method string, data interface{})
}

// session is the per-room assistant conversation state.
type session struct {
	aiUserID string
	cfg      Config

	history []openai.Message
	pending string

	// epoch is unique per session instance; in-flight flushes compare it
	// before committing so a kicked-and-recreated session never receives
	// a stale reply.
	epoch uint64

	flushing bool
}
