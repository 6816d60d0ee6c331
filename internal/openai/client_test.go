package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/voxroom/voxroom/internal/log"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(&Config{
		BaseURL:      srv.URL,
		APIKey:       "test-key",
		ChatModel:    "gpt-3.5-turbo",
		WhisperModel: "whisper-1",
		SpeechModel:  "tts-1-hd",
		MaxTokens:    1000,
	}, log.NewNop())
	require.NoError(t, err)
	return c, srv
}

func TestComplete(t *testing.T) {
	var gotReq chatRequest
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		resp := chatResponse{}
		resp.Choices = append(resp.Choices, struct {
			Message Message `json:"message"`
		}{Message: Message{Role: RoleAssistant, Content: "  hello there \n"}})
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))

	msgs := []Message{
		{Role: RoleSystem, Content: "be brief"},
		{Role: RoleUser, Content: "[Alice]: hi"},
	}
	reply, err := c.Complete(context.Background(), msgs, 0.7)
	require.NoError(t, err)
	require.Equal(t, "hello there", reply)

	require.Equal(t, "gpt-3.5-turbo", gotReq.Model)
	require.Equal(t, 1000, gotReq.MaxTokens)
	require.InDelta(t, 0.7, gotReq.Temperature, 1e-9)
	require.Equal(t, msgs, gotReq.Messages)
}

func TestCompleteEmptyChoices(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(chatResponse{})
	}))

	_, err := c.Complete(context.Background(), nil, 0)
	require.Error(t, err)
}

func TestCompleteHTTPError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := c.Complete(context.Background(), nil, 0)
	require.Error(t, err)
}

func TestTranscribe(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/audio/transcriptions", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "whisper-1", r.FormValue("model"))

		_, _, err := r.FormFile("file")
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(transcriptionResponse{Text: "hello world"})
	}))

	text, err := c.Transcribe(context.Background(), []byte("RIFFfakewav"))
	require.NoError(t, err)
	require.Equal(t, "hello world", text)
}

func TestSynthesizeCaches(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/audio/speech", r.URL.Path)
		calls.Add(1)
		_, _ = w.Write([]byte("mp3-bytes"))
	}))

	audio, err := c.Synthesize(context.Background(), "hello", "alloy")
	require.NoError(t, err)
	require.Equal(t, []byte("mp3-bytes"), audio)

	// identical text+voice served from cache
	audio, err = c.Synthesize(context.Background(), "hello", "alloy")
	require.NoError(t, err)
	require.Equal(t, []byte("mp3-bytes"), audio)
	require.Equal(t, int32(1), calls.Load())

	// a different voice misses
	_, err = c.Synthesize(context.Background(), "hello", "onyx")
	require.NoError(t, err)
	require.Equal(t, int32(2), calls.Load())
}
