package openai

import (
	"context"
	"crypto/sha256"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/voxroom/voxroom/internal/errors"
	"github.com/voxroom/voxroom/internal/log"
)

const (
	apiTimeout            = 60 * time.Second
	defaultSpeechCacheLen = 128
)

// Client wraps the three OpenAI endpoints the voice room needs:
// audio transcription, chat completion and speech synthesis.
type Client struct {
	http        *resty.Client
	chatModel   string
	whisper     string
	speechModel string
	maxTokens   int
	// synthesized audio keyed by (voice, text digest); identical replies
	// are served from memory instead of a second synthesis round-trip
	speechCache *lru.Cache[[32]byte, []byte]
	speechGroup singleflight.Group
	logger      *log.Logger
}

func NewClient(cfg *Config, logger *log.Logger) (*Client, error) {
	if logger == nil {
		panic("logger is required")
	}
	cacheLen := cfg.SpeechCacheLen
	if cacheLen <= 0 {
		cacheLen = defaultSpeechCacheLen
	}
	cache, err := lru.New[[32]byte, []byte](cacheLen)
	if err != nil {
		return nil, err
	}

	http := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetAuthToken(cfg.APIKey).
		SetTimeout(apiTimeout)

	return &Client{
		http:        http,
		chatModel:   cfg.ChatModel,
		whisper:     cfg.WhisperModel,
		speechModel: cfg.SpeechModel,
		maxTokens:   cfg.MaxTokens,
		speechCache: cache,
		logger:      logger,
	}, nil
}

// Transcribe uploads a WAV recording and returns the recognized text.
func (c *Client) Transcribe(ctx context.Context, audio []byte) (string, error) {
	var payload transcriptionResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetFileReader("file", "audio.wav", strings.NewReader(string(audio))).
		SetFormData(map[string]string{"model": c.whisper}).
		SetResult(&payload).
		Post("/audio/transcriptions")
	if err != nil {
		return "", errors.Wrap(ErrRequestFailed, err, "transcription request")
	}
	if resp.IsError() {
		return "", errors.Newf(ErrRequestFailed, "transcription http error: status %d", resp.StatusCode())
	}
	return payload.Text, nil
}

// Complete sends the message list and returns the assistant reply text.
func (c *Client) Complete(ctx context.Context, messages []Message, temperature float64) (string, error) {
	body := chatRequest{
		Model:       c.chatModel,
		Messages:    messages,
		MaxTokens:   c.maxTokens,
		Temperature: temperature,
	}

	var payload chatResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&payload).
		Post("/chat/completions")
	if err != nil {
		return "", errors.Wrap(ErrRequestFailed, err, "chat completion request")
	}
	if resp.IsError() {
		return "", errors.Newf(ErrRequestFailed, "chat completion http error: status %d", resp.StatusCode())
	}

	if len(payload.Choices) == 0 {
		return "", errors.New(ErrEmptyCompletion, "no choices in completion")
	}
	reply := strings.TrimSpace(payload.Choices[0].Message.Content)
	if reply == "" {
		return "", errors.New(ErrEmptyCompletion, "blank completion content")
	}
	return reply, nil
}

// Synthesize converts reply text to audio with the configured voice.
// Concurrent requests for the same (voice, text) pair share one round-trip.
func (c *Client) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	key := speechKey(voice, text)
	if audio, ok := c.speechCache.Get(key); ok {
		c.logger.Debug("speech cache hit", log.String("voice", voice))
		return audio, nil
	}

	audio, err, _ := c.speechGroup.Do(string(key[:]), func() (interface{}, error) {
		return c.synthesize(ctx, key, text, voice)
	})
	if err != nil {
		return nil, err
	}
	return audio.([]byte), nil
}

func (c *Client) synthesize(ctx context.Context, key [32]byte, text, voice string) ([]byte, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(speechRequest{
			Model: c.speechModel,
			Voice: voice,
			Input: text,
		}).
		Post("/audio/speech")
	if err != nil {
		return nil, errors.Wrap(ErrRequestFailed, err, "speech request")
	}
	if resp.IsError() {
		return nil, errors.Newf(ErrRequestFailed, "speech http error: status %d", resp.StatusCode())
	}

	audio := resp.Body()
	if len(audio) == 0 {
		return nil, errors.New(ErrInvalidResponse, "empty audio payload")
	}
	c.speechCache.Add(key, audio)
	return audio, nil
}

func speechKey(voice, text string) [32]byte {
	return sha256.Sum256([]byte(voice + "\x00" + text))
}
