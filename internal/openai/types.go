package openai

import "github.com/spf13/viper"

// Message is one chat-completion turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Config holds the OpenAI endpoint settings.
type Config struct {
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	ChatModel      string `mapstructure:"chat_model"`
	WhisperModel   string `mapstructure:"whisper_model"`
	SpeechModel    string `mapstructure:"speech_model"`
	MaxTokens      int    `mapstructure:"max_tokens"`
	SpeechCacheLen int    `mapstructure:"speech_cache_len"`
}

func Setup(v *viper.Viper, prefix string) {
	p := func(key string) string { return prefix + "." + key }

	v.SetDefault(p("base_url"), "https://api.openai.com/v1")
	v.SetDefault(p("api_key"), "")
	v.SetDefault(p("chat_model"), "gpt-4o-mini")
	v.SetDefault(p("whisper_model"), "whisper-1")
	v.SetDefault(p("speech_model"), "tts-1")
	v.SetDefault(p("max_tokens"), 150)
	v.SetDefault(p("speech_cache_len"), 256)
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

type speechRequest struct {
	Model string `json:"model"`
	Voice string `json:"voice"`
	Input string `json:"input"`
}
