package speech

import (
	"context"
	"io"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"mailtriage/internal/services"
)

// OpenAI synthesizes speech with the OpenAI audio API.
type OpenAI struct {
	client *openai.Client
	voice  openai.SpeechVoice
}

// NewOpenAI returns an OpenAI synthesizer. An empty baseURL uses the public API.
func NewOpenAI(apiKey, voice string, httpClient *http.Client, baseURL string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if strings.TrimSpace(voice) == "" {
		voice = string(openai.VoiceAlloy)
	}
	return &OpenAI{
		client: openai.NewClientWithConfig(cfg),
		voice:  openai.SpeechVoice(strings.ToLower(voice)),
	}
}

// Synthesize implements Synthesizer.
func (o *OpenAI) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, services.Wrap(services.ErrValidation, "speech", "openai", "text is empty", nil)
	}
	stream, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.TTSModel1,
		Input:          text,
		Voice:          o.voice,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "speech", "openai", "create speech", err)
	}
	defer stream.Close()
	audio, err := io.ReadAll(stream)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "speech", "openai", "read audio", err)
	}
	return audio, nil
}
