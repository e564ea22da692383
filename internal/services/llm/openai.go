package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

type openAIBackend struct {
	client *openai.Client
	model  string
}

func newOpenAIBackend(cfg Config, httpClient *http.Client) *openAIBackend {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimSuffix(strings.TrimRight(cfg.BaseURL, "/"), chatCompletionsSuffix)
	}
	if httpClient != nil {
		clientCfg.HTTPClient = httpClient
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}
	return &openAIBackend{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}
}

func (b *openAIBackend) Chat(ctx context.Context, req ChatRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.User})

	temperature := float32(req.Temperature)
	if temperature == 0 {
		// go-openai drops a zero temperature from the payload.
		temperature = math.SmallestNonzeroFloat32
	}
	request := openai.ChatCompletionRequest{
		Model:       b.model,
		Messages:    messages,
		Temperature: temperature,
	}
	if req.JSON {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := b.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return "", describeOpenAIError(err)
	}
	for _, choice := range resp.Choices {
		if content := strings.TrimSpace(choice.Message.Content); content != "" {
			return content, nil
		}
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty choices")
	}
	return "", &emptyContentError{FinishReason: string(resp.Choices[0].FinishReason)}
}

func (b *openAIBackend) Ping(ctx context.Context) error {
	if _, err := b.client.ListModels(ctx); err != nil {
		return describeOpenAIError(err)
	}
	return nil
}

func describeOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &httpStatusError{StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &httpStatusError{StatusCode: reqErr.HTTPStatusCode, Body: reqErr.Error()}
	}
	return fmt.Errorf("openai request: %w", err)
}
