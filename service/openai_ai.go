package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

// OpenAICompleter targets any OpenAI-compatible chat completion server.
type OpenAICompleter struct {
	client *openai.Client
	model  string
	apiKey string
}

func NewOpenAICompleter(baseURL, apiKey, model string) *OpenAICompleter {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAICompleter{
		client: openai.NewClientWithConfig(config),
		model:  model,
		apiKey: apiKey,
	}
}

func (s *OpenAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	if s.apiKey == "" {
		return "", fmt.Errorf("%w: OPENAI_API_KEY is not set", ErrConfiguration)
	}

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
		},
	)
	if err != nil {
		return "", openAIError(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func openAIError(ctx context.Context, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = defaultServiceErrorMessage
		}
		log.Printf("OpenAI returned status %d: %s", apiErr.HTTPStatusCode, truncateString(msg, 200))
		return &ServiceError{Status: apiErr.HTTPStatusCode, Message: msg}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		log.Printf("OpenAI request failed with status %d", reqErr.HTTPStatusCode)
		status := reqErr.HTTPStatusCode
		if status == 0 {
			status = http.StatusBadGateway
		}
		return &ServiceError{Status: status, Message: defaultServiceErrorMessage}
	}
	return transportError(ctx, err)
}
