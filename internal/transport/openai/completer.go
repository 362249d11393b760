package openai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/talktoearn/internal/domain"
)

// Completer is a chat completion provider using the OpenAI-compatible API.
// The same implementation serves both the relevance judge and the answer
// generator, configured with different models where needed.
type Completer struct {
	client      *openai.Client
	model       string
	temperature float32
	logger      *zap.Logger
}

// NewCompleter creates an OpenAI-compatible chat completion provider.
func NewCompleter(cfg *Config, logger *zap.Logger) *Completer {
	return &Completer{
		client:      newClient(cfg),
		model:       cfg.ChatModel,
		temperature: float32(cfg.Temperature),
		logger:      logger,
	}
}

// Complete implements domain.Completer. Sends the prompt as a single user
// message and returns the first choice.
func (c *Completer) Complete(ctx context.Context, prompt string) (domain.GeneratedText, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return domain.GeneratedText{}, parseAPIError("chat completion", err)
	}

	if len(resp.Choices) == 0 {
		return domain.GeneratedText{}, fmt.Errorf("empty completion response: %w", domain.ErrProviderFatal)
	}

	return domain.GeneratedText{
		Text:             resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}
