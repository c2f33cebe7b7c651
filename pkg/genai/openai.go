package genai

import (
	"context"
	"fmt"

	"github.com/cosminimum/theregistry/internal/config"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider routes judges to the OpenAI chat completion API.
type OpenAIProvider struct {
	client *openai.Client
	cfg    config.OpenAIConfig
}

var _ Provider = (*OpenAIProvider)(nil)

func NewOpenAIProvider(cfg config.OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	return &OpenAIProvider{client: openai.NewClient(cfg.APIKey), cfg: cfg}, nil
}

func (p *OpenAIProvider) Chat(ctx context.Context, model string, system string, history []Message, maxTokens int) (string, error) {
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     model,
		Messages:  msgs,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("chat completion returned no content")
	}

	return resp.Choices[0].Message.Content, nil
}
