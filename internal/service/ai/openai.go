package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	"github.com/sashabaranov/go-openai"

	"github.com/zhouzirui/chat-widget/backend/internal/config"
	chatservice "github.com/zhouzirui/chat-widget/backend/internal/service/chat"
)

// OpenAIProvider calls an OpenAI-compatible chat completions endpoint. With
// the default configuration that is Gemini's compatibility endpoint.
type OpenAIProvider struct {
	cfg        config.AIConfig
	template   prompt.ChatTemplate
	httpClient *http.Client
}

// NewOpenAIProvider creates a provider; the API key comes with each request.
func NewOpenAIProvider(cfg config.AIConfig) *OpenAIProvider {
	return &OpenAIProvider{
		cfg:        cfg,
		template:   newChatTemplate(cfg.SystemPrompt),
		httpClient: &http.Client{},
	}
}

// Generate sends one chat completion request authorised by req.Credential.
func (p *OpenAIProvider) Generate(ctx context.Context, req chatservice.CompletionRequest) (string, error) {
	messages, err := formatMessages(ctx, p.template, p.cfg.SystemPrompt, req)
	if err != nil {
		return "", err
	}

	clientCfg := openai.DefaultConfig(req.Credential)
	clientCfg.BaseURL = strings.TrimRight(p.cfg.BaseURL, "/")
	clientCfg.HTTPClient = p.httpClient
	client := openai.NewClientWithConfig(clientCfg)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.cfg.Model,
		Messages:    toOpenAIMessages(messages),
		Temperature: p.cfg.Temperature,
		MaxTokens:   p.cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}

	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", errors.New("chat completion returned empty content")
	}

	log.Printf("[ai] openai-compatible response model=%s length=%d", p.cfg.Model, len(content))
	return content, nil
}

func toOpenAIMessages(messages []*schema.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		out = append(out, openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	return out
}
