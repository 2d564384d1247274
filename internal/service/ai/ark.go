package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"

	"github.com/zhouzirui/chat-widget/backend/internal/config"
	chatservice "github.com/zhouzirui/chat-widget/backend/internal/service/chat"
)

// ArkProvider calls a Volcengine Ark model through eino. The chat model is
// built per call because the API key belongs to the caller's session.
type ArkProvider struct {
	cfg      config.AIConfig
	template prompt.ChatTemplate
	newModel func(ctx context.Context, apiKey string) (model.BaseChatModel, error)
}

// NewArkProvider creates a provider for the configured Ark model.
func NewArkProvider(cfg config.AIConfig) *ArkProvider {
	return &ArkProvider{
		cfg:      cfg,
		template: newChatTemplate(cfg.SystemPrompt),
		newModel: cfg.NewArkChatModel,
	}
}

// Generate runs one non-streaming completion.
func (p *ArkProvider) Generate(ctx context.Context, req chatservice.CompletionRequest) (string, error) {
	messages, err := formatMessages(ctx, p.template, p.cfg.SystemPrompt, req)
	if err != nil {
		return "", err
	}

	chatModel, err := p.newModel(ctx, req.Credential)
	if err != nil {
		return "", fmt.Errorf("failed to create chat model: %w", err)
	}

	response, err := chatModel.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}
	if response == nil || strings.TrimSpace(response.Content) == "" {
		return "", errors.New("model returned empty content")
	}

	log.Printf("[ai] ark response model=%s length=%d", p.cfg.Model, len(response.Content))
	return response.Content, nil
}
