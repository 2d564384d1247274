package ai

import (
	"fmt"

	"github.com/zhouzirui/chat-widget/backend/internal/config"
	chatservice "github.com/zhouzirui/chat-widget/backend/internal/service/chat"
)

// NewProvider returns the completion provider selected by cfg.Provider.
func NewProvider(cfg config.AIConfig) (chatservice.CompletionProvider, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAIProvider(cfg), nil
	case config.ProviderArk:
		return NewArkProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.Provider)
	}
}
