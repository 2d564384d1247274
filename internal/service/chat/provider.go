package chat

import (
	"context"

	"github.com/zhouzirui/chat-widget/backend/internal/model/chat"
)

// CompletionRequest carries one prompt to the provider. History holds the
// answered turns that precede Prompt, oldest first.
type CompletionRequest struct {
	Prompt     string
	Credential string
	History    []chat.Message
}

// CompletionProvider turns a prompt into a reply using a hosted model.
// One request, one response; callers never retry.
type CompletionProvider interface {
	Generate(ctx context.Context, req CompletionRequest) (string, error)
}

// ProviderFunc adapts a plain function to CompletionProvider.
type ProviderFunc func(ctx context.Context, req CompletionRequest) (string, error)

// Generate calls f.
func (f ProviderFunc) Generate(ctx context.Context, req CompletionRequest) (string, error) {
	return f(ctx, req)
}
