package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/chat-widget/backend/internal/model/chat"
	chatservice "github.com/zhouzirui/chat-widget/backend/internal/service/chat"
)

// newChatTemplate lays out one completion call: optional system instruction,
// replayed history, then the user's prompt.
func newChatTemplate(systemPrompt string) prompt.ChatTemplate {
	templates := make([]schema.MessagesTemplate, 0, 3)
	if systemPrompt != "" {
		templates = append(templates, schema.SystemMessage("{system}"))
	}
	templates = append(templates,
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)
	return prompt.FromMessages(schema.FString, templates...)
}

func formatMessages(ctx context.Context, tpl prompt.ChatTemplate, systemPrompt string, req chatservice.CompletionRequest) ([]*schema.Message, error) {
	messages, err := tpl.Format(ctx, map[string]any{
		"system":  systemPrompt,
		"history": buildHistoryMessages(req.History),
		"query":   req.Prompt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to format chat template: %w", err)
	}
	return messages, nil
}

func buildHistoryMessages(messages []chat.Message) []*schema.Message {
	history := make([]*schema.Message, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case chat.RoleUser:
			history = append(history, schema.UserMessage(msg.Content))
		case chat.RoleAssistant:
			history = append(history, schema.AssistantMessage(msg.Content, nil))
		}
	}
	return history
}
