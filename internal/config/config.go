package config

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/ilyakaznacheev/cleanenv"
)

const (
	ProviderOpenAI = "openai"
	ProviderArk    = "ark"

	// DefaultModel is the model identifier every completion call is made against.
	DefaultModel = "gemini-3-flash-preview"

	DefaultOpenAIBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultArkBaseURL    = "https://ark.cn-beijing.volces.com/api/v3"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server ServerConfig
	AI     AIConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	addr, err := resolveAddr(cfg.Server.Port)
	if err != nil {
		return nil, err
	}
	cfg.Server.Addr = addr

	cfg.AI.applyDefaults()
	if err := cfg.AI.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Port          string `env:"PORT" env-default:"8080"`
	AllowedOrigin string `env:"CORS_ALLOWED_ORIGIN" env-default:"*"`

	// Addr is derived from Port.
	Addr string
}

// resolveAddr 解析服务器监听地址。
func resolveAddr(port string) (string, error) {
	port = strings.TrimSpace(port)
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return port, nil
	}

	return ":" + port, nil
}

// AIConfig 描述大模型相关配置。API key 不在这里：它由每个会话的用户提供。
type AIConfig struct {
	Provider      string  `env:"AI_PROVIDER" env-default:"openai"`
	Model         string  `env:"AI_MODEL" env-default:"gemini-3-flash-preview"`
	BaseURL       string  `env:"AI_BASE_URL"`
	Region        string  `env:"ARK_REGION" env-default:"cn-beijing"`
	Temperature   float32 `env:"AI_TEMPERATURE"`
	MaxTokens     int     `env:"AI_MAX_TOKENS"`
	SystemPrompt  string  `env:"AI_SYSTEM_PROMPT"`
	ReplayHistory bool    `env:"AI_REPLAY_HISTORY" env-default:"false"`
}

func (c *AIConfig) applyDefaults() {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	c.Model = strings.TrimSpace(c.Model)
	c.BaseURL = strings.TrimSpace(c.BaseURL)

	if c.Provider == "" {
		c.Provider = ProviderOpenAI
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.BaseURL == "" {
		switch c.Provider {
		case ProviderOpenAI:
			c.BaseURL = DefaultOpenAIBaseURL
		case ProviderArk:
			c.BaseURL = DefaultArkBaseURL
		}
	}
}

// Validate checks the provider selection and model identifier.
func (c AIConfig) Validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderArk:
	default:
		return fmt.Errorf("unsupported AI_PROVIDER %q", c.Provider)
	}

	if c.Model == "" {
		return errors.New("AI_MODEL must not be empty")
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("invalid AI_MAX_TOKENS value %d", c.MaxTokens)
	}
	return nil
}

// NewArkChatModel 使用配置和用户提供的 API key 创建一个模型实例。
func (c AIConfig) NewArkChatModel(ctx context.Context, apiKey string) (model.BaseChatModel, error) {
	if apiKey == "" {
		return nil, errors.New("ark api key is required")
	}

	var temperature *float32
	if c.Temperature != 0 {
		val := c.Temperature
		temperature = &val
	}

	var maxTokens *int
	if c.MaxTokens > 0 {
		val := c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      apiKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	chatModel, err := ark.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return chatModel, nil
}
