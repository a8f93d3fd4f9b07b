package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"sentinella/pkg/config"

	osdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

// Client talks to an OpenAI-compatible chat completion endpoint.
type Client struct {
	client         osdk.Client
	model          string
	requestTimeout time.Duration
}

// New builds the completion client from provider config. The base URL points
// the SDK at the Groq-compatible endpoint; the model is fixed per deployment.
func New(cfg *config.Config) (*Client, error) {
	apiKey := cfg.ProviderAPIKey()
	if apiKey == "" {
		return nil, errors.New("provider.api_key_env is required or GROQ_API_KEY must be set")
	}

	model := strings.TrimSpace(cfg.Provider.Model)
	if model == "" {
		return nil, errors.New("provider.model is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL := strings.TrimSpace(cfg.Provider.BaseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	requestTimeout := time.Duration(cfg.Provider.RequestTimeoutSeconds) * time.Second
	if requestTimeout > 0 {
		opts = append(opts, option.WithRequestTimeout(requestTimeout))
	}

	return &Client{
		client:         osdk.NewClient(opts...),
		model:          model,
		requestTimeout: requestTimeout,
	}, nil
}

// Health verifies the endpoint is reachable and the key is accepted.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	log := clientLogger().With("operation", "health")
	startedAt := time.Now()
	log.Debug("provider request started")

	if _, err := c.client.Models.List(ctx); err != nil {
		log.Debug("provider request failed", "duration_ms", time.Since(startedAt).Milliseconds(), "error", err)
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Debug("provider request completed", "duration_ms", time.Since(startedAt).Milliseconds())

	return nil
}

// Complete sends one chat completion and returns the first choice's text.
func (c *Client) Complete(ctx context.Context, system string, user string) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	log := clientLogger().With("operation", "complete")
	startedAt := time.Now()

	user = strings.TrimSpace(user)
	if user == "" {
		return "", errors.New("user message is required")
	}

	messages := make([]osdk.ChatCompletionMessageParamUnion, 0, 2)
	if system = strings.TrimSpace(system); system != "" {
		messages = append(messages, osdk.SystemMessage(system))
	}
	messages = append(messages, osdk.UserMessage(user))

	log.Debug("provider request started", "model", c.model, "message_count", len(messages), "user_length", len(user))

	completion, err := c.client.Chat.Completions.New(ctx, osdk.ChatCompletionNewParams{
		Model:    shared.ChatModel(c.model),
		Messages: messages,
	})
	if err != nil {
		log.Debug("provider request failed", "duration_ms", time.Since(startedAt).Milliseconds(), "error", err)
		return "", fmt.Errorf("completion failed: %w", err)
	}

	if len(completion.Choices) == 0 {
		log.Debug("provider request failed", "duration_ms", time.Since(startedAt).Milliseconds(), "error", "no choices")
		return "", errors.New("completion returned no choices")
	}

	text := completion.Choices[0].Message.Content
	log.Debug("provider request completed", "duration_ms", time.Since(startedAt).Milliseconds(), "response_length", len(text))

	return text, nil
}

func clientLogger() *slog.Logger {
	return slog.Default().With("component", "provider.openai")
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.requestTimeout <= 0 {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, c.requestTimeout)
}
