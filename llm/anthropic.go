package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/BaSui01/bioflow/config"
	"github.com/BaSui01/bioflow/types"
)

// AnthropicClient implements Client against the Anthropic Messages API.
type AnthropicClient struct {
	client      anthropic.Client
	model       anthropic.Model
	maxTokens   int64
	temperature float32
	logger      *zap.Logger
}

// NewAnthropicClient creates a client from LLM configuration. When
// cfg.APIKey is empty the SDK falls back to ANTHROPIC_API_KEY.
func NewAnthropicClient(cfg config.LLMConfig, logger *zap.Logger) *AnthropicClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	var opts []option.RequestOption
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	return &AnthropicClient{
		client:      anthropic.NewClient(opts...),
		model:       anthropic.Model(cfg.Model),
		maxTokens:   int64(cfg.MaxTokens),
		temperature: cfg.Temperature,
		logger:      logger.With(zap.String("component", "anthropic_client")),
	}
}

// Complete implements Client.
func (c *AnthropicClient) Complete(ctx context.Context, req *Request) (string, error) {
	maxTokens := c.maxTokens
	if req.MaxTokens > 0 {
		maxTokens = int64(req.MaxTokens)
	}
	temperature := c.temperature
	if req.Temperature > 0 {
		temperature = req.Temperature
	}

	start := time.Now()
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       c.model,
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(float64(temperature)),
		System: []anthropic.TextBlockParam{
			{Type: "text", Text: req.System},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.User)),
		},
	})
	if err != nil {
		c.logger.Warn("completion failed",
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return "", mapAnthropicError(err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := sb.String()
	if text == "" {
		return "", types.NewError(types.ErrInferenceTransient, "empty completion response").
			WithRetryable(true)
	}

	c.logger.Debug("completion ok",
		zap.Duration("duration", time.Since(start)),
		zap.String("stop_reason", string(msg.StopReason)),
		zap.Int("chars", len(text)),
	)
	return text, nil
}

// mapAnthropicError converts SDK errors into the typed taxonomy the
// retry wrapper keys off.
func mapAnthropicError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		switch {
		case apierr.StatusCode == 429:
			return types.NewError(types.ErrQuotaExceeded, "rate or quota limit hit").
				WithRetryable(true).WithCause(err)
		case apierr.StatusCode >= 400 && apierr.StatusCode < 500:
			return types.NewError(types.ErrInvalidRequest, "request rejected by provider").
				WithCause(err)
		default:
			return types.NewError(types.ErrInferenceTransient, "provider error").
				WithRetryable(true).WithCause(err)
		}
	}

	// Network-level failures are worth retrying.
	return types.NewError(types.ErrInferenceTransient, "inference call failed").
		WithRetryable(true).WithCause(err)
}
