package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tusharsharma89566/Edu-Learn/internal/config"
	"github.com/tusharsharma89566/Edu-Learn/internal/observability"
)

const defaultMaxTokens = 1024

// NewProvider builds the configured provider wrapped as caller → retry → instrumented → base.
// It returns (nil, nil) when the provider is "none" or empty.
func NewProvider(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "", "none":
		return nil, nil
	case "mock":
		return NewMockProvider(), nil
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel, "")
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	default:
		return nil, fmt.Errorf("unknown llm provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	logger.Info("LLM provider initialized", "provider", cfg.Provider, "model", base.ModelID())

	return WithRetry(WithInstrumentation(base, logger), RetryConfig{
		MaxAttempts: cfg.MaxRetries,
		InitialWait: cfg.BaseDelay,
		MaxWait:     10 * time.Second,
		Multiplier:  2,
	}), nil
}

// InstrumentedProvider logs every call and counts it in the LLM metrics
type InstrumentedProvider struct {
	inner  Provider
	logger *slog.Logger
}

func WithInstrumentation(p Provider, logger *slog.Logger) Provider {
	return &InstrumentedProvider{inner: p, logger: logger}
}

func (i *InstrumentedProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := i.inner.Generate(ctx, req)
	latency := time.Since(start)

	status := "success"
	if err != nil {
		status = "error"
	}
	observability.LLMCalls.WithLabelValues(i.inner.ModelID(), status).Inc()

	attrs := []any{"model", i.inner.ModelID(), "latency_ms", latency.Milliseconds(), "structured", req.Schema != nil}
	if resp != nil {
		attrs = append(attrs, "input_tokens", resp.Usage.InputTokens, "output_tokens", resp.Usage.OutputTokens)
	}
	if err != nil {
		i.logger.WarnContext(ctx, "LLM request failed", append(attrs, "error", err)...)
	} else {
		i.logger.DebugContext(ctx, "LLM request completed", attrs...)
	}
	return resp, err
}

func (i *InstrumentedProvider) ModelID() string {
	return i.inner.ModelID()
}

func maxTokensOrDefault(n int) int {
	if n <= 0 {
		return defaultMaxTokens
	}
	return n
}

func stopReason(truncated bool) string {
	if truncated {
		return "max_tokens"
	}
	return "end"
}
