package summarize

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
)

// Anthropic summarizes via the Anthropic Messages API through langchaingo.
// Used when an API key is configured; avoids the per-call startup cost of
// the CLI backend.
type Anthropic struct {
	llm     llms.Model
	timeout time.Duration
}

// NewAnthropic creates the API-backed summarizer.
func NewAnthropic(apiKey, model string, timeout time.Duration) (*Anthropic, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}
	if model == "" {
		model = "claude-haiku-4-5"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	llm, err := anthropic.New(
		anthropic.WithToken(apiKey),
		anthropic.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("creating anthropic client: %w", err)
	}

	return &Anthropic{llm: llm, timeout: timeout}, nil
}

func (a *Anthropic) Summarize(ctx context.Context, message string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	out, err := llms.GenerateFromSinglePrompt(ctx, a.llm, prompt+message,
		llms.WithMaxTokens(150))
	if err != nil {
		return "", fmt.Errorf("anthropic completion: %w", err)
	}

	summary := strings.TrimSpace(out)
	if summary == "" {
		return "", fmt.Errorf("anthropic returned empty completion")
	}
	return summary, nil
}
