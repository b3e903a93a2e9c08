package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/fmuoria/interview-report-agent/internal/config"
)

// Generator produces text for a single prompt
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Close() error
}

// New creates the generator selected by cfg.LLMProvider, wrapped with
// rate-limit retries.
func New(ctx context.Context, cfg *config.Config) (Generator, error) {
	var (
		gen Generator
		err error
	)
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		gen, err = NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.Model, cfg.Temperature)
	case config.ProviderVertex:
		gen, err = NewVertexAIClient(ctx, cfg.GoogleCloudProject, cfg.GoogleCloudLocation, cfg.Model, cfg.Temperature)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
	if err != nil {
		return nil, err
	}
	return WithRetry(gen), nil
}

// StripFences removes the markdown code fence models like to wrap HTML in
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```html")
	text = strings.TrimSuffix(text, "```")
	return text
}
