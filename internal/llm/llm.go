package llm

import (
	"context"
	"log"

	"meal-planner/internal/config"
	"meal-planner/internal/shared"
)

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   shared.TokenUsage
}

// TextGenerator is an interface for generating text from a prompt.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (ContentResponse, error)
}

// Closer is an interface for closing resources.
type Closer interface {
	Close() error
}

// NewTextGenerator picks Groq when its key is set, then Gemini. It returns nil when
// neither is configured. The returned func releases the client.
func NewTextGenerator(ctx context.Context, cfg *config.Config, model string, temperature float64) (TextGenerator, func(), error) {
	switch {
	case cfg.GroqAPIKey != "":
		return NewGroqClient(cfg, model, temperature), func() {}, nil
	case cfg.GeminiAPIKey != "":
		gemini, err := NewGeminiClient(ctx, cfg)
		if err != nil {
			return nil, func() {}, err
		}
		return gemini, func() { closeQuietly(gemini) }, nil
	}
	return nil, func() {}, nil
}

func closeQuietly(c Closer) {
	if err := c.Close(); err != nil {
		log.Printf("Warning: failed to close LLM client: %v", err)
	}
}
