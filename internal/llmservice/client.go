package llmservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"rag-chatbot/internal/config"
	"rag-chatbot/internal/pkg/errors"
)

// Generator sends the rendered prompt and the user question to the chat
// model as a two-message, non-streaming exchange.
type Generator struct {
	llm   llms.Model
	model string
}

func NewGenerator(llmConfig *config.LLMConfig) (*Generator, error) {
	llm, err := newModel(llmConfig)
	if err != nil {
		return nil, err
	}
	return &Generator{llm: llm, model: llmConfig.Model}, nil
}

func newModel(llmConfig *config.LLMConfig) (llms.Model, error) {
	switch llmConfig.Provider {
	case "openai":
		return openai.New(
			openai.WithBaseURL(llmConfig.BaseURL),
			openai.WithToken(strings.TrimPrefix(llmConfig.Key, "Bearer ")),
			openai.WithModel(llmConfig.Model),
		)
	case "ollama":
		opts := []ollama.Option{ollama.WithModel(llmConfig.Model)}
		if llmConfig.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(llmConfig.BaseURL))
		}
		return ollama.New(opts...)
	default:
		return nil, fmt.Errorf("unknown chat provider: %s", llmConfig.Provider)
	}
}

// Generate returns the raw model response for a system prompt and user
// query. The shape of the response is the client's business; callers
// normalize it with ExtractAnswer.
func (g *Generator) Generate(ctx context.Context, prompt, query string) (any, error) {
	log.Info().Str("model", g.model).Msg("sending prompt to LLM")
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, prompt),
		llms.TextParts(llms.ChatMessageTypeHuman, query),
	}
	resp, err := g.llm.GenerateContent(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	return resp, nil
}

// ExtractAnswer normalizes the model response to plain text immediately at
// the boundary. The client may hand back a structured response with nested
// message content or a bare string; anything else is ErrAnswerFormat.
func ExtractAnswer(answer any) (string, error) {
	switch v := answer.(type) {
	case *llms.ContentResponse:
		if v == nil || len(v.Choices) == 0 || v.Choices[0] == nil {
			return "", fmt.Errorf("%w: response has no choices", errors.ErrAnswerFormat)
		}
		return strings.TrimSpace(v.Choices[0].Content), nil
	case string:
		return strings.TrimSpace(v), nil
	default:
		return "", fmt.Errorf("%w: %T", errors.ErrAnswerFormat, answer)
	}
}
