package embedding

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"rag-chatbot/internal/config"
	"rag-chatbot/internal/models"
	"rag-chatbot/internal/pkg/errors"
)

// NewEmbedder creates an embedder for the configured provider. Chunk and
// query embeddings must come from the same model so similarity scores
// between them are meaningful.
func NewEmbedder(llmConfig *config.LLMConfig) (embeddings.Embedder, error) {
	switch llmConfig.Provider {
	case "openai":
		return newOpenAIEmbedder(llmConfig)
	case "ollama":
		return newOllamaEmbedder(llmConfig)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", llmConfig.Provider)
	}
}

func newOpenAIEmbedder(llmConfig *config.LLMConfig) (embeddings.Embedder, error) {
	llm, err := openai.New(
		openai.WithBaseURL(llmConfig.BaseURL),
		openai.WithToken(strings.TrimPrefix(llmConfig.Key, "Bearer ")),
		openai.WithModel(llmConfig.Model),
		openai.WithEmbeddingModel(llmConfig.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize openai embedder: %w", err)
	}
	return embeddings.NewEmbedder(llm)
}

func newOllamaEmbedder(llmConfig *config.LLMConfig) (embeddings.Embedder, error) {
	opts := []ollama.Option{ollama.WithModel(llmConfig.Model)}
	if llmConfig.BaseURL != "" {
		opts = append(opts, ollama.WithServerURL(llmConfig.BaseURL))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ollama embedder: %w", err)
	}
	return embeddings.NewEmbedder(llm)
}

// Service turns chunks into index records and queries into vectors.
// Query embeddings are cached; repeated questions skip the model call.
type Service struct {
	embedder embeddings.Embedder
	cache    *lru.Cache[string, []float32]
}

func NewService(embedder embeddings.Embedder, cacheSize int) (*Service, error) {
	cache, err := lru.New[string, []float32](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Service{embedder: embedder, cache: cache}, nil
}

// EmbedChunks embeds all chunk texts of one document in a single batched
// model call and pairs each vector with its chunk metadata. A missing or
// mismatched vector count from the backend is an error, never truncated.
func (s *Service) EmbedChunks(ctx context.Context, chunks []models.Chunk) ([]models.Record, error) {
	if len(chunks) == 0 {
		log.Info().Msg("no chunks to embed")
		return nil, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	log.Info().Int("batch_size", len(texts)).Msg("creating embeddings batch")

	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrEmbedding, err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: empty response", errors.ErrEmbedding)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: got %d vectors for %d chunks", errors.ErrEmbedding, len(vectors), len(chunks))
	}

	records := make([]models.Record, len(chunks))
	for i, c := range chunks {
		records[i] = models.Record{
			ID:     fmt.Sprintf("%s-%d", c.DocID, i),
			Vector: vectors[i],
			Metadata: models.Metadata{
				DocID: c.DocID,
				Start: c.Start,
				End:   c.End,
			},
			Text: c.Text,
		}
	}
	return records, nil
}

// EmbedQuery embeds a single query text.
func (s *Service) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := s.cache.Get(text); ok {
		return vec, nil
	}
	vec, err := s.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrEmbedding, err)
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", errors.ErrEmbedding)
	}
	s.cache.Add(text, vec)
	return vec, nil
}
