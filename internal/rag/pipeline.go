package rag

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"rag-chatbot/internal/citation"
	"rag-chatbot/internal/llmservice"
	"rag-chatbot/internal/models"
	"rag-chatbot/internal/pkg/errors"
)

// Loader extracts raw text from each path, one result per path in input
// order.
type Loader func(paths []string) ([]string, error)

// Chunker splits raw document text into token-bounded chunks.
type Chunker interface {
	Chunk(text, docID string) []models.Chunk
}

// Embedder turns chunks into index records and queries into vectors.
type Embedder interface {
	EmbedChunks(ctx context.Context, chunks []models.Chunk) ([]models.Record, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Retriever returns the best-first chunk set for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]models.Result, error)
}

// PromptBuilder renders retrieved chunks and a question into the system
// prompt.
type PromptBuilder interface {
	Build(chunks []models.Result, query string) (string, error)
}

// Generator invokes the chat model; its raw response is normalized by
// llmservice.ExtractAnswer.
type Generator interface {
	Generate(ctx context.Context, prompt, query string) (any, error)
}

// Deps bundles the collaborators a pipeline is assembled from.
type Deps struct {
	Loader    Loader
	Chunker   Chunker
	Embedder  Embedder
	Index     models.VectorIndex
	Retriever Retriever
	Prompts   PromptBuilder
	Generator Generator
}

// Pipeline is one index generation: the document set it was built from
// plus the components to ingest and answer over it. A Pipeline can be used
// standalone for one-shot ingest-then-discard requests; shared lifecycle
// lives in Manager.
type Pipeline struct {
	deps  Deps
	paths []string
}

func NewPipeline(deps Deps, paths []string) *Pipeline {
	return &Pipeline{deps: deps, paths: paths}
}

// Paths returns the document set this generation was built from.
func (p *Pipeline) Paths() []string {
	return p.paths
}

// Ingest runs the chunk, embed, index sequence for every document. The
// first failure aborts the batch; rows already written stay in the index,
// which is safe because Add is an idempotent upsert and re-running the
// ingestion converges.
func (p *Pipeline) Ingest(ctx context.Context) error {
	texts, err := p.deps.Loader(p.paths)
	if err != nil {
		return fmt.Errorf("%w: %w", errors.ErrIngestion, err)
	}

	for i, text := range texts {
		docID := p.paths[i]
		chunks := p.deps.Chunker.Chunk(text, docID)
		records, err := p.deps.Embedder.EmbedChunks(ctx, chunks)
		if err != nil {
			return fmt.Errorf("%w: embedding %s: %w", errors.ErrIngestion, docID, err)
		}
		if err := p.deps.Index.Add(ctx, records); err != nil {
			return fmt.Errorf("%w: indexing %s: %w", errors.ErrIngestion, docID, err)
		}
	}
	log.Info().Int("documents", len(texts)).Msg("ingestion complete")
	return nil
}

// Query answers a conversation from the indexed chunks. Retrieval uses the
// concatenated history; the model is asked the latest user question.
func (p *Pipeline) Query(ctx context.Context, conv models.Conversation) (*models.QueryResponse, error) {
	query := conv.LastUserMessage()
	if query == "" {
		return nil, fmt.Errorf("conversation has no user message")
	}

	sources, err := p.deps.Retriever.Retrieve(ctx, conv.RetrievalQuery())
	if err != nil {
		return nil, err
	}

	promptText, err := p.deps.Prompts.Build(sources, query)
	if err != nil {
		return nil, err
	}

	raw, err := p.deps.Generator.Generate(ctx, promptText, query)
	if err != nil {
		return nil, err
	}
	answer, err := llmservice.ExtractAnswer(raw)
	if err != nil {
		return nil, err
	}

	return &models.QueryResponse{
		Answer:  citation.Format(answer, sources),
		Sources: sources,
	}, nil
}
