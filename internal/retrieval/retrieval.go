package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog/log"

	"rag-chatbot/internal/models"
)

// QueryEmbedder is the slice of the embedding service the retriever needs.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Retriever performs two-stage retrieval: a coarse nearest-neighbor query
// against the index followed by a cosine reranking pass.
type Retriever struct {
	index      models.VectorIndex
	embedder   QueryEmbedder
	topK       int
	rerankTopK int
}

func New(index models.VectorIndex, embedder QueryEmbedder, topK, rerankTopK int) *Retriever {
	if topK <= 0 {
		topK = models.DefaultTopK
	}
	if rerankTopK <= 0 {
		rerankTopK = models.DefaultRerankTopK
	}
	return &Retriever{index: index, embedder: embedder, topK: topK, rerankTopK: rerankTopK}
}

// Retrieve embeds the query, pulls topK candidates and reranks them by
// cosine similarity against the query vector. Ties keep the coarse order.
// An empty candidate set returns an empty slice without reranking.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]models.Result, error) {
	queryVec, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	candidates, err := r.index.Query(ctx, queryVec, r.topK)
	if err != nil {
		return nil, fmt.Errorf("coarse retrieval failed: %w", err)
	}
	if len(candidates) == 0 {
		log.Info().Str("query", query).Msg("no candidates retrieved")
		return nil, nil
	}

	reranked := r.rerank(queryVec, candidates)
	log.Info().Int("candidates", len(candidates)).Int("reranked", len(reranked)).Msg("retrieval complete")
	return reranked, nil
}

func (r *Retriever) rerank(queryVec []float32, candidates []models.Result) []models.Result {
	scored := make([]models.Result, len(candidates))
	for i, c := range candidates {
		c.Similarity = Cosine(queryVec, c.Vector)
		scored[i] = c
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})
	if len(scored) > r.rerankTopK {
		scored = scored[:r.rerankTopK]
	}
	return scored
}

// Cosine computes the cosine similarity of two vectors; zero-magnitude or
// mismatched vectors score zero.
func Cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
