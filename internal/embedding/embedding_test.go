package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"rag-chatbot/internal/models"
	"rag-chatbot/internal/pkg/errors"
)

// fakeBackend satisfies embeddings.Embedder with canned vectors.
type fakeBackend struct {
	vectors    [][]float32
	queryCalls int
	batchCalls int
}

func (f *fakeBackend) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	f.batchCalls++
	return f.vectors, nil
}

func (f *fakeBackend) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	f.queryCalls++
	if len(f.vectors) == 0 {
		return nil, nil
	}
	return f.vectors[0], nil
}

func chunks(docID string, n int) []models.Chunk {
	out := make([]models.Chunk, n)
	for i := range out {
		out[i] = models.Chunk{Text: "chunk", DocID: docID, Start: i * 150, End: i*150 + 200}
	}
	return out
}

func TestEmbedChunks_BuildsRecords(t *testing.T) {
	backend := &fakeBackend{vectors: [][]float32{{1, 0}, {0, 1}}}
	svc, err := NewService(backend, 8)
	require.NoError(t, err)

	records, err := svc.EmbedChunks(context.Background(), chunks("doc.pdf", 2))
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, 1, backend.batchCalls) // one call per ingestion unit

	require.Equal(t, "doc.pdf-0", records[0].ID)
	require.Equal(t, "doc.pdf-1", records[1].ID)
	require.Equal(t, []float32{0, 1}, records[1].Vector)
	require.Equal(t, "doc.pdf", records[1].Metadata.DocID)
	require.Equal(t, 150, records[1].Metadata.Start)
	require.Equal(t, 350, records[1].Metadata.End)
}

func TestEmbedChunks_NoChunks(t *testing.T) {
	svc, err := NewService(&fakeBackend{}, 8)
	require.NoError(t, err)

	records, err := svc.EmbedChunks(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestEmbedChunks_EmptyResponse(t *testing.T) {
	svc, err := NewService(&fakeBackend{}, 8)
	require.NoError(t, err)

	_, err = svc.EmbedChunks(context.Background(), chunks("doc.pdf", 2))
	require.ErrorIs(t, err, errors.ErrEmbedding)
}

func TestEmbedChunks_CountMismatch(t *testing.T) {
	backend := &fakeBackend{vectors: [][]float32{{1, 0}}}
	svc, err := NewService(backend, 8)
	require.NoError(t, err)

	// backend returned one vector for three chunks: must fail, not truncate
	_, err = svc.EmbedChunks(context.Background(), chunks("doc.pdf", 3))
	require.ErrorIs(t, err, errors.ErrEmbedding)
}

func TestEmbedQuery_CachesRepeatedQueries(t *testing.T) {
	backend := &fakeBackend{vectors: [][]float32{{1, 2, 3}}}
	svc, err := NewService(backend, 8)
	require.NoError(t, err)

	first, err := svc.EmbedQuery(context.Background(), "same question")
	require.NoError(t, err)
	second, err := svc.EmbedQuery(context.Background(), "same question")
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, 1, backend.queryCalls)
}

func TestEmbedQuery_EmptyVector(t *testing.T) {
	svc, err := NewService(&fakeBackend{}, 8)
	require.NoError(t, err)

	_, err = svc.EmbedQuery(context.Background(), "q")
	require.ErrorIs(t, err, errors.ErrEmbedding)
}
