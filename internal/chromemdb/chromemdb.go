package chromemdb

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"rag-chatbot/internal/models"
)

const compress = false

// Index is the file-backed vector store. It wraps a persistent chromem-go
// database with a single collection and satisfies models.VectorIndex.
// The collection is created lazily and survives restarts.
type Index struct {
	db             *chromem.DB
	mu             sync.Mutex
	collection     *chromem.Collection
	collectionName string
}

// NewIndex opens (or creates) the database directory and its collection.
func NewIndex(dbPath, collectionName string) (*Index, error) {
	db, err := chromem.NewPersistentDB(dbPath, compress)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}
	c, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %w", err)
	}
	return &Index{db: db, collection: c, collectionName: collectionName}, nil
}

// Add upserts records by id; an existing id is overwritten, not duplicated.
func (ix *Index) Add(ctx context.Context, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}
	docs := make([]chromem.Document, len(records))
	for i, r := range records {
		docs[i] = chromem.Document{
			ID:        r.ID,
			Content:   r.Text,
			Embedding: r.Vector,
			Metadata: map[string]string{
				"doc_id": r.Metadata.DocID,
				"start":  strconv.Itoa(r.Metadata.Start),
				"end":    strconv.Itoa(r.Metadata.End),
			},
		}
	}
	log.Info().Int("count", len(docs)).Msg("adding embeddings")
	if err := ix.current().AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	return nil
}

// Query returns up to topK nearest rows, best-first. Asking for more rows
// than the collection holds returns all rows; an empty collection yields an
// empty result rather than an error.
func (ix *Index) Query(ctx context.Context, vector []float32, topK int) ([]models.Result, error) {
	if topK < 1 {
		return nil, fmt.Errorf("topK must be >= 1, got %d", topK)
	}
	col := ix.current()
	count := col.Count()
	if count == 0 {
		return nil, nil
	}
	if topK > count {
		topK = count
	}
	log.Info().Int("top_k", topK).Msg("querying embeddings")

	results, err := col.QueryEmbedding(ctx, vector, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}

	out := make([]models.Result, 0, len(results))
	for _, r := range results {
		start, _ := strconv.Atoi(r.Metadata["start"])
		end, _ := strconv.Atoi(r.Metadata["end"])
		out = append(out, models.Result{
			Record: models.Record{
				ID:     r.ID,
				Vector: r.Embedding,
				Metadata: models.Metadata{
					DocID: r.Metadata["doc_id"],
					Start: start,
					End:   end,
				},
				Text: r.Content,
			},
			Similarity: r.Similarity,
		})
	}
	return out, nil
}

// IsEmpty reports whether the collection has no rows.
func (ix *Index) IsEmpty(ctx context.Context) (bool, error) {
	return ix.current().Count() == 0, nil
}

// Clear drops all rows. The collection is recreated immediately so that a
// subsequent Query behaves as "empty", not as an error.
func (ix *Index) Clear(ctx context.Context) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	log.Info().Str("collection", ix.collectionName).Msg("clearing collection")
	if err := ix.db.DeleteCollection(ix.collectionName); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	c, err := ix.db.GetOrCreateCollection(ix.collectionName, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to recreate collection: %w", err)
	}
	ix.collection = c
	return nil
}

func (ix *Index) current() *chromem.Collection {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.collection
}
