package models

import "context"

// Chunk is a token-bounded slice of a source document. Start and End are
// offsets into the document's token stream, not byte offsets.
type Chunk struct {
	Text  string
	DocID string
	Start int
	End   int
}

// Metadata carried alongside every stored vector.
type Metadata struct {
	DocID string
	Start int
	End   int
}

// Record is one embedded chunk as stored in the vector index.
// ID is derived from the document id and chunk index and must be unique
// within the index; adding a colliding id overwrites the previous row.
type Record struct {
	ID       string
	Vector   []float32
	Metadata Metadata
	Text     string
}

// Result is a single nearest-neighbor hit; best-first ordering is the
// index's responsibility.
type Result struct {
	Record
	Similarity float32
}

// VectorIndex is the durable chunk store. Implementations must survive
// process restarts and treat Add as an idempotent per-id upsert.
type VectorIndex interface {
	Add(ctx context.Context, records []Record) error
	Query(ctx context.Context, vector []float32, topK int) ([]Result, error)
	IsEmpty(ctx context.Context) (bool, error)
	Clear(ctx context.Context) error
}
