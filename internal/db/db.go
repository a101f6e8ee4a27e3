package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"rag-chatbot/internal/config"
	"rag-chatbot/internal/models"
)

// ChunkRow is one embedded chunk stored in postgres. Requires the pgvector
// extension for the embedding column and the distance operator. The column
// dimension comes from index.vector_size, so the table is created with
// explicit DDL instead of the model tags.
type ChunkRow struct {
	bun.BaseModel `bun:"table:chunks,alias:c"`
	ID            int64     `bun:"id,pk,autoincrement"`
	ChunkID       string    `bun:"chunk_id,notnull,unique"`
	Content       string    `bun:"content,notnull"`
	Embedding     []float32 `bun:"embedding,notnull"`
	DocID         string    `bun:"doc_id,notnull"`
	TokenStart    int       `bun:"token_start,notnull"`
	TokenEnd      int       `bun:"token_end,notnull"`
}

const createChunksTable = `CREATE TABLE IF NOT EXISTS chunks (
	id BIGSERIAL PRIMARY KEY,
	chunk_id TEXT NOT NULL UNIQUE,
	content TEXT NOT NULL,
	embedding vector(%d) NOT NULL,
	doc_id TEXT NOT NULL,
	token_start BIGINT NOT NULL,
	token_end BIGINT NOT NULL
)`

// Index is the postgres-backed alternative to the chromem store, for
// deployments that already run pgvector.
type Index struct {
	db *bun.DB
}

func Connect(cfg *config.IndexConfig) (*sql.DB, error) {
	return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN))), nil
}

// NewIndex wraps an open connection and creates the chunks table when it
// does not exist yet, sized to the configured embedding dimension.
func NewIndex(ctx context.Context, sqldb *sql.DB, cfg *config.IndexConfig) (*Index, error) {
	if cfg.VectorSize < 1 {
		return nil, fmt.Errorf("vector_size must be >= 1, got %d", cfg.VectorSize)
	}
	bdb := bun.NewDB(sqldb, pgdialect.New())
	if cfg.Debug {
		bdb.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	if _, err := bdb.ExecContext(ctx, fmt.Sprintf(createChunksTable, cfg.VectorSize)); err != nil {
		return nil, fmt.Errorf("failed to create chunks table: %w", err)
	}
	return &Index{db: bdb}, nil
}

func (ix *Index) Close() error {
	return ix.db.Close()
}

func toRows(records []models.Record) []ChunkRow {
	rows := make([]ChunkRow, len(records))
	for i, r := range records {
		rows[i] = ChunkRow{
			ChunkID:    r.ID,
			Content:    r.Text,
			Embedding:  r.Vector,
			DocID:      r.Metadata.DocID,
			TokenStart: r.Metadata.Start,
			TokenEnd:   r.Metadata.End,
		}
	}
	return rows
}

func toResults(rows []ChunkRow) []models.Result {
	out := make([]models.Result, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.Result{
			Record: models.Record{
				ID:     row.ChunkID,
				Vector: row.Embedding,
				Metadata: models.Metadata{
					DocID: row.DocID,
					Start: row.TokenStart,
					End:   row.TokenEnd,
				},
				Text: row.Content,
			},
		})
	}
	return out
}

// Add upserts records keyed by chunk_id.
func (ix *Index) Add(ctx context.Context, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}
	rows := toRows(records)
	_, err := ix.db.NewInsert().
		Model(&rows).
		On("CONFLICT (chunk_id) DO UPDATE").
		Set("content = EXCLUDED.content").
		Set("embedding = EXCLUDED.embedding").
		Set("doc_id = EXCLUDED.doc_id").
		Set("token_start = EXCLUDED.token_start").
		Set("token_end = EXCLUDED.token_end").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to store chunks: %w", err)
	}
	return nil
}

// Query returns the topK nearest rows by pgvector distance, best-first.
// Result.Similarity is left zero here; ordering already reflects distance
// and the reranker recomputes cosine scores from the returned vectors.
func (ix *Index) Query(ctx context.Context, vector []float32, topK int) ([]models.Result, error) {
	if topK < 1 {
		return nil, fmt.Errorf("topK must be >= 1, got %d", topK)
	}
	var rows []ChunkRow
	err := ix.db.NewSelect().
		Model(&rows).
		OrderExpr("embedding <-> ?", vector).
		Limit(topK).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}
	return toResults(rows), nil
}

func (ix *Index) IsEmpty(ctx context.Context) (bool, error) {
	count, err := ix.db.NewSelect().Model((*ChunkRow)(nil)).Count(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to count chunks: %w", err)
	}
	return count == 0, nil
}

func (ix *Index) Clear(ctx context.Context) error {
	_, err := ix.db.NewTruncateTable().Model((*ChunkRow)(nil)).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to clear chunks: %w", err)
	}
	return nil
}
