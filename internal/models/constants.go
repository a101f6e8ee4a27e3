package models

const (
	// Chunking defaults, matched to the embedding model's tokenizer.
	DefaultChunkWindow  = 200
	DefaultChunkOverlap = 50

	// Retrieval defaults.
	DefaultTopK       = 4
	DefaultRerankTopK = 5

	// Per-chunk character budget inside the rendered prompt.
	DefaultMaxChunkChars = 300

	// Seconds before the active generation is considered stale.
	DefaultIndexTTLSecs = 1800

	DefaultCollectionName = "documents"
)
