package chunker

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
	"github.com/rs/zerolog/log"

	"rag-chatbot/internal/models"
)

// Tokenizer converts text to a token stream and back. Decoding a slice of
// a previously encoded stream must be lossless for the vocabulary.
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

// tiktokenizer adapts a tiktoken encoding, matched to the embedding
// model's tokenizer.
type tiktokenizer struct {
	enc *tiktoken.Tiktoken
}

func (t *tiktokenizer) Encode(text string) []int   { return t.enc.Encode(text, nil, nil) }
func (t *tiktokenizer) Decode(tokens []int) string { return t.enc.Decode(tokens) }

// NewTiktokenizer returns the cl100k_base tokenizer.
func NewTiktokenizer() (Tokenizer, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer: %w", err)
	}
	return &tiktokenizer{enc: enc}, nil
}

// Chunker windows a document's token stream into overlapping chunks.
type Chunker struct {
	tok     Tokenizer
	window  int
	overlap int
}

// New builds a Chunker. Overlap must be smaller than the window, otherwise
// the stride would be zero and windowing would never advance.
func New(tok Tokenizer, window, overlap int) (*Chunker, error) {
	if window <= 0 {
		return nil, fmt.Errorf("chunk window must be positive, got %d", window)
	}
	if overlap < 0 || overlap >= window {
		return nil, fmt.Errorf("chunk overlap must be in [0, window), got overlap=%d window=%d", overlap, window)
	}
	return &Chunker{tok: tok, window: window, overlap: overlap}, nil
}

// Chunk splits text into token-bounded chunks with positional metadata.
// Chunks are produced in increasing start order; consecutive chunks overlap
// by the configured token count, the final chunk may be shorter than the
// window. Empty input produces no chunks.
func (c *Chunker) Chunk(text, docID string) []models.Chunk {
	tokens := c.tok.Encode(text)
	total := len(tokens)
	log.Info().Str("doc_id", docID).Int("total_tokens", total).Msg("chunking text")

	var chunks []models.Chunk
	stride := c.window - c.overlap
	for start := 0; start < total; start += stride {
		end := start + c.window
		if end > total {
			end = total
		}
		chunks = append(chunks, models.Chunk{
			Text:  c.tok.Decode(tokens[start:end]),
			DocID: docID,
			Start: start,
			End:   end,
		})
		if end == total {
			break
		}
	}

	log.Info().Str("doc_id", docID).Int("chunks", len(chunks)).Msg("generated chunks")
	return chunks
}
