package errors

import "errors"

// Sentinel errors for the pipeline. Callers classify failures with
// errors.Is; components wrap these with fmt.Errorf("...: %w", ...).
var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrNotFound        = errors.New("file not found")
	ErrEmbedding       = errors.New("embedding backend returned no or mismatched vectors")
	ErrAnswerFormat    = errors.New("unexpected answer object structure")
	ErrNotReady        = errors.New("pipeline not initialized, ingest first")
	ErrIngestion       = errors.New("ingestion failed")
)
