package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
embed_llm:
  provider: "openai"
  base_url: "https://openrouter.ai/api/v1"
  model: "text-embedding-3-small"
rag:
  chunk_window: 100
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, "openai", cfg.EmbedLLM.Provider)
	require.Equal(t, 100, cfg.RAG.ChunkWindow)

	// everything unset falls back to defaults
	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, 50, cfg.RAG.ChunkOverlap)
	require.Equal(t, 4, cfg.RAG.TopK)
	require.Equal(t, 5, cfg.RAG.RerankTopK)
	require.Equal(t, 300, cfg.RAG.MaxChunkChars)
	require.Equal(t, 1800, cfg.RAG.IndexTTLSecs)
	require.Equal(t, "chromem", cfg.Index.Backend)
	require.Equal(t, "documents", cfg.Index.Collection)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.Equal(t, "ollama", cfg.EmbedLLM.Provider)
	require.Equal(t, "nomic-embed-text", cfg.EmbedLLM.Model)
	require.Equal(t, "llama3", cfg.ChatLLM.Model)
}
