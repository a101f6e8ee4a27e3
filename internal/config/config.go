package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"rag-chatbot/internal/models"
)

type ServerConfig struct {
	Addr    string `yaml:"addr"`
	TempDir string `yaml:"temp_dir"`
	DocsDir string `yaml:"docs_dir"`
}

// LLMConfig configures one model endpoint, either the chat model or the
// embedding model.
type LLMConfig struct {
	Provider string `yaml:"provider"` // openai | ollama
	BaseURL  string `yaml:"base_url"`
	Key      string `yaml:"key"`
	Model    string `yaml:"model"`
}

type IndexConfig struct {
	Backend    string `yaml:"backend"` // chromem | postgres
	Path       string `yaml:"path"`
	Collection string `yaml:"collection"`
	DSN        string `yaml:"dsn"`
	VectorSize int    `yaml:"vector_size"`
	Debug      bool   `yaml:"debug"`
}

type RAGConfig struct {
	ChunkWindow    int    `yaml:"chunk_window"`
	ChunkOverlap   int    `yaml:"chunk_overlap"`
	TopK           int    `yaml:"top_k"`
	RerankTopK     int    `yaml:"rerank_top_k"`
	MaxChunkChars  int    `yaml:"max_chunk_chars"`
	IndexTTLSecs   int    `yaml:"index_ttl_secs"`
	RefreshCron    string `yaml:"refresh_cron"`
	EmbedCacheSize int    `yaml:"embed_cache_size"`
}

type Config struct {
	Server   ServerConfig `yaml:"server"`
	EmbedLLM LLMConfig    `yaml:"embed_llm"`
	ChatLLM  LLMConfig    `yaml:"chat_llm"`
	Index    IndexConfig  `yaml:"index"`
	RAG      RAGConfig    `yaml:"rag"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns a config with every field at its default value.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.TempDir == "" {
		cfg.Server.TempDir = "./temp"
	}
	if cfg.Server.DocsDir == "" {
		cfg.Server.DocsDir = "./docs"
	}
	if cfg.EmbedLLM.Provider == "" {
		cfg.EmbedLLM.Provider = "ollama"
	}
	if cfg.EmbedLLM.Model == "" {
		cfg.EmbedLLM.Model = "nomic-embed-text"
	}
	if cfg.ChatLLM.Provider == "" {
		cfg.ChatLLM.Provider = "ollama"
	}
	if cfg.ChatLLM.Model == "" {
		cfg.ChatLLM.Model = "llama3"
	}
	if cfg.Index.Backend == "" {
		cfg.Index.Backend = "chromem"
	}
	if cfg.Index.Path == "" {
		cfg.Index.Path = "./vector_store"
	}
	if cfg.Index.Collection == "" {
		cfg.Index.Collection = models.DefaultCollectionName
	}
	if cfg.Index.VectorSize == 0 {
		cfg.Index.VectorSize = 768
	}
	if cfg.RAG.ChunkWindow == 0 {
		cfg.RAG.ChunkWindow = models.DefaultChunkWindow
	}
	if cfg.RAG.ChunkOverlap == 0 {
		cfg.RAG.ChunkOverlap = models.DefaultChunkOverlap
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = models.DefaultTopK
	}
	if cfg.RAG.RerankTopK == 0 {
		cfg.RAG.RerankTopK = models.DefaultRerankTopK
	}
	if cfg.RAG.MaxChunkChars == 0 {
		cfg.RAG.MaxChunkChars = models.DefaultMaxChunkChars
	}
	if cfg.RAG.IndexTTLSecs == 0 {
		cfg.RAG.IndexTTLSecs = models.DefaultIndexTTLSecs
	}
	if cfg.RAG.EmbedCacheSize == 0 {
		cfg.RAG.EmbedCacheSize = 256
	}
}
