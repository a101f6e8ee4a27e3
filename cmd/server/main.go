package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"rag-chatbot/internal/chromemdb"
	"rag-chatbot/internal/chunker"
	"rag-chatbot/internal/config"
	"rag-chatbot/internal/db"
	"rag-chatbot/internal/embedding"
	"rag-chatbot/internal/handler"
	"rag-chatbot/internal/helper"
	"rag-chatbot/internal/llmservice"
	"rag-chatbot/internal/models"
	"rag-chatbot/internal/parser"
	"rag-chatbot/internal/prompt"
	"rag-chatbot/internal/rag"
	"rag-chatbot/internal/retrieval"
	"rag-chatbot/internal/schedule"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", configFilePath, "Path to the config file")
	forceIngest := flag.Bool("ingest", false, "Force re-ingestion of the docs directory before serving")
	autoIngest := flag.Bool("auto-ingest", false, "Ingest the docs directory only when the index is empty")
	oneShotFiles := flag.String("file", "", "Comma-separated files for a one-shot query (with -query)")
	oneShotQuery := flag.String("query", "", "Query to answer once and exit")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Fatal().Err(err).Msg("Error loading config")
		}
		cfg = config.Default()
	}
	log.Debug().Interface("config", cfg).Msg("Loaded config")

	deps, closer, err := buildDeps(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error building pipeline components")
	}
	if closer != nil {
		defer closer()
	}

	if *oneShotQuery != "" {
		runOneShot(context.Background(), deps, *oneShotFiles, *oneShotQuery)
		return
	}

	ttl := time.Duration(cfg.RAG.IndexTTLSecs) * time.Second
	manager := rag.NewManager(deps, ttl)

	if *forceIngest || *autoIngest {
		startupIngest(context.Background(), cfg, deps, manager, *forceIngest)
	}

	scheduler := schedule.NewCronScheduler()
	if cfg.RAG.RefreshCron != "" {
		if err := scheduler.AddJob(schedule.NewRefreshJob(manager), cfg.RAG.RefreshCron); err != nil {
			log.Fatal().Err(err).Msg("Error scheduling refresh job")
		}
		scheduler.Start(context.Background())
		defer scheduler.Stop()
	}

	router := gin.Default()
	handler.RegisterRoutes(router.Group("/api"), handler.RouterDeps{
		Chat:   handler.NewChatHandler(manager),
		Ingest: handler.NewIngestHandler(manager, cfg.Server.TempDir),
	})

	log.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
	if err := router.Run(cfg.Server.Addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func buildDeps(ctx context.Context, cfg *config.Config) (rag.Deps, func(), error) {
	tok, err := chunker.NewTiktokenizer()
	if err != nil {
		return rag.Deps{}, nil, err
	}
	chk, err := chunker.New(tok, cfg.RAG.ChunkWindow, cfg.RAG.ChunkOverlap)
	if err != nil {
		return rag.Deps{}, nil, err
	}

	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		return rag.Deps{}, nil, err
	}
	embedSvc, err := embedding.NewService(embedder, cfg.RAG.EmbedCacheSize)
	if err != nil {
		return rag.Deps{}, nil, err
	}

	index, closer, err := buildIndex(ctx, cfg)
	if err != nil {
		return rag.Deps{}, nil, err
	}

	generator, err := llmservice.NewGenerator(&cfg.ChatLLM)
	if err != nil {
		return rag.Deps{}, nil, err
	}

	return rag.Deps{
		Loader:    parser.LoadFiles,
		Chunker:   chk,
		Embedder:  embedSvc,
		Index:     index,
		Retriever: retrieval.New(index, embedSvc, cfg.RAG.TopK, cfg.RAG.RerankTopK),
		Prompts:   prompt.NewBuilder(cfg.RAG.MaxChunkChars),
		Generator: generator,
	}, closer, nil
}

func buildIndex(ctx context.Context, cfg *config.Config) (models.VectorIndex, func(), error) {
	switch cfg.Index.Backend {
	case "chromem":
		if err := helper.CreateFolder(cfg.Index.Path); err != nil {
			return nil, nil, err
		}
		index, err := chromemdb.NewIndex(cfg.Index.Path, cfg.Index.Collection)
		if err != nil {
			return nil, nil, err
		}
		return index, nil, nil
	case "postgres":
		sqldb, err := db.Connect(&cfg.Index)
		if err != nil {
			return nil, nil, err
		}
		index, err := db.NewIndex(ctx, sqldb, &cfg.Index)
		if err != nil {
			return nil, nil, err
		}
		return index, func() { _ = index.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown index backend: %s", cfg.Index.Backend)
	}
}

func startupIngest(ctx context.Context, cfg *config.Config, deps rag.Deps, manager *rag.Manager, force bool) {
	if !force {
		empty, err := deps.Index.IsEmpty(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Error checking index")
		}
		if !empty {
			log.Info().Msg("index already populated, skipping startup ingestion")
			return
		}
	}

	paths, err := helper.ListDocuments(cfg.Server.DocsDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.Server.DocsDir).Msg("Error listing documents")
	}
	if len(paths) == 0 {
		log.Warn().Str("dir", cfg.Server.DocsDir).Msg("no documents to ingest")
		return
	}
	if err := manager.Ingest(ctx, paths); err != nil {
		log.Fatal().Err(err).Msg("Error ingesting documents")
	}
}

// runOneShot builds an isolated pipeline, ingests the given files and
// answers a single query. It shares no state with the long-lived manager.
func runOneShot(ctx context.Context, deps rag.Deps, files, query string) {
	var paths []string
	for _, f := range strings.Split(files, ",") {
		if f = strings.TrimSpace(f); f != "" {
			paths = append(paths, f)
		}
	}

	pipeline := rag.NewPipeline(deps, paths)
	if len(paths) > 0 {
		if err := pipeline.Ingest(ctx); err != nil {
			log.Fatal().Err(err).Msg("Error ingesting documents")
		}
	}

	conv := models.Conversation{{Role: models.RoleUser, Content: query}}
	resp, err := pipeline.Query(ctx, conv)
	if err != nil {
		log.Fatal().Err(err).Msg("Error querying")
	}

	fmt.Printf("%s\n\n%s\n", query, resp.Answer)
}
