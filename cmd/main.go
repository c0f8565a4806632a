package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/wirefu/messageai/pkg/apiserver"
	"github.com/wirefu/messageai/pkg/cache"
	"github.com/wirefu/messageai/pkg/chat"
	"github.com/wirefu/messageai/pkg/config"
	"github.com/wirefu/messageai/pkg/docstore"
	"github.com/wirefu/messageai/pkg/llm"
	"github.com/wirefu/messageai/pkg/observability/logging"
	"github.com/wirefu/messageai/pkg/vectordb"
)

func main() {
	var (
		configPath = flag.String("config", "config/config.yaml", "Path to the configuration file")
		port       = flag.Int("port", 0, "Port to listen on (overrides config)")
	)
	flag.Parse()

	// Initialize logging (zap) from environment.
	if _, err := logging.InitLoggerFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
	}

	if _, err := os.Stat(*configPath); os.IsNotExist(err) {
		logging.Fatalf("Config file not found: %s", *configPath)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "" {
		if _, err := logging.InitLogger(logging.Config{
			Level:       cfg.Logging.Level,
			Encoding:    cfg.Logging.Encoding,
			Development: cfg.Logging.Development,
			AddCaller:   true,
		}); err != nil {
			logging.Warnf("Failed to reconfigure logger from config: %v", err)
		}
	}

	store, err := docstore.NewStore(docstore.BackendType(cfg.Cache.BackendType), cfg.Redis)
	if err != nil {
		logging.Fatalf("Failed to initialize document store: %v", err)
	}
	defer store.Close()

	responseCache := cache.New(store, cfg.Cache)

	embedder, err := vectordb.NewOpenAIEmbedder(cfg.OpenAI)
	if err != nil {
		logging.Fatalf("Failed to initialize embedding provider: %v", err)
	}

	searcher, err := vectordb.NewSearcher(vectordb.SearcherType(cfg.VectorDB.BackendType), cfg.Milvus)
	if err != nil {
		logging.Fatalf("Failed to initialize vector search provider: %v", err)
	}
	defer searcher.Close()

	vdb := vectordb.New(embedder, searcher, responseCache, cfg.Cache)

	completer, err := llm.NewOpenAICompleter(cfg.OpenAI)
	if err != nil {
		logging.Fatalf("Failed to initialize LLM provider: %v", err)
	}
	aiService := llm.NewService(completer)

	orchestrator := chat.NewOrchestrator(
		aiService,
		vdb,
		chat.NewHistoryStore(store, responseCache),
		chat.NewMessageStore(store),
		chat.NewUsageRecorder(store),
		responseCache,
		cfg.Chat,
	)

	listenPort := cfg.Server.Port
	if *port != 0 {
		listenPort = *port
	}

	if err := apiserver.Init(orchestrator, cfg, listenPort); err != nil {
		logging.Fatalf("API server exited: %v", err)
	}
}
