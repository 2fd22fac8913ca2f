// @title           docchat RAG API
// @version         1.0
// @description     Answers questions about a folder of local documents by streaming a local model's answer.

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8000
// @BasePath  /
// @schemes   http
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/ragdemo/docchat/internal/config"
	"github.com/ragdemo/docchat/internal/customHttpClient"
	"github.com/ragdemo/docchat/internal/data/store"
	"github.com/ragdemo/docchat/internal/handlers"
	"github.com/ragdemo/docchat/internal/middleware"
	"github.com/ragdemo/docchat/internal/rag"
	"github.com/ragdemo/docchat/internal/rag/embedding"
	"github.com/ragdemo/docchat/internal/rag/embedding/factory"
	"github.com/ragdemo/docchat/internal/rag/llm/ollama"
	"github.com/ragdemo/docchat/internal/rag/vectorDB"
	"github.com/ragdemo/docchat/internal/rag/vectorDB/boltDB"
	"github.com/ragdemo/docchat/internal/rag/vectorDB/qdrantDB"
	"github.com/ragdemo/docchat/internal/server"
	"github.com/ragdemo/docchat/pkg/logger_i"
)

func main() {
	settings := config.Load()

	var listenAddr string
	flag.StringVar(&listenAddr, "listen-addr", settings.ListenAddr, "server listen address")
	flag.Parse()

	logger_i.Init(settings.LogFormat, settings.LogLevel)
	logger := logger_i.NewLogger("main")

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	embedder, err := factory.NewEmbedder(serviceContext, settings)
	if err != nil {
		logger.Error("Embedding service failed to initialize", "error", err)
		os.Exit(1)
	}
	embedder = embedding.WithCache(embedder, store.GetEmbeddingCache(serviceContext, settings.EmbeddingCache, settings.RedisAddr))

	vectorStore, err := openVectorStore(serviceContext, settings)
	if err != nil {
		logger.Error("Vector store failed to open", "backend", settings.VectorStoreBackend, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := vectorStore.Close(); err != nil {
			logger.Error("Closing vector store", "error", err)
		}
	}()

	manifest, err := vectorDB.CheckCompatibility(serviceContext, vectorStore, embedder.ModelID())
	switch {
	case errors.Is(err, vectorDB.ErrManifestMissing):
		logger.Warn("Vector store has no manifest, run the indexer first", "path", settings.VectorStorePath)
	case err != nil:
		logger.Error("Vector store is not usable with this embedding model", "error", err)
		os.Exit(1)
	default:
		logger.Info("Vector store ready", "model", manifest.EmbeddingModel, "chunks", manifest.ChunkCount, "indexedAt", manifest.IndexedAt)
	}

	llmProvider, err := ollama.NewOllamaProvider(settings.OllamaURL, settings.LLMModel, customHttpClient.GetClient())
	if err != nil {
		logger.Error("LLM provider failed to initialize", "error", err)
		os.Exit(1)
	}

	ragService := rag.NewService(vectorStore, llmProvider, embedder)
	requestHandler := handlers.NewRequestHandler(ragService)
	chain := middleware.NewChain(settings.RateLimitPerSecond, config.BURST_RATE_LIMIT_PER_SECOND)
	router := server.NewRouter(requestHandler, chain, settings.CORSOrigin)

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	srv := server.New(listenAddr, router)
	go srv.ShutDownHandler(server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		CloseServices:    closeExternalServices,
	})
	go srv.Start()

	<-stopExecution
	logger.Info("Server stopped")
}

func openVectorStore(ctx context.Context, s config.Settings) (vectorDB.DataProcessor, error) {
	if s.VectorStoreBackend == "qdrant" {
		holder, err := qdrantDB.NewQdrantStore(ctx, s.QdrantHost, s.QdrantPort, s.QdrantCollection)
		if err != nil {
			return nil, err
		}
		return holder, nil
	}
	bolt, err := boltDB.OpenForServing(s.VectorStorePath)
	if err != nil {
		return nil, err
	}
	return bolt, nil
}
