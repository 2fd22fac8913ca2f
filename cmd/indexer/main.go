package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ragdemo/docchat/internal/config"
	"github.com/ragdemo/docchat/internal/rag/embedding/factory"
	"github.com/ragdemo/docchat/internal/rag/ingest"
	"github.com/ragdemo/docchat/internal/rag/vectorDB"
	"github.com/ragdemo/docchat/internal/rag/vectorDB/boltDB"
	"github.com/ragdemo/docchat/internal/rag/vectorDB/qdrantDB"
	"github.com/ragdemo/docchat/pkg/logger_i"
)

var settings config.Settings

var rootCmd = &cobra.Command{
	Use:   "indexer",
	Short: "Index a folder of documents into the vector store",
	Long: `Rebuilds the vector store from the documents folder.

Supported files: .pdf (one record per page), .txt, .md.
The previous index is dropped before the new one is written.

Environment variables:
  DOCS_PATH             documents folder (default: ../documents)
  VECTOR_STORE_PATH     bolt store directory (default: ./vectorstore)
  VECTOR_STORE_BACKEND  bolt | qdrant (default: bolt)
  EMBEDDING_PROVIDER    ollama | gemini | openai (default: ollama)
  EMBEDDING_MODEL       embedding model name
  OLLAMA_URL            ollama base url (default: http://localhost:11434)`,
	SilenceUsage: true,
	RunE:         runIndex,
}

func init() {
	settings = config.Load()

	flags := rootCmd.Flags()
	flags.StringVar(&settings.DocsPath, "docs", settings.DocsPath, "documents folder")
	flags.StringVar(&settings.VectorStorePath, "store", settings.VectorStorePath, "bolt vector store directory")
	flags.StringVar(&settings.VectorStoreBackend, "backend", settings.VectorStoreBackend, "vector store backend (bolt|qdrant)")
	flags.IntVar(&settings.ChunkSize, "chunk-size", settings.ChunkSize, "chunk size in characters, 0 disables splitting")
	flags.IntVar(&settings.ChunkOverlap, "chunk-overlap", settings.ChunkOverlap, "overlap between consecutive chunks")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runIndex(cmd *cobra.Command, args []string) error {
	logger_i.Init(settings.LogFormat, settings.LogLevel)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	embedder, err := factory.NewEmbedder(ctx, settings)
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}

	fmt.Printf("Indexing %s with %s...\n", settings.DocsPath, embedder.ModelID())
	report, err := ingest.Run(ctx, ingest.Options{
		DocsPath:     settings.DocsPath,
		ChunkSize:    settings.ChunkSize,
		ChunkOverlap: settings.ChunkOverlap,
		OpenStore:    openStore,
		Embedder:     embedder,
	})
	printReport(report)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	fmt.Println("Index complete!")
	return nil
}

// openStore runs only after the documents loaded, so a bad docs folder
// leaves the store untouched.
func openStore(ctx context.Context) (vectorDB.DataProcessor, error) {
	if settings.VectorStoreBackend == "qdrant" {
		holder, err := qdrantDB.NewQdrantStore(ctx, settings.QdrantHost, settings.QdrantPort, settings.QdrantCollection)
		if err != nil {
			return nil, err
		}
		return holder, nil
	}
	bolt, err := boltDB.Open(settings.VectorStorePath, false)
	if err != nil {
		return nil, err
	}
	return bolt, nil
}

func printReport(report ingest.Report) {
	fmt.Printf("  Files scanned: %d\n", report.Scanned)
	fmt.Printf("  Documents loaded: %d\n", report.Loaded)
	fmt.Printf("  Chunks: %d\n", report.Chunks)
	if report.Duration > 0 {
		fmt.Printf("  Duration: %s\n", report.Duration.Round(time.Millisecond))
	}
	for _, path := range report.Skipped {
		fmt.Printf("  skipped: %s\n", path)
	}
	for _, failed := range report.Failed {
		fmt.Printf("  failed: %s: %s\n", failed.Path, failed.Reason)
	}
}
