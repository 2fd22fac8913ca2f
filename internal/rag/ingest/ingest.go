package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ragdemo/docchat/internal/domain/commonModels"
	"github.com/ragdemo/docchat/internal/rag/embedding"
	"github.com/ragdemo/docchat/internal/rag/vectorDB"
	"github.com/ragdemo/docchat/pkg/logger_i"
)

var (
	ErrDocsDirMissing = errors.New("documents directory does not exist")
	ErrNoDocuments    = errors.New("no documents could be loaded")
)

type rawPage struct {
	Number  int    `json:"number"`
	Content string `json:"content"`
}

type loaderFunc func(path string) ([]rawPage, error)

// loaders maps each supported type to its extractor; tests swap entries.
var loaders = map[commonModels.DocType]loaderFunc{
	commonModels.PDF: extractPDF,
	commonModels.TXT: extractPlainText,
	commonModels.MD:  extractMarkdown,
}

var logger = logger_i.NewLogger("Document Ingestion")

type FailedDoc struct {
	Path   string
	Reason string
}

type Options struct {
	DocsPath     string
	ChunkSize    int
	ChunkOverlap int
	Store        vectorDB.DataProcessor
	// OpenStore is used when Store is nil. It runs only once documents are
	// loaded and chunked, and Run closes what it opened.
	OpenStore func(ctx context.Context) (vectorDB.DataProcessor, error)
	Embedder  embedding.Embedder
}

type Report struct {
	Scanned  int
	Skipped  []string
	Loaded   int
	Failed   []FailedDoc
	Chunks   int
	Duration time.Duration
}

// ScanDirectory lists the supported files directly inside dir. Anything else
// is returned in skipped and never reaches a loader.
func ScanDirectory(dir string) (files []string, skipped []string, err error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", ErrDocsDirMissing, dir)
		}
		return nil, nil, err
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("%w: %s is not a directory", ErrDocsDirMissing, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("reading documents directory: %w", err)
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() || GetDocType(path) == commonModels.ERR {
			logger.Info("File ignored", "path", path, "extension", filepath.Ext(path))
			skipped = append(skipped, path)
			continue
		}
		files = append(files, path)
	}
	return files, skipped, nil
}

// LoadDocument runs the loader matching the file extension.
func LoadDocument(path string) ([]commonModels.Document, error) {
	docType := GetDocType(path)
	if docType == commonModels.ERR {
		return nil, fmt.Errorf("unsupported file extension %q", filepath.Ext(path))
	}

	pages, err := extractText(path, docType)
	if err != nil {
		return nil, err
	}

	docs := make([]commonModels.Document, 0, len(pages))
	for _, page := range pages {
		meta := map[string]any{commonModels.MetaSource: path}
		if docType == commonModels.PDF {
			meta[commonModels.MetaPage] = page.Number - 1
		}
		docs = append(docs, commonModels.Document{
			Content:     page.Content,
			Metadata:    meta,
			ContentType: docType,
		})
	}
	return docs, nil
}

// LoadAll loads each file independently; a failing file is logged and
// reported but does not stop the others.
func LoadAll(paths []string) ([]commonModels.Document, []FailedDoc) {
	var docs []commonModels.Document
	var failed []FailedDoc
	for _, path := range paths {
		loaded, err := LoadDocument(path)
		if err != nil {
			logger.Error("Error loading file", "path", path, "error", err)
			failed = append(failed, FailedDoc{Path: path, Reason: err.Error()})
			continue
		}
		docs = append(docs, loaded...)
	}
	return docs, failed
}

// Run indexes the documents directory into the store, replacing whatever
// it held before. Nothing is opened or written unless documents loaded.
func Run(ctx context.Context, opts Options) (Report, error) {
	start := time.Now()
	report := Report{}

	files, skipped, err := ScanDirectory(opts.DocsPath)
	if err != nil {
		return report, err
	}
	report.Scanned = len(files) + len(skipped)
	report.Skipped = skipped

	docs, failed := LoadAll(files)
	report.Loaded = len(docs)
	report.Failed = failed
	logger.Info("Documents loaded", "count", len(docs), "failed", len(failed))
	if len(docs) == 0 {
		return report, ErrNoDocuments
	}

	chunks := PrepareChunks(docs, opts.ChunkSize, opts.ChunkOverlap)
	if len(chunks) == 0 {
		return report, ErrNoDocuments
	}
	report.Chunks = len(chunks)
	logger.Debug("Prepared chunks", "count", len(chunks))

	store := opts.Store
	if store == nil {
		if opts.OpenStore == nil {
			return report, errors.New("no vector store configured")
		}
		opened, err := opts.OpenStore(ctx)
		if err != nil {
			return report, fmt.Errorf("opening vector store: %w", err)
		}
		defer func() {
			if err := opened.Close(); err != nil {
				logger.Error("Closing vector store", "error", err)
			}
		}()
		store = opened
	}

	if err := BatchIngest(ctx, chunks, store, opts.Embedder); err != nil {
		return report, err
	}

	report.Duration = time.Since(start)
	return report, nil
}
