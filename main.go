// Command paperbase is a local PDF library with semantic search.
// It wires the driven adapters (filesystem document store, SQLite
// vector index, PDF extraction, embedding and LLM backends) into the
// core services and hands them to the CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/corvid-labs/paperbase/internal/adapters/driven/config/file"
	"github.com/corvid-labs/paperbase/internal/adapters/driven/embedding/ollama"
	"github.com/corvid-labs/paperbase/internal/adapters/driven/embedding/openai"
	extraction "github.com/corvid-labs/paperbase/internal/adapters/driven/extraction/pdfcpu"
	llmollama "github.com/corvid-labs/paperbase/internal/adapters/driven/llm/ollama"
	"github.com/corvid-labs/paperbase/internal/adapters/driven/storage/fsstore"
	"github.com/corvid-labs/paperbase/internal/adapters/driven/storage/sqlite"
	"github.com/corvid-labs/paperbase/internal/adapters/driving/cli"
	"github.com/corvid-labs/paperbase/internal/chunker"
	"github.com/corvid-labs/paperbase/internal/core/ports/driven"
	"github.com/corvid-labs/paperbase/internal/core/services"
	"github.com/corvid-labs/paperbase/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}

	extractor := extraction.New()

	docStore, err := fsstore.NewStore(cfg.GetString("storage.upload_dir"), extractor)
	if err != nil {
		return fmt.Errorf("open document store: %w", err)
	}

	index, err := sqlite.NewStore(cfg.GetString("storage.data_dir"))
	if err != nil {
		return fmt.Errorf("open vector index: %w", err)
	}
	defer index.Close()

	embedder := buildEmbedder(cfg)
	llm := buildLLM(cfg)
	if llm != nil {
		defer llm.Close()
	}

	splitter := chunker.New(
		chunker.WithChunkSize(cfg.GetInt("chunker.size")),
		chunker.WithOverlap(cfg.GetInt("chunker.overlap")),
	)

	reconciler := services.NewReconciler(docStore, index)
	library := services.NewLibraryService(docStore, index, reconciler)
	trainer := services.NewTrainingService(docStore, extractor, embedder, index, splitter)
	searcher := services.NewSearcher(embedder, index, llm)

	// Watch the upload directory for out-of-band changes for as long as
	// the process lives; reconciliation state is advisory either way.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if changes, err := docStore.Watch(ctx); err == nil {
		go reconciler.Run(ctx, changes)
	} else {
		logger.Warn("Upload watcher unavailable: %v", err)
	}

	cli.SetServices(library, trainer, searcher)
	return cli.Execute()
}

// buildEmbedder constructs the configured embedding backend. Returns
// nil when OpenAI is selected without an API key; training and search
// report the missing service themselves.
func buildEmbedder(cfg driven.ConfigStore) driven.EmbeddingService {
	switch cfg.GetString("embedding.provider") {
	case "openai":
		service, err := openai.NewEmbeddingService(openai.Config{
			APIKey:     cfg.GetString("embedding.api_key"),
			BaseURL:    cfg.GetString("embedding.base_url"),
			Model:      cfg.GetString("embedding.model"),
			Dimensions: cfg.GetInt("embedding.dimensions"),
		})
		if err != nil {
			logger.Warn("OpenAI embedding unavailable: %v", err)
			return nil
		}
		return service
	default:
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL:    cfg.GetString("embedding.base_url"),
			Model:      cfg.GetString("embedding.model"),
			Dimensions: cfg.GetInt("embedding.dimensions"),
		})
	}
}

// buildLLM constructs the answer-path LLM, or nil when disabled.
// Search works without it.
func buildLLM(cfg driven.ConfigStore) driven.LLMService {
	switch cfg.GetString("llm.provider") {
	case "none":
		return nil
	default:
		return llmollama.NewLLMService(llmollama.LLMConfig{
			BaseURL: cfg.GetString("llm.base_url"),
			Model:   cfg.GetString("llm.model"),
		})
	}
}
