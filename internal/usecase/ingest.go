package usecase

import (
	"fmt"
	"log/slog"

	"pharmarag/internal/adapter/chunker"
	"pharmarag/internal/adapter/fs"
	"pharmarag/internal/adapter/store"
	"pharmarag/internal/domain"
	"pharmarag/internal/port"
)

// IngestUseCase loads leaflet markdown files into the backing store:
// walk, chunk along headings, embed, persist.
type IngestUseCase struct {
	store    *store.BoltStore
	walker   *fs.Walker
	chunker  *chunker.MarkdownChunker
	embedder port.Embedder
	logger   *slog.Logger
}

func NewIngestUseCase(st *store.BoltStore, walker *fs.Walker, chk *chunker.MarkdownChunker, embedder port.Embedder, logger *slog.Logger) *IngestUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestUseCase{
		store:    st,
		walker:   walker,
		chunker:  chk,
		embedder: embedder,
		logger:   logger,
	}
}

// IngestResult summarizes one ingest run.
type IngestResult struct {
	FilesProcessed int
	ChunksCreated  int
	Errors         []string
}

// Ingest processes every matching file under root. progress, if non-nil, is
// called after each file with (processed, total).
func (u *IngestUseCase) Ingest(root string, progress func(processed, total int)) (*IngestResult, error) {
	files, err := u.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	result := &IngestResult{}
	for i, path := range files {
		if err := u.ingestFile(path, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", path, err))
		} else {
			result.FilesProcessed++
		}
		if progress != nil {
			progress(i+1, len(files))
		}
	}

	u.logger.Info("ingest finished",
		"files", result.FilesProcessed,
		"chunks", result.ChunksCreated,
		"errors", len(result.Errors))
	return result, nil
}

func (u *IngestUseCase) ingestFile(path string, result *IngestResult) error {
	content, err := fs.ReadFile(path)
	if err != nil {
		return err
	}

	chunks, err := u.chunker.Chunk(path, content)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	var vectors [][]float32
	if u.embedder != nil {
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = chunkEmbedText(c)
		}
		vectors, err = u.embedder.Embed(texts)
		if err != nil {
			return fmt.Errorf("embedding failed: %w", err)
		}
	}

	if err := u.store.PutChunks(chunks, vectors); err != nil {
		return fmt.Errorf("store write failed: %w", err)
	}
	result.ChunksCreated += len(chunks)
	return nil
}

// chunkEmbedText prefixes the chunk body with its headings so section
// context contributes to the embedding.
func chunkEmbedText(c domain.Chunk) string {
	prefix := c.Name
	if c.Section != "" {
		prefix += " - " + c.Section
	}
	return prefix + "\n" + c.Content
}
