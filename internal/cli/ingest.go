package cli

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"pharmarag/internal/adapter/chunker"
	"pharmarag/internal/adapter/fs"
	"pharmarag/internal/usecase"
)

var (
	ingestClear    bool
	ingestMaxChars int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Load leaflet markdown files into the store",
	Long: `Walk a directory for leaflet markdown files, chunk them along headings,
embed the chunks and persist them in the backing store.

Examples:
  pharmarag ingest ./leaflets
  pharmarag ingest --clear ./leaflets   # drop existing chunks first`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().BoolVar(&ingestClear, "clear", false, "clear the store before ingesting")
	ingestCmd.Flags().IntVar(&ingestMaxChars, "max-chars", 0, "maximum chunk length in characters")
}

func runIngest(cmd *cobra.Command, args []string) error {
	dir := rootDir
	if len(args) > 0 {
		dir = args[0]
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if ingestClear {
		if err := st.Clear(); err != nil {
			return fmt.Errorf("failed to clear store: %w", err)
		}
	}

	embedder, err := newEmbedder()
	if err != nil {
		return err
	}

	walker := fs.NewWalker(cfg.Ingest.Includes, cfg.Ingest.Excludes)
	ingest := usecase.NewIngestUseCase(st, walker, chunker.NewMarkdownChunker(ingestMaxChars), embedder, logger)

	var bar *progressbar.ProgressBar
	result, err := ingest.Ingest(dir, func(processed, total int) {
		if bar == nil {
			bar = progressbar.Default(int64(total), "ingesting")
		}
		bar.Set(processed)
	})
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	if bar != nil {
		bar.Finish()
	}

	fmt.Printf("\nIngested %d files, %d chunks\n", result.FilesProcessed, result.ChunksCreated)
	if len(result.Errors) > 0 {
		fmt.Printf("%d files failed:\n", len(result.Errors))
		for _, msg := range result.Errors {
			fmt.Printf("  - %s\n", msg)
		}
	}

	count, err := st.Count()
	if err == nil {
		fmt.Printf("Store now holds %d chunks\n", count)
	}
	return nil
}
