package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/skydocs/skydocs/internal/config"
	"github.com/skydocs/skydocs/internal/ingest"
	"github.com/skydocs/skydocs/internal/storage"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [files...]",
	Short: "Split documents into page files and store them",
	Long: `ingest splits each PDF into single-page files named {base}-{page}.pdf
and stores them in the content directory. Pages already stored are
skipped, so a failed run can simply be repeated. Non-PDF files are
stored whole under their own name.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := newLogger(cfg)

	store, err := storage.NewFSStore(cfg.ContentDir, logger)
	if err != nil {
		return fmt.Errorf("opening content store: %w", err)
	}

	chunker, err := ingest.NewChunker(store, nil, logger)
	if err != nil {
		return fmt.Errorf("creating chunker: %w", err)
	}

	ctx := context.Background()
	for _, path := range args {
		if err := ingestFile(ctx, chunker, path); err != nil {
			return err
		}
		fmt.Printf("ingested %s\n", path)
	}

	return nil
}

func ingestFile(ctx context.Context, chunker *ingest.Chunker, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	if err := chunker.Chunk(ctx, f, filepath.Base(path)); err != nil {
		return fmt.Errorf("ingesting %s: %w", path, err)
	}
	return nil
}
