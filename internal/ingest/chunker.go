// Package ingest splits multi-page source documents into one stored
// unit per page, ready for the search provider's indexer. Re-running
// ingestion over the same document is safe: derived names are a
// deterministic function of (document name, page index) and units that
// already exist are never regenerated.
package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/skydocs/skydocs/internal/log"
)

// Store is the destination object store as the chunker consumes it.
// *storage.FSStore satisfies it.
type Store interface {
	Exists(ctx context.Context, name string) (bool, error)
	Upload(ctx context.Context, name string, r io.Reader, contentType string) error
}

// Pages exposes the pages of an opened document. Render writes page i
// as a standalone single-page document.
type Pages interface {
	Count() int
	Render(i int, w io.Writer) error
}

// Paginator opens a raw document into its pages.
type Paginator interface {
	Open(data []byte) (Pages, error)
}

// Chunker splits documents into page units and persists them.
type Chunker struct {
	store     Store
	paginator Paginator
	logger    log.Logger
}

// NewChunker creates a chunker writing to store. A nil paginator
// selects the PDF implementation.
func NewChunker(store Store, paginator Paginator, logger log.Logger) (*Chunker, error) {
	if store == nil {
		return nil, errors.New("ingest: store is required")
	}
	if paginator == nil {
		paginator = PDFPaginator{}
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Chunker{store: store, paginator: paginator, logger: logger}, nil
}

// Chunk ingests one document. Paginated documents (.pdf) are split into
// one unit per page; anything else is stored whole under its own name.
//
// A failing page surfaces immediately and halts the document there:
// pages stored before the failure stay, and the existence checks let a
// retry resume exactly where this run stopped.
func (c *Chunker) Chunk(ctx context.Context, r io.Reader, name string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading document %q: %w", name, err)
	}

	if !isPDF(name) {
		return c.storeWhole(ctx, data, name)
	}

	pages, err := c.paginator.Open(data)
	if err != nil {
		return fmt.Errorf("opening document %q: %w", name, err)
	}

	count := pages.Count()
	stored := 0
	for i := 0; i < count; i++ {
		derived := PageName(name, i)

		exists, err := c.store.Exists(ctx, derived)
		if err != nil {
			return fmt.Errorf("checking page unit %q: %w", derived, err)
		}
		if exists {
			continue
		}

		if err := c.storePage(ctx, pages, i, derived); err != nil {
			return fmt.Errorf("document %q page %d: %w", name, i, err)
		}
		stored++
	}

	c.logger.Info("document chunked",
		"name", name,
		"pages", count,
		"stored", stored,
		"skipped", count-stored)
	return nil
}

// storePage renders page i to a temp file and uploads it. The temp
// file is released on every exit path, upload failure included.
func (c *Chunker) storePage(ctx context.Context, pages Pages, i int, derived string) error {
	tmp, err := os.CreateTemp("", "skydocs-page-*.pdf")
	if err != nil {
		return fmt.Errorf("creating temp page file: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if err := pages.Render(i, tmp); err != nil {
		return fmt.Errorf("extracting page: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewinding temp page file: %w", err)
	}
	if err := c.store.Upload(ctx, derived, tmp, "application/pdf"); err != nil {
		return fmt.Errorf("uploading page unit: %w", err)
	}
	return nil
}

// storeWhole persists a non-paginated document unchanged, if absent.
func (c *Chunker) storeWhole(ctx context.Context, data []byte, name string) error {
	derived := PageName(name, 0)

	exists, err := c.store.Exists(ctx, derived)
	if err != nil {
		return fmt.Errorf("checking unit %q: %w", derived, err)
	}
	if exists {
		c.logger.Debug("unit already stored", "name", derived)
		return nil
	}

	if err := c.store.Upload(ctx, derived, bytes.NewReader(data), contentTypeFor(name)); err != nil {
		return fmt.Errorf("uploading %q: %w", derived, err)
	}
	c.logger.Info("document stored", "name", derived)
	return nil
}

// PageName derives the stored unit name for page i of the named
// document. Deterministic, so re-ingestion maps onto the same units:
// "manual.pdf" page 3 is always "manual-3.pdf". Non-paginated formats
// keep their file name unchanged.
func PageName(name string, i int) string {
	base := filepath.Base(name)
	if !isPDF(base) {
		return base
	}
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return fmt.Sprintf("%s-%d.pdf", stem, i)
}

func isPDF(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

// contentTypeFor maps a file extension to the content-type tag stored
// with the unit.
func contentTypeFor(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
