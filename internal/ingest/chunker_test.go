package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/skydocs/skydocs/internal/log"
)

// memStore is an in-memory Store that counts uploads.
type memStore struct {
	objects      map[string][]byte
	contentTypes map[string]string
	uploads      int
	existsErr    error
	uploadErr    error
}

func newMemStore() *memStore {
	return &memStore{
		objects:      map[string][]byte{},
		contentTypes: map[string]string{},
	}
}

func (m *memStore) Exists(_ context.Context, name string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	_, ok := m.objects[name]
	return ok, nil
}

func (m *memStore) Upload(_ context.Context, name string, r io.Reader, contentType string) error {
	if m.uploadErr != nil {
		return m.uploadErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[name] = data
	m.contentTypes[name] = contentType
	m.uploads++
	return nil
}

// fakePaginator produces count pages whose rendered form is a marker
// string; failAt >= 0 makes that page's Render fail.
type fakePaginator struct {
	count  int
	failAt int
}

func (p fakePaginator) Open(_ []byte) (Pages, error) {
	return fakePages{count: p.count, failAt: p.failAt}, nil
}

type fakePages struct {
	count  int
	failAt int
}

func (p fakePages) Count() int { return p.count }

func (p fakePages) Render(i int, w io.Writer) error {
	if p.failAt >= 0 && i == p.failAt {
		return errors.New("render failed")
	}
	_, err := fmt.Fprintf(w, "page-%d", i)
	return err
}

func newTestChunker(t *testing.T, store Store, p Paginator) *Chunker {
	t.Helper()
	c, err := NewChunker(store, p, log.NewNop())
	if err != nil {
		t.Fatalf("NewChunker: %v", err)
	}
	return c
}

func TestPageName(t *testing.T) {
	tests := []struct {
		name string
		page int
		want string
	}{
		{"manual.pdf", 0, "manual-0.pdf"},
		{"manual.pdf", 12, "manual-12.pdf"},
		{"Manual.PDF", 3, "Manual-3.pdf"},
		{"notes.txt", 0, "notes.txt"},
		{"notes.txt", 5, "notes.txt"},
		{"dir/sub/manual.pdf", 1, "manual-1.pdf"},
	}
	for _, tt := range tests {
		if got := PageName(tt.name, tt.page); got != tt.want {
			t.Errorf("PageName(%q, %d) = %q, want %q", tt.name, tt.page, got, tt.want)
		}
	}
}

func TestChunker_SplitsAllPages(t *testing.T) {
	store := newMemStore()
	c := newTestChunker(t, store, fakePaginator{count: 3, failAt: -1})

	err := c.Chunk(context.Background(), strings.NewReader("raw pdf"), "manual.pdf")
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}

	if store.uploads != 3 {
		t.Errorf("uploads = %d, want 3", store.uploads)
	}
	for i := 0; i < 3; i++ {
		name := fmt.Sprintf("manual-%d.pdf", i)
		if got := string(store.objects[name]); got != fmt.Sprintf("page-%d", i) {
			t.Errorf("object %s = %q", name, got)
		}
		if ct := store.contentTypes[name]; ct != "application/pdf" {
			t.Errorf("content type of %s = %q", name, ct)
		}
	}
}

func TestChunker_Idempotence(t *testing.T) {
	store := newMemStore()
	c := newTestChunker(t, store, fakePaginator{count: 4, failAt: -1})
	ctx := context.Background()

	if err := c.Chunk(ctx, strings.NewReader("raw"), "manual.pdf"); err != nil {
		t.Fatalf("first Chunk: %v", err)
	}
	firstUploads := store.uploads

	// Second run over the same document: same final unit set, zero
	// additional uploads.
	if err := c.Chunk(ctx, strings.NewReader("raw"), "manual.pdf"); err != nil {
		t.Fatalf("second Chunk: %v", err)
	}
	if store.uploads != firstUploads {
		t.Errorf("second run performed %d extra uploads", store.uploads-firstUploads)
	}
	if len(store.objects) != 4 {
		t.Errorf("stored %d units, want 4", len(store.objects))
	}
}

func TestChunker_ResumesAfterPartialIngestion(t *testing.T) {
	store := newMemStore()
	// Simulate a previous run that got pages 0 and 1 in before dying.
	store.objects["manual-0.pdf"] = []byte("page-0")
	store.objects["manual-1.pdf"] = []byte("page-1")

	c := newTestChunker(t, store, fakePaginator{count: 4, failAt: -1})
	if err := c.Chunk(context.Background(), strings.NewReader("raw"), "manual.pdf"); err != nil {
		t.Fatalf("Chunk: %v", err)
	}

	if store.uploads != 2 {
		t.Errorf("uploads = %d, want 2 (only the missing pages)", store.uploads)
	}
}

func TestChunker_PageFailureHaltsDocument(t *testing.T) {
	store := newMemStore()
	c := newTestChunker(t, store, fakePaginator{count: 4, failAt: 2})

	err := c.Chunk(context.Background(), strings.NewReader("raw"), "manual.pdf")
	if err == nil {
		t.Fatal("expected error from failing page")
	}
	if !strings.Contains(err.Error(), "page 2") {
		t.Errorf("error does not identify the failing page: %v", err)
	}

	// Pages before the failure remain; the loop does not continue past it.
	if _, ok := store.objects["manual-0.pdf"]; !ok {
		t.Error("page 0 should have been stored before the failure")
	}
	if _, ok := store.objects["manual-1.pdf"]; !ok {
		t.Error("page 1 should have been stored before the failure")
	}
	if _, ok := store.objects["manual-3.pdf"]; ok {
		t.Error("page 3 stored after a mid-document failure")
	}
}

func TestChunker_UploadFailureSurfaces(t *testing.T) {
	store := newMemStore()
	store.uploadErr = errors.New("store unavailable")
	c := newTestChunker(t, store, fakePaginator{count: 2, failAt: -1})

	err := c.Chunk(context.Background(), strings.NewReader("raw"), "manual.pdf")
	if err == nil {
		t.Fatal("expected upload failure to surface")
	}
	if !errors.Is(err, store.uploadErr) {
		t.Errorf("upload error not wrapped: %v", err)
	}
}

func TestChunker_NonPaginatedPassthrough(t *testing.T) {
	store := newMemStore()
	c := newTestChunker(t, store, fakePaginator{count: 99, failAt: -1})
	ctx := context.Background()

	if err := c.Chunk(ctx, strings.NewReader("plain notes"), "notes.txt"); err != nil {
		t.Fatalf("Chunk: %v", err)
	}

	if got := string(store.objects["notes.txt"]); got != "plain notes" {
		t.Errorf("stored content = %q", got)
	}
	if ct := store.contentTypes["notes.txt"]; ct != "text/plain" {
		t.Errorf("content type = %q", ct)
	}

	// Second ingestion skips the existing unit.
	if err := c.Chunk(ctx, strings.NewReader("plain notes"), "notes.txt"); err != nil {
		t.Fatalf("second Chunk: %v", err)
	}
	if store.uploads != 1 {
		t.Errorf("uploads = %d, want 1", store.uploads)
	}
}

// TestChunker_RealPDF runs the whole pipeline over an actual PDF built
// with the same renderer the paginator uses.
func TestChunker_RealPDF(t *testing.T) {
	fixture := buildFixturePDF(t, []string{
		"Section 1: engine oil requirements.",
		"Section 2: oil change intervals.",
		"Section 3: approved lubricants.",
	})

	store := newMemStore()
	c := newTestChunker(t, store, nil) // nil selects PDFPaginator

	err := c.Chunk(context.Background(), bytes.NewReader(fixture), "poh.pdf")
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}

	if len(store.objects) != 3 {
		t.Fatalf("stored %d units, want 3: %v", len(store.objects), storeNames(store))
	}
	for i := 0; i < 3; i++ {
		name := fmt.Sprintf("poh-%d.pdf", i)
		unit, ok := store.objects[name]
		if !ok {
			t.Fatalf("missing unit %s", name)
		}
		if !bytes.HasPrefix(unit, []byte("%PDF")) {
			t.Errorf("unit %s is not a PDF (starts with %q)", name, unit[:min(8, len(unit))])
		}
	}
}

func buildFixturePDF(t *testing.T, pages []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := writeFixturePDF(&buf, pages); err != nil {
		t.Fatalf("building fixture pdf: %v", err)
	}
	return buf.Bytes()
}

func storeNames(m *memStore) []string {
	names := make([]string, 0, len(m.objects))
	for name := range m.objects {
		names = append(names, name)
	}
	return names
}
