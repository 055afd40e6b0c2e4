package ingest

import (
	"bytes"
	"io"
	"testing"

	"github.com/jung-kurt/gofpdf"
)

// writeFixturePDF builds a multi-page PDF with one text block per page.
func writeFixturePDF(w io.Writer, pages []string) error {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetFont("Helvetica", "", 12)
	for _, text := range pages {
		doc.AddPage()
		doc.MultiCell(0, 6, text, "", "L", false)
	}
	return doc.Output(w)
}

func TestPDFPaginator_CountAndRender(t *testing.T) {
	fixture := buildFixturePDF(t, []string{"first page text", "second page text"})

	pages, err := PDFPaginator{}.Open(fixture)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if pages.Count() != 2 {
		t.Fatalf("Count = %d, want 2", pages.Count())
	}

	for i := 0; i < pages.Count(); i++ {
		var buf bytes.Buffer
		if err := pages.Render(i, &buf); err != nil {
			t.Fatalf("Render(%d): %v", i, err)
		}
		if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
			t.Errorf("page %d output is not a PDF", i)
		}

		// The rendered unit is itself a valid single-page PDF.
		unit, err := PDFPaginator{}.Open(buf.Bytes())
		if err != nil {
			t.Fatalf("reparsing rendered page %d: %v", i, err)
		}
		if unit.Count() != 1 {
			t.Errorf("rendered page %d has %d pages, want 1", i, unit.Count())
		}
	}
}

func TestPDFPaginator_RenderOutOfRange(t *testing.T) {
	fixture := buildFixturePDF(t, []string{"only page"})

	pages, err := PDFPaginator{}.Open(fixture)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	var buf bytes.Buffer
	if err := pages.Render(5, &buf); err == nil {
		t.Error("expected error for out-of-range page index")
	}
}

func TestPDFPaginator_InvalidInput(t *testing.T) {
	if _, err := (PDFPaginator{}).Open([]byte("not a pdf at all")); err == nil {
		t.Error("expected error for non-PDF input")
	}
}
