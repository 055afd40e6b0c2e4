package ingest

import (
	"bytes"
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/ledongthuc/pdf"
)

// PDFPaginator opens PDF documents. Page content is extracted as text
// and re-rendered into a fresh single-page PDF, which keeps the stored
// units small and uniform for the indexer.
type PDFPaginator struct{}

// Open parses the document and returns its pages.
func (PDFPaginator) Open(data []byte) (Pages, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parsing pdf: %w", err)
	}
	return &pdfPages{reader: reader}, nil
}

type pdfPages struct {
	reader *pdf.Reader
}

func (p *pdfPages) Count() int {
	return p.reader.NumPage()
}

// Render extracts the text of page i (zero-based) and writes it as a
// standalone single-page PDF.
func (p *pdfPages) Render(i int, w io.Writer) error {
	page := p.reader.Page(i + 1) // reader pages are 1-based
	if page.V.IsNull() {
		return fmt.Errorf("pdf has no page %d", i)
	}

	text, err := page.GetPlainText(nil)
	if err != nil {
		return fmt.Errorf("extracting text of page %d: %w", i, err)
	}

	doc := gofpdf.New("P", "mm", "A4", "")
	doc.AddPage()
	doc.SetFont("Helvetica", "", 11)
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.MultiCell(0, 5, tr(text), "", "L", false)
	if err := doc.Output(w); err != nil {
		return fmt.Errorf("writing page %d: %w", i, err)
	}
	return nil
}
