// Package pdfdoc draws a paginated layout onto a PDF using gofpdf core fonts.
package pdfdoc

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/dgallion1/docforge/internal/layout"
)

const (
	fontFamily = "Helvetica"
	ptToMM     = 25.4 / 72
	lineWidth  = 0.3
)

// fixedDate is stamped into the document info so identical input yields
// identical bytes.
var fixedDate = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func newPDF() *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(layout.Margin, layout.TopMargin, layout.Margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreationDate(fixedDate)
	pdf.SetCatalogSort(true)
	pdf.SetCreator("docforge", false)
	return pdf
}

// Measurer measures strings with the same core-font metrics Write draws
// with. It is safe for concurrent use.
type Measurer struct {
	mu  sync.Mutex
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

// NewMeasurer returns a Measurer backed by an empty gofpdf document.
func NewMeasurer() *Measurer {
	pdf := newPDF()
	return &Measurer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

// TextWidth implements layout.Measurer.
func (m *Measurer) TextWidth(s string, f layout.Font) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pdf.SetFont(fontFamily, f.Style, f.Size)
	return m.pdf.GetStringWidth(m.tr(s))
}

// Write draws every page of r and writes the PDF to w.
func Write(w io.Writer, r *layout.Result) error {
	pdf := newPDF()
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(r.Title, true)
	if r.Header.Name != "" {
		pdf.SetAuthor(r.Header.Name, true)
	}

	for _, page := range r.Pages {
		pdf.AddPage()
		for _, e := range page.Elements {
			draw(pdf, tr, e)
		}
	}
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("draw pdf: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// Bytes is Write into memory.
func Bytes(r *layout.Result) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func draw(pdf *gofpdf.Fpdf, tr func(string) string, e layout.PageElement) {
	switch e.Kind {
	case layout.ElemText, layout.ElemGlyph:
		pdf.SetFont(fontFamily, e.Font.Style, e.Font.Size)
		pdf.SetTextColor(e.Color.R, e.Color.G, e.Color.B)
		txt := tr(e.Text)
		x := e.X
		if e.Align == "C" {
			x -= pdf.GetStringWidth(txt) / 2
		}
		pdf.Text(x, baseline(e), txt)
	case layout.ElemRect:
		style := "D"
		if e.Fill {
			pdf.SetFillColor(e.Color.R, e.Color.G, e.Color.B)
			style = "F"
		} else {
			pdf.SetDrawColor(e.Color.R, e.Color.G, e.Color.B)
		}
		pdf.Rect(e.X, e.Y, e.W, e.H, style)
	case layout.ElemLine:
		pdf.SetDrawColor(e.Color.R, e.Color.G, e.Color.B)
		pdf.SetLineWidth(lineWidth)
		pdf.Line(e.X, e.Y, e.X2, e.Y2)
	}
}

// baseline centres the glyph cap height in the element's line box.
func baseline(e layout.PageElement) float64 {
	return e.Y + e.H/2 + e.Font.Size*ptToMM*0.35
}

// PageCount reads back the number of pages in a rendered PDF.
func PageCount(data []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	n, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return 0, fmt.Errorf("count pdf pages: %w", err)
	}
	return n, nil
}
