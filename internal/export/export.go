// Package export runs the full classification and rendering pipeline and
// packages the result as a downloadable file.
package export

import (
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"golang.org/x/net/html"

	"github.com/dgallion1/docforge/internal/classify"
	"github.com/dgallion1/docforge/internal/doctree"
	"github.com/dgallion1/docforge/internal/layout"
	"github.com/dgallion1/docforge/internal/pdfdoc"
	"github.com/dgallion1/docforge/internal/screen"
	"github.com/dgallion1/docforge/internal/structure"
)

// Format is the artifact file format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatHTML Format = "html"
)

// ParseFormat maps a request value to a Format. Empty means PDF.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pdf":
		return FormatPDF, nil
	case "html", "htm":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("unknown format %q", s)
}

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	if f == FormatHTML {
		return "text/html; charset=utf-8"
	}
	return "application/pdf"
}

// DateLayout is how the injected cover-letter date is written.
const DateLayout = "January 2, 2006"

// Options control one Render call.
type Options struct {
	Format Format
	// Today dates cover letters that have none. Zero means now.
	Today time.Time
	// Measurer overrides the PDF font metrics, mostly for tests.
	Measurer layout.Measurer
}

// Artifact is a rendered document ready for download.
type Artifact struct {
	Kind        doctree.DocKind `json:"kind"`
	Format      Format          `json:"format"`
	Filename    string          `json:"filename"`
	ContentType string          `json:"content_type"`
	Pages       int             `json:"pages"`
	Header      classify.Header `json:"header"`
	Data        []byte          `json:"-"`
}

var defaultMeasurer = sync.OnceValue(pdfdoc.NewMeasurer)

// Render classifies text as kind and renders it in the requested format.
func Render(text string, kind doctree.DocKind, opts Options) (*Artifact, error) {
	if opts.Format == "" {
		opts.Format = FormatPDF
	}
	if kind == "" {
		kind = doctree.KindResume
	}

	lines := classify.ClassifyText(text, kind)
	blocks := structure.Build(lines)
	header := classify.ExtractHeader(lines, kind)

	a := &Artifact{
		Kind:        kind,
		Format:      opts.Format,
		Filename:    Filename(header.Name, kind, opts.Format),
		ContentType: opts.Format.ContentType(),
		Header:      header,
	}

	switch opts.Format {
	case FormatHTML:
		a.Data = []byte(htmlPage(layoutTitle(header, kind), screen.Render(blocks)))
		a.Pages = 1
	case FormatPDF:
		m := opts.Measurer
		if m == nil {
			m = defaultMeasurer()
		}
		today := opts.Today
		if today.IsZero() {
			today = time.Now()
		}
		res := layout.Layout(blocks, layout.Options{
			Kind:   kind,
			Header: header,
			Today:  today.Format(DateLayout),
		}, m)
		data, err := pdfdoc.Bytes(res)
		if err != nil {
			return nil, fmt.Errorf("render %s pdf: %w", kind, err)
		}
		a.Data = data
		a.Pages = res.PageCount()
	default:
		return nil, fmt.Errorf("unknown format %q", opts.Format)
	}
	return a, nil
}

func layoutTitle(h classify.Header, kind doctree.DocKind) string {
	if h.Name != "" {
		return h.Name
	}
	return layout.FallbackTitle(kind)
}

func htmlPage(title string, nodes []screen.Node) string {
	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>")
	sb.WriteString(html.EscapeString(title))
	sb.WriteString("</title></head><body>")
	_ = screen.WriteHTML(&sb, nodes)
	sb.WriteString("</body></html>\n")
	return sb.String()
}

// Filename builds the download name from the detected name. Only letters,
// digits, spaces, hyphens and underscores survive; whitespace runs become
// a single underscore.
func Filename(name string, kind doctree.DocKind, format Format) string {
	kept := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_':
			return r
		case unicode.IsSpace(r):
			return ' '
		}
		return -1
	}, name)
	base := strings.Join(strings.Fields(kept), "_")
	if base == "" {
		base = "Professional"
	}

	suffix := "_Resume"
	if kind == doctree.KindCoverLetter {
		suffix = "_Cover_Letter"
	}
	ext := ".pdf"
	if format == FormatHTML {
		ext = ".html"
	}
	return base + suffix + ext
}

// PreviewResult is the on-screen rendering of a document.
type PreviewResult struct {
	Kind     doctree.DocKind `json:"kind"`
	Header   classify.Header `json:"header"`
	Sections []string        `json:"sections,omitempty"`
	Blocks   []doctree.Block `json:"blocks"`
	Nodes    []screen.Node   `json:"nodes"`
	HTML     string          `json:"html"`
}

// Preview classifies text and renders it for the screen.
func Preview(text string, kind doctree.DocKind) *PreviewResult {
	if kind == "" {
		kind = doctree.KindResume
	}
	lines := classify.ClassifyText(text, kind)
	blocks := structure.Build(lines)
	nodes := screen.Render(blocks)
	return &PreviewResult{
		Kind:     kind,
		Header:   classify.ExtractHeader(lines, kind),
		Sections: structure.Sections(blocks),
		Blocks:   blocks,
		Nodes:    nodes,
		HTML:     screen.HTML(nodes),
	}
}
