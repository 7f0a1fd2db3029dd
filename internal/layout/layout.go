// Package layout paginates document blocks onto fixed A4 pages.
//
// Layout is pure: it computes page elements with millimetre coordinates and
// leaves drawing to a surface (see package pdfdoc). The vertical write head
// is a Cursor value threaded through one step function per block.
package layout

import (
	"fmt"

	"github.com/dgallion1/docforge/internal/classify"
	"github.com/dgallion1/docforge/internal/doctree"
)

// A4 portrait geometry in millimetres.
const (
	PageWidth    = 210.0
	PageHeight   = 297.0
	Margin       = 20.0
	TopMargin    = 20.0
	HeaderHeight = 25.0
	BottomLimit  = 270.0
	FooterY      = 285.0
	ContentWidth = PageWidth - 2*Margin
)

// Font is a face style ("", "B", "I") at a point size.
type Font struct {
	Style string  `json:"style,omitempty"`
	Size  float64 `json:"size"`
}

// Color is RGB, 0-255.
type Color struct {
	R, G, B int
}

var (
	colorText    = Color{33, 33, 33}
	colorMuted   = Color{107, 114, 128}
	colorAccent  = Color{30, 58, 138}
	colorBand    = Color{243, 244, 246}
	colorRule    = Color{209, 213, 219}
	colorFooter  = Color{128, 128, 128}
	fontBody     = Font{Size: 10}
	fontBold     = Font{Style: "B", Size: 11}
	fontSection  = Font{Style: "B", Size: 11}
	fontName     = Font{Style: "B", Size: 18}
	fontContact  = Font{Size: 9}
	fontFooter   = Font{Size: 8}
	fontGreeting = Font{Size: 10}
)

// Measurer reports the rendered width in millimetres of s in font f.
type Measurer interface {
	TextWidth(s string, f Font) float64
}

// ElementKind is the drawing primitive of a PageElement.
type ElementKind string

const (
	ElemText  ElementKind = "text"
	ElemGlyph ElementKind = "glyph"
	ElemRect  ElementKind = "rect"
	ElemLine  ElementKind = "line"
)

// Element roles outside the body.
const (
	RoleBody   = ""
	RoleHeader = "header"
	RoleFooter = "footer"
)

// PageElement is one positioned primitive. Text and glyphs use X,Y as the
// top-left of a line box of height H (or its top-centre when Align is "C").
// Rects use X,Y,W,H. Lines run from X,Y to X2,Y2.
type PageElement struct {
	Kind  ElementKind `json:"kind"`
	Role  string      `json:"role,omitempty"`
	Block int         `json:"block"`
	X     float64     `json:"x"`
	Y     float64     `json:"y"`
	W     float64     `json:"w,omitempty"`
	H     float64     `json:"h,omitempty"`
	X2    float64     `json:"x2,omitempty"`
	Y2    float64     `json:"y2,omitempty"`
	Text  string      `json:"text,omitempty"`
	Font  Font        `json:"font"`
	Color Color       `json:"color"`
	Fill  bool        `json:"fill,omitempty"`
	Align string      `json:"align,omitempty"`
}

// Page is one allocated page.
type Page struct {
	Number   int           `json:"number"`
	Elements []PageElement `json:"elements"`
}

// Result is a complete paginated layout.
type Result struct {
	Kind   doctree.DocKind `json:"kind"`
	Header classify.Header `json:"header"`
	Title  string          `json:"title"`
	Pages  []Page          `json:"pages"`
}

// Options tune a layout pass.
type Options struct {
	Kind   doctree.DocKind
	Header classify.Header
	// Today is written as the date of a cover letter that has no date line.
	Today string
}

// Cursor is the layout write head.
type Cursor struct {
	Y    float64
	Page int
}

// FallbackTitle is the header text used when no name was detected.
func FallbackTitle(kind doctree.DocKind) string {
	if kind == doctree.KindCoverLetter {
		return "Cover Letter"
	}
	return "Professional Resume"
}

// Layout paginates blocks. It never fails: unknown tags are laid out as
// body paragraphs.
func Layout(blocks []doctree.Block, opts Options, m Measurer) *Result {
	if opts.Kind == "" {
		opts.Kind = doctree.KindResume
	}
	l := &layouter{m: m, opts: opts}
	l.res = &Result{Kind: opts.Kind, Header: opts.Header, Title: opts.Header.Name}
	if l.res.Title == "" {
		l.res.Title = FallbackTitle(opts.Kind)
	}

	c := l.start()
	if opts.Kind == doctree.KindCoverLetter && opts.Today != "" && !hasTag(blocks, doctree.DateLine) {
		c = l.dateLine(c, doctree.Block{Index: -1, Tag: doctree.DateLine, Text: opts.Today})
	}
	for _, b := range blocks {
		c = l.step(c, b)
		l.prev = b.Tag
	}
	l.stampFooters()
	return l.res
}

// PageCount returns the number of allocated pages.
func (r *Result) PageCount() int {
	return len(r.Pages)
}

type layouter struct {
	m    Measurer
	opts Options
	res  *Result
	prev doctree.Tag
}

// start allocates page one and draws the header band.
func (l *layouter) start() Cursor {
	l.res.Pages = append(l.res.Pages, Page{Number: 1})
	c := Cursor{Y: TopMargin, Page: 1}

	l.add(c, PageElement{
		Kind: ElemText, Role: RoleHeader, Block: -1,
		X: PageWidth / 2, Y: TopMargin, H: 8, W: ContentWidth,
		Text: l.res.Title, Font: fontName, Color: colorText, Align: "C",
	})
	if contact := l.opts.Header.Contact; contact != "" {
		lines := Wrap(contact, ContentWidth, fontContact, l.m)
		if len(lines) > 2 {
			lines = lines[:2]
		}
		for i, line := range lines {
			l.add(c, PageElement{
				Kind: ElemText, Role: RoleHeader, Block: -1,
				X: PageWidth / 2, Y: TopMargin + 10 + float64(i)*4.5, H: 4.5, W: ContentWidth,
				Text: line, Font: fontContact, Color: colorMuted, Align: "C",
			})
		}
	}
	ruleY := TopMargin + HeaderHeight - 3
	l.add(c, PageElement{
		Kind: ElemLine, Role: RoleHeader, Block: -1,
		X: Margin, Y: ruleY, X2: Margin + ContentWidth, Y2: ruleY,
		Color: colorRule,
	})

	c.Y = TopMargin + HeaderHeight
	return c
}

// ensure opens a new page when writing need millimetres at c would cross
// BottomLimit. Continuation pages have no header band.
func (l *layouter) ensure(c Cursor, need float64) Cursor {
	if c.Y+need <= BottomLimit || (c.Page > 1 && c.Y <= TopMargin) {
		return c
	}
	next := Cursor{Y: TopMargin, Page: c.Page + 1}
	l.res.Pages = append(l.res.Pages, Page{Number: next.Page})
	return next
}

func (l *layouter) add(c Cursor, e PageElement) {
	p := &l.res.Pages[c.Page-1]
	p.Elements = append(p.Elements, e)
}

// stampFooters writes exactly one "Page X of N" on every allocated page.
func (l *layouter) stampFooters() {
	n := len(l.res.Pages)
	for i := range l.res.Pages {
		c := Cursor{Y: FooterY, Page: i + 1}
		l.add(c, PageElement{
			Kind: ElemText, Role: RoleFooter, Block: -1,
			X: PageWidth / 2, Y: FooterY, H: 4, W: ContentWidth,
			Text: fmt.Sprintf("Page %d of %d", i+1, n), Font: fontFooter, Color: colorFooter, Align: "C",
		})
	}
}

func hasTag(blocks []doctree.Block, tag doctree.Tag) bool {
	for _, b := range blocks {
		if b.Tag == tag {
			return true
		}
	}
	return false
}
