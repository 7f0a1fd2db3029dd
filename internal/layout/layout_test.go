package layout

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/dgallion1/docforge/internal/classify"
	"github.com/dgallion1/docforge/internal/doctree"
	"github.com/dgallion1/docforge/internal/structure"
)

// mono measures every rune as a fifth of the point size in millimetres.
type mono struct{}

func (mono) TextWidth(s string, f Font) float64 {
	return float64(utf8.RuneCountInString(s)) * f.Size * 0.2
}

const filler = "Delivered steady improvements across several teams while mentoring newer engineers on the platform."

func longResume(lines int) string {
	var sb strings.Builder
	sb.WriteString("**Jane Doe**\n[jane@example.com] | [555-0100]\n\n**Experience**\n")
	for i := 0; i < lines; i++ {
		if i%10 == 0 {
			sb.WriteString("Acme Inc\n")
		}
		sb.WriteString("- " + filler + "\n")
	}
	return sb.String()
}

func layoutText(text string, kind doctree.DocKind, today string) *Result {
	lines := classify.ClassifyText(text, kind)
	return Layout(structure.Build(lines), Options{
		Kind:   kind,
		Header: classify.ExtractHeader(lines, kind),
		Today:  today,
	}, mono{})
}

func elements(r *Result, role string) []PageElement {
	var out []PageElement
	for _, p := range r.Pages {
		for _, e := range p.Elements {
			if e.Role == role {
				out = append(out, e)
			}
		}
	}
	return out
}

func TestLayout_FooterOnEveryPage(t *testing.T) {
	r := layoutText(longResume(120), doctree.KindResume, "")
	if r.PageCount() < 3 {
		t.Fatalf("expected at least 3 pages, got %d", r.PageCount())
	}
	n := r.PageCount()
	for i, p := range r.Pages {
		if p.Number != i+1 {
			t.Errorf("page %d numbered %d", i+1, p.Number)
		}
		var footers []string
		for _, e := range p.Elements {
			if e.Role == RoleFooter {
				footers = append(footers, e.Text)
			}
		}
		want := fmt.Sprintf("Page %d of %d", i+1, n)
		if len(footers) != 1 || footers[0] != want {
			t.Errorf("page %d footers = %v, want [%q]", i+1, footers, want)
		}
	}
}

func assertBodyWithinBottomLimit(t *testing.T, r *Result) {
	t.Helper()
	for _, p := range r.Pages {
		for _, e := range p.Elements {
			if e.Role != RoleBody {
				continue
			}
			bottom := e.Y + e.H
			if e.Kind == ElemLine {
				bottom = e.Y2
			}
			if bottom > BottomLimit+1e-9 {
				t.Errorf("page %d: %s %q ends at %.2f", p.Number, e.Kind, e.Text, bottom)
			}
		}
	}
}

func TestLayout_BodyNeverCrossesBottomLimit(t *testing.T) {
	assertBodyWithinBottomLimit(t, layoutText(longResume(200), doctree.KindResume, ""))
}

func TestLayout_LongGreetingAndClosingPaginate(t *testing.T) {
	words := strings.Repeat("word ", 1500)
	for _, text := range []string{
		"Dear " + words + "\nThanks.\nSincerely,\nJohn Smith",
		"Dear Ms. Lee,\nThanks.\nSincerely, " + words + "\nJohn Smith",
	} {
		r := layoutText(text, doctree.KindCoverLetter, "March 3, 2024")
		if r.PageCount() < 2 {
			t.Fatalf("expected the long block to span pages, got %d", r.PageCount())
		}
		assertBodyWithinBottomLimit(t, r)

		var drawn []string
		for _, e := range elements(r, RoleBody) {
			if strings.Contains(e.Text, "word") {
				drawn = append(drawn, strings.Fields(e.Text)...)
			}
		}
		if n := strings.Count(strings.Join(drawn, " "), "word"); n != 1500 {
			t.Errorf("drew %d of 1500 words", n)
		}
	}
}

func TestLayout_HeaderOnlyOnFirstPage(t *testing.T) {
	r := layoutText(longResume(120), doctree.KindResume, "")
	for _, p := range r.Pages[1:] {
		minY := PageHeight
		for _, e := range p.Elements {
			if e.Role == RoleHeader {
				t.Fatalf("page %d has header element %q", p.Number, e.Text)
			}
			if e.Role == RoleBody && e.Y < minY {
				minY = e.Y
			}
		}
		if minY != TopMargin {
			t.Errorf("page %d body starts at %.2f, want %.2f", p.Number, minY, TopMargin)
		}
	}

	hdr := elements(r, RoleHeader)
	if len(hdr) < 2 || hdr[0].Text != "Jane Doe" {
		t.Fatalf("header = %+v", hdr)
	}
	if hdr[1].Text != "jane@example.com | 555-0100" {
		t.Errorf("contact = %q", hdr[1].Text)
	}
}

func TestLayout_NameAndContactNotRepeatedInBody(t *testing.T) {
	r := layoutText(longResume(1), doctree.KindResume, "")
	for _, e := range elements(r, RoleBody) {
		if e.Text == "Jane Doe" || strings.Contains(e.Text, "jane@example.com") {
			t.Errorf("header text drawn in body: %q", e.Text)
		}
	}
}

func TestLayout_FallbackTitles(t *testing.T) {
	tests := []struct {
		kind doctree.DocKind
		want string
	}{
		{doctree.KindResume, "Professional Resume"},
		{doctree.KindCoverLetter, "Cover Letter"},
	}
	for _, tt := range tests {
		r := Layout([]doctree.Block{{Tag: doctree.BodyParagraph, Text: "Hello there."}}, Options{Kind: tt.kind}, mono{})
		if r.Title != tt.want {
			t.Errorf("%s: title = %q, want %q", tt.kind, r.Title, tt.want)
		}
		if h := elements(r, RoleHeader); len(h) == 0 || h[0].Text != tt.want {
			t.Errorf("%s: header element = %+v", tt.kind, h)
		}
	}
}

func TestLayout_EmptyDocumentHasOnePage(t *testing.T) {
	r := Layout(nil, Options{}, mono{})
	if r.PageCount() != 1 {
		t.Fatalf("pages = %d, want 1", r.PageCount())
	}
	if f := elements(r, RoleFooter); len(f) != 1 || f[0].Text != "Page 1 of 1" {
		t.Errorf("footer = %+v", f)
	}
	if r.Kind != doctree.KindResume {
		t.Errorf("kind = %q", r.Kind)
	}
}

func TestLayout_CoverLetterInjectsDate(t *testing.T) {
	text := "Dear Ms. Lee,\nI would like to join your team.\nSincerely,\nJohn Smith"
	r := layoutText(text, doctree.KindCoverLetter, "March 3, 2024")

	body := elements(r, RoleBody)
	if len(body) == 0 || body[0].Text != "March 3, 2024" {
		t.Fatalf("first body element = %+v", body)
	}
	if body[0].Y != TopMargin+HeaderHeight {
		t.Errorf("date at y=%.2f", body[0].Y)
	}
	if body[1].Text != "Dear Ms. Lee," || body[1].Y != body[0].Y+paragraphLine+dateGap {
		t.Errorf("greeting = %+v", body[1])
	}
}

func TestLayout_CoverLetterKeepsOwnDate(t *testing.T) {
	text := "April 9, 2024\nDear Ms. Lee,\nThanks.\nRegards,\nJohn Smith"
	r := layoutText(text, doctree.KindCoverLetter, "March 3, 2024")
	for _, e := range elements(r, RoleBody) {
		if e.Text == "March 3, 2024" {
			t.Fatal("date injected although the letter has one")
		}
	}
}

func TestLayout_ResumeNeverInjectsDate(t *testing.T) {
	r := layoutText("Plain résumé text without a date.", doctree.KindResume, "March 3, 2024")
	for _, e := range elements(r, RoleBody) {
		if e.Text == "March 3, 2024" {
			t.Fatal("date injected into a resume")
		}
	}
}

func TestLayout_SignatureSpacing(t *testing.T) {
	text := "Dear Ms. Lee,\nThanks.\nSincerely,\nJohn Smith"
	r := layoutText(text, doctree.KindCoverLetter, "")

	var closing, sig PageElement
	for _, e := range elements(r, RoleBody) {
		switch e.Text {
		case "Sincerely,":
			closing = e
		case "John Smith":
			sig = e
		}
	}
	if sig.Font.Style != "B" {
		t.Errorf("signature font = %+v", sig.Font)
	}
	if got := sig.Y - closing.Y; got != closingLine+signatureSpace {
		t.Errorf("closing to signature = %.2f, want %.2f", got, closingLine+signatureSpace)
	}
	if h := elements(r, RoleHeader); h[0].Text != "John Smith" {
		t.Errorf("cover letter header = %q", h[0].Text)
	}
}

func TestLayout_BulletIndent(t *testing.T) {
	blocks := []doctree.Block{
		{Index: 0, Tag: doctree.BulletItem, Level: 0, Text: "top"},
		{Index: 1, Tag: doctree.BulletItem, Level: 2, Text: "nested"},
	}
	r := Layout(blocks, Options{}, mono{})

	var glyphs []PageElement
	for _, e := range elements(r, RoleBody) {
		if e.Kind == ElemGlyph {
			glyphs = append(glyphs, e)
		}
	}
	if len(glyphs) != 2 {
		t.Fatalf("glyphs = %d", len(glyphs))
	}
	if glyphs[0].X != Margin || glyphs[1].X != Margin+2*bulletIndent {
		t.Errorf("glyph x = %.2f, %.2f", glyphs[0].X, glyphs[1].X)
	}
}

func TestLayout_EmployerGapAfterBullets(t *testing.T) {
	blocks := []doctree.Block{
		{Index: 0, Tag: doctree.BulletItem, Text: "did things"},
		{Index: 1, Tag: doctree.EmployerOrDateLine, Text: "Acme Inc"},
	}
	r := Layout(blocks, Options{}, mono{})
	var bulletY, employerY float64
	for _, e := range elements(r, RoleBody) {
		switch {
		case e.Kind == ElemText && e.Block == 0:
			bulletY = e.Y
		case e.Block == 1:
			employerY = e.Y
		}
	}
	if got := employerY - bulletY; got != bulletLine+employerGap {
		t.Errorf("gap = %.2f", got)
	}
}

func TestLayout_Deterministic(t *testing.T) {
	text := longResume(60)
	a := layoutText(text, doctree.KindResume, "")
	b := layoutText(text, doctree.KindResume, "")
	if !reflect.DeepEqual(a, b) {
		t.Fatal("layout differs between runs")
	}
}

func TestWrap(t *testing.T) {
	f := Font{Size: 10} // 2mm per rune
	lines := Wrap(filler+" "+filler, 60, f, mono{})
	if len(lines) < 2 {
		t.Fatalf("expected wrapping, got %v", lines)
	}
	for _, l := range lines {
		if w := (mono{}).TextWidth(l, f); w > 60 {
			t.Errorf("line %q is %.1fmm wide", l, w)
		}
	}
	if got, want := strings.Join(lines, " "), filler+" "+filler; got != want {
		t.Errorf("wrap lost words:\n%s\n%s", got, want)
	}
}

func TestWrap_SplitsLongWord(t *testing.T) {
	f := Font{Size: 10}
	word := strings.Repeat("x", 25)
	lines := Wrap("a "+word, 20, f, mono{})
	want := []string{"a", strings.Repeat("x", 10), strings.Repeat("x", 10), strings.Repeat("x", 5)}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("got %v, want %v", lines, want)
	}
}

func TestWrap_Empty(t *testing.T) {
	if got := Wrap("   ", 50, Font{Size: 10}, mono{}); got != nil {
		t.Errorf("got %v", got)
	}
}
