package layout

import (
	"github.com/dgallion1/docforge/internal/doctree"
)

// Vertical rhythm in millimetres.
const (
	sectionPreGap   = 5.0
	sectionBand     = 7.0
	sectionAdvance  = 8.0
	bulletIndent    = 4.0
	bulletTextInset = 4.0
	bulletLine      = 5.0
	employerLine    = 5.0
	employerGap     = 2.0
	blankLine       = 2.0
	headingPreGap   = 3.0
	headingLine     = 7.0
	paragraphLine   = 4.5
	greetingAdvance = 10.0
	closingPreGap   = 5.0
	closingLine     = 5.0
	signatureSpace  = 15.0
	signatureLine   = 5.0
	dateGap         = 5.0
)

// step lays out one block and returns the advanced cursor.
func (l *layouter) step(c Cursor, b doctree.Block) Cursor {
	switch b.Tag {
	case doctree.Blank:
		return l.blank(c, b)
	case doctree.NameHeader, doctree.ContactBlock:
		// drawn in the header band
		return c
	case doctree.Heading:
		return l.heading(c, b)
	case doctree.SectionLabel:
		return l.sectionLabel(c, b)
	case doctree.BulletItem:
		return l.bullet(c, b)
	case doctree.EmployerOrDateLine:
		return l.employer(c, b)
	case doctree.DateLine:
		return l.dateLine(c, b)
	case doctree.Greeting:
		return l.greeting(c, b)
	case doctree.Closing:
		return l.closing(c, b)
	case doctree.Signature:
		return l.signature(c, b)
	case doctree.SummaryParagraph:
		return l.lines(c, b, Margin, ContentWidth, fontBody, colorMuted, paragraphLine)
	default:
		return l.lines(c, b, Margin, ContentWidth, fontBody, colorText, paragraphLine)
	}
}

// lines writes b.Text wrapped to width, checking for overflow before each
// line.
func (l *layouter) lines(c Cursor, b doctree.Block, x, width float64, f Font, col Color, lineH float64) Cursor {
	for _, line := range Wrap(b.Text, width, f, l.m) {
		c = l.ensure(c, lineH)
		l.add(c, PageElement{
			Kind: ElemText, Block: b.Index,
			X: x, Y: c.Y, W: width, H: lineH,
			Text: line, Font: f, Color: col,
		})
		c.Y += lineH
	}
	return c
}

func (l *layouter) blank(c Cursor, b doctree.Block) Cursor {
	n := len(b.Lines)
	if n == 0 {
		n = 1
	}
	c.Y += blankLine * float64(n)
	return c
}

func headingFont(level int) Font {
	switch {
	case level <= 1:
		return Font{Style: "B", Size: 16}
	case level == 2:
		return Font{Style: "B", Size: 14}
	default:
		return Font{Style: "B", Size: 12}
	}
}

func (l *layouter) heading(c Cursor, b doctree.Block) Cursor {
	c = l.ensure(c, headingPreGap+headingLine)
	c.Y += headingPreGap
	return l.lines(c, b, Margin, ContentWidth, headingFont(b.Level), colorAccent, headingLine)
}

// sectionLabel draws a shaded band with the label and a rule beneath it.
func (l *layouter) sectionLabel(c Cursor, b doctree.Block) Cursor {
	text := Wrap(b.Text, ContentWidth-4, fontSection, l.m)
	if len(text) == 0 {
		text = []string{""}
	}
	band := sectionBand + bulletLine*float64(len(text)-1)
	advance := sectionAdvance + bulletLine*float64(len(text)-1)

	c = l.ensure(c, sectionPreGap+advance)
	c.Y += sectionPreGap
	l.add(c, PageElement{
		Kind: ElemRect, Block: b.Index,
		X: Margin, Y: c.Y, W: ContentWidth, H: band,
		Color: colorBand, Fill: true,
	})
	for i, line := range text {
		l.add(c, PageElement{
			Kind: ElemText, Block: b.Index,
			X: Margin + 2, Y: c.Y + 1 + bulletLine*float64(i), W: ContentWidth - 4, H: bulletLine,
			Text: line, Font: fontSection, Color: colorAccent,
		})
	}
	ruleY := c.Y + band + 0.5
	l.add(c, PageElement{
		Kind: ElemLine, Block: b.Index,
		X: Margin, Y: ruleY, X2: Margin + ContentWidth, Y2: ruleY,
		Color: colorRule,
	})
	c.Y += advance
	return c
}

// bullet draws the glyph beside the first wrapped line; continuation lines
// hang at the text inset.
func (l *layouter) bullet(c Cursor, b doctree.Block) Cursor {
	x := Margin + float64(b.Level)*bulletIndent
	width := ContentWidth - float64(b.Level)*bulletIndent - bulletTextInset
	for i, line := range Wrap(b.Text, width, fontBody, l.m) {
		c = l.ensure(c, bulletLine)
		if i == 0 {
			l.add(c, PageElement{
				Kind: ElemGlyph, Block: b.Index,
				X: x, Y: c.Y, W: bulletTextInset, H: bulletLine,
				Text: "•", Font: fontBody, Color: colorAccent,
			})
		}
		l.add(c, PageElement{
			Kind: ElemText, Block: b.Index,
			X: x + bulletTextInset, Y: c.Y, W: width, H: bulletLine,
			Text: line, Font: fontBody, Color: colorText,
		})
		c.Y += bulletLine
	}
	return c
}

func (l *layouter) employer(c Cursor, b doctree.Block) Cursor {
	if l.prev == doctree.BulletItem {
		c.Y += employerGap
	}
	return l.lines(c, b, Margin, ContentWidth, fontBold, colorText, employerLine)
}

func (l *layouter) dateLine(c Cursor, b doctree.Block) Cursor {
	c = l.lines(c, b, Margin, ContentWidth, fontBody, colorText, paragraphLine)
	c.Y += dateGap
	return c
}

func (l *layouter) greeting(c Cursor, b doctree.Block) Cursor {
	lines := Wrap(b.Text, ContentWidth, fontGreeting, l.m)
	advance := greetingAdvance
	if h := closingLine * float64(len(lines)); h > advance {
		advance = h
	}
	if fitsPage(advance) {
		c = l.ensure(c, advance)
	}
	page, start := c.Page, c.Y
	for _, line := range lines {
		c = l.ensure(c, closingLine)
		l.add(c, PageElement{
			Kind: ElemText, Block: b.Index,
			X: Margin, Y: c.Y, W: ContentWidth, H: closingLine,
			Text: line, Font: fontGreeting, Color: colorText,
		})
		c.Y += closingLine
	}
	if c.Page == page && c.Y < start+advance {
		c.Y = start + advance
	}
	return c
}

// closing keeps the closing line and the reserved signature space together
// when they fit on one page.
func (l *layouter) closing(c Cursor, b doctree.Block) Cursor {
	lines := Wrap(b.Text, ContentWidth, fontBody, l.m)
	if need := closingPreGap + closingLine*float64(len(lines)) + signatureSpace; fitsPage(need) {
		c = l.ensure(c, need)
	}
	c.Y += closingPreGap
	for _, line := range lines {
		c = l.ensure(c, closingLine)
		l.add(c, PageElement{
			Kind: ElemText, Block: b.Index,
			X: Margin, Y: c.Y, W: ContentWidth, H: closingLine,
			Text: line, Font: fontBody, Color: colorText,
		})
		c.Y += closingLine
	}
	c.Y += signatureSpace
	return c
}

// fitsPage reports whether need fits on an empty continuation page.
func fitsPage(need float64) bool {
	return need <= BottomLimit-TopMargin
}

// signature prints the sender name from the header when one was found.
func (l *layouter) signature(c Cursor, b doctree.Block) Cursor {
	if name := l.opts.Header.Name; name != "" {
		b.Text = name
	}
	return l.lines(c, b, Margin, ContentWidth, fontBold, colorText, signatureLine)
}
