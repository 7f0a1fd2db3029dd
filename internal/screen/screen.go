// Package screen maps document blocks to HTML preview markup.
package screen

import (
	"fmt"

	"github.com/dgallion1/docforge/internal/doctree"
)

// Treatment is the presentation applied to one block tag.
type Treatment struct {
	Element string
	Class   string
	Style   string
}

// Treatments is the full tag → presentation table.
var Treatments = map[doctree.Tag]Treatment{
	doctree.Heading:            {Element: "h2", Class: "heading", Style: "font-size:1.5rem;font-weight:700;color:#1e3a8a;margin-top:1rem"},
	doctree.NameHeader:         {Element: "h1", Class: "name-header", Style: "text-align:center;font-size:2rem;font-weight:700"},
	doctree.ContactBlock:       {Element: "p", Class: "contact", Style: "text-align:center;color:#6b7280"},
	doctree.BulletItem:         {Element: "div", Class: "bullet", Style: "display:flex;gap:0.5rem"},
	doctree.SectionLabel:       {Element: "h3", Class: "section-label", Style: "font-weight:700;border-bottom:1px solid #d1d5db;padding-bottom:0.25rem"},
	doctree.EmployerOrDateLine: {Element: "p", Class: "employer", Style: "font-weight:600;font-size:1.1rem;margin-top:0.75rem"},
	doctree.DateLine:           {Element: "p", Class: "date-line", Style: "color:#6b7280;margin-bottom:1rem"},
	doctree.Blank:              {Element: "div", Class: "spacer", Style: "height:0.75rem"},
	doctree.SummaryParagraph:   {Element: "p", Class: "summary", Style: "color:#4b5563"},
	doctree.BodyParagraph:      {Element: "p", Class: "body"},
	doctree.Greeting:           {Element: "p", Class: "greeting", Style: "font-weight:700;margin-bottom:1rem"},
	doctree.Closing:            {Element: "p", Class: "closing", Style: "margin-top:1rem;margin-bottom:1rem"},
	doctree.Signature:          {Element: "p", Class: "signature", Style: "font-weight:700"},
}

// bulletIndentRem is the left indent per bullet nesting level.
const bulletIndentRem = 1.25

// Node is the presentational projection of one block.
type Node struct {
	Block   int         `json:"block"`
	Tag     doctree.Tag `json:"tag"`
	Element string      `json:"element"`
	Class   string      `json:"class"`
	Style   string      `json:"style,omitempty"`
	Text    string      `json:"text,omitempty"`
	Indent  int         `json:"indent,omitempty"`
	Section string      `json:"section,omitempty"`
}

// Render projects blocks onto preview nodes. It does not modify blocks.
func Render(blocks []doctree.Block) []Node {
	nodes := make([]Node, 0, len(blocks))
	for _, b := range blocks {
		nodes = append(nodes, renderBlock(b))
	}
	return nodes
}

func renderBlock(b doctree.Block) Node {
	t, ok := Treatments[b.Tag]
	if !ok {
		t = Treatments[doctree.BodyParagraph]
	}
	n := Node{
		Block:   b.Index,
		Tag:     b.Tag,
		Element: t.Element,
		Class:   t.Class,
		Style:   t.Style,
		Text:    b.Text,
		Section: b.Section,
	}

	switch b.Tag {
	case doctree.Heading:
		n.Element = headingElement(b.Level)
	case doctree.BulletItem:
		n.Indent = b.Level
		n.Style = joinStyle(t.Style, fmt.Sprintf("margin-left:%.2frem", float64(b.Level)*bulletIndentRem))
	case doctree.Blank:
		n.Text = ""
	}
	return n
}

func headingElement(level int) string {
	switch {
	case level <= 1:
		return "h2"
	case level == 2:
		return "h3"
	default:
		return "h4"
	}
}

func joinStyle(a, b string) string {
	if a == "" {
		return b
	}
	return a + ";" + b
}
